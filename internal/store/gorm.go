package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangang/taskline/internal/config"
	"github.com/huangang/taskline/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore keeps everything in relational tables. Team membership lives in
// project_members so visibility can be checked with an indexed subquery.
type GormStore struct {
	db       *gorm.DB
	users    *gormUserStore
	projects *gormProjectStore
	tasks    *gormTaskStore
}

// OpenGorm connects using cfg.Driver and cfg.DSN.
func OpenGorm(cfg *config.DatabaseConfig, debug bool) (*GormStore, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, unavailable("connect database", err)
	}

	return NewGormStore(db), nil
}

// NewGormStore wraps an open connection. The connection must have been
// opened with TranslateError so duplicate keys are recognised.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		users:    &gormUserStore{db: db},
		projects: &gormProjectStore{db: db},
		tasks:    &gormTaskStore{db: db},
	}
}

func (s *GormStore) Users() UserStore       { return s.users }
func (s *GormStore) Projects() ProjectStore { return s.projects }
func (s *GormStore) Tasks() TaskStore       { return s.tasks }

// EnsureIndexes migrates the schema. Indexes are declared on the model tags.
func (s *GormStore) EnsureIndexes(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
	)
	if err != nil {
		return unavailable("auto migrate", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find user", err)
	}
	return &user, nil
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if err != nil {
		return unavailable("create user", err)
	}
	return nil
}

func (s *gormUserStore) SetActive(ctx context.Context, email string, active bool) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": models.Now(),
		})
	if result.Error != nil {
		return false, unavailable("set user active", result.Error)
	}
	return result.RowsAffected > 0, nil
}
