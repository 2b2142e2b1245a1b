package services

import (
	"context"
	"testing"
	"time"

	"github.com/huangang/taskline/internal/store"
	"github.com/huangang/taskline/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	utils.SetJWTSecret("services-test-secret")
}

type testEnv struct {
	store    *store.GormStore
	auth     *AuthService
	projects *ProjectService
	tasks    *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.NewGormStore(db)
	if err := s.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	projects := NewProjectService(s.Projects())
	return &testEnv{
		store:    s,
		auth:     NewAuthService(s.Users(), time.Hour),
		projects: projects,
		tasks:    NewTaskService(projects, s.Tasks()),
	}
}

func (e *testEnv) mustCreateProject(t *testing.T, owner string, members ...string) string {
	t.Helper()
	p, err := e.projects.Create(context.Background(), &CreateProjectRequest{
		Name:        "Project of " + owner,
		TeamMembers: members,
	}, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p.ID
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }
