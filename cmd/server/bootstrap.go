package main

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/taskline/internal/config"
	"github.com/huangang/taskline/internal/handlers"
	"github.com/huangang/taskline/internal/metrics"
	"github.com/huangang/taskline/internal/middleware"
	"github.com/huangang/taskline/internal/models"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/internal/store"
	"github.com/huangang/taskline/pkg/logger"
	"github.com/samber/oops"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg         *config.Config
	store       store.Store
	metrics     *metrics.Metrics
	authLimiter *middleware.RateLimiter

	authService    *services.AuthService
	projectService *services.ProjectService
	taskService    *services.TaskService

	authHandler    *handlers.AuthHandler
	projectHandler *handlers.ProjectHandler
	taskHandler    *handlers.TaskHandler
	healthHandler  *handlers.HealthHandler
}

// openStore connects the backend selected by cfg.Database.Driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "mongodb":
		st, err := store.ConnectMongo(ctx, &cfg.Database)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("driver", "mongodb").Wrap(err)
		}
		return st, nil
	default:
		st, err := store.OpenGorm(&cfg.Database, cfg.Server.Mode == "debug")
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
		}
		return st, nil
	}
}

// bootstrap initializes all application dependencies: store, indexes, services.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := st.EnsureIndexes(ctx); err != nil {
		_ = st.Close(context.Background())
		return nil, oops.Code("INDEXES_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("Store ready")

	return newAppServices(cfg, st), nil
}

// newAppServices wires services and handlers around an open store.
func newAppServices(cfg *config.Config, st store.Store) *appServices {
	m := metrics.New()

	authService := services.NewAuthService(st.Users(), time.Duration(cfg.JWT.ExpireMinutes)*time.Minute)
	projectService := services.NewProjectService(st.Projects())
	taskService := services.NewTaskService(projectService, st.Tasks())

	return &appServices{
		cfg:            cfg,
		store:          st,
		metrics:        m,
		authLimiter:    middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		authService:    authService,
		projectService: projectService,
		taskService:    taskService,
		authHandler:    handlers.NewAuthHandler(authService, m),
		projectHandler: handlers.NewProjectHandler(projectService),
		taskHandler:    handlers.NewTaskHandler(taskService),
		healthHandler:  handlers.NewHealthHandler(st, version),
	}
}

// tokenResolver counts rejected bearer tokens on the way through.
func (s *appServices) tokenResolver() middleware.TokenResolver {
	return &countingResolver{next: s.authService, metrics: s.metrics}
}

type countingResolver struct {
	next    middleware.TokenResolver
	metrics *metrics.Metrics
}

func (r *countingResolver) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	user, err := r.next.ResolveToken(ctx, token)
	if errors.Is(err, services.ErrUnauthenticated) || errors.Is(err, services.ErrInactiveAccount) {
		r.metrics.RecordAuthEvent(metrics.AuthRejected)
	}
	return user, err
}

// shutdown releases the rate limiter and the store connection.
func (s *appServices) shutdown() {
	s.authLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		logger.LogError(err).Msg("Failed to close store")
		return
	}
	logger.Info().Msg("Store closed")
}
