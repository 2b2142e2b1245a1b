package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/handlers"
	"github.com/huangang/taskline/internal/middleware"
	"github.com/huangang/taskline/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery(), svc.metrics.Middleware())
	r.Use(middleware.CORS(svc.cfg.CORS.AllowedOrigins))

	r.GET("/", svc.healthHandler.Root)
	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics(svc.metrics))

	// API routes
	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		// Auth routes (public, rate limited per client IP)
		auth := api.Group("/auth", svc.authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(svc.tokenResolver()))
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Tasks
			protected.GET("/projects/:id/tasks", svc.taskHandler.List)
			protected.POST("/projects/:id/tasks", svc.taskHandler.Create)
			protected.GET("/projects/:id/tasks/:task_id", svc.taskHandler.GetByID)
			protected.PUT("/projects/:id/tasks/:task_id", svc.taskHandler.Update)
			protected.DELETE("/projects/:id/tasks/:task_id", svc.taskHandler.Delete)
			protected.GET("/projects/:id/timeline", svc.taskHandler.Timeline)
		}
	}
}
