package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/models"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/pkg/logger"
	"github.com/huangang/taskline/pkg/response"
)

const (
	ContextUser  = "current_user"
	ContextEmail = "email"
)

// TokenResolver maps a bearer token to an active user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Unauthorized(c, msg)
	c.Abort()
}

// AuthRequired is a middleware that resolves the bearer token to an active user
func AuthRequired(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "not authenticated")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		user, err := resolver.ResolveToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		switch {
		case err == nil:
		case errors.Is(err, services.ErrUnauthenticated):
			unauthorized(c, services.ErrUnauthenticated.Error())
			return
		case errors.Is(err, services.ErrInactiveAccount):
			response.Forbidden(c, services.ErrInactiveAccount.Error())
			c.Abort()
			return
		default:
			logger.LogError(err).Str("request_id", c.GetString(logger.RequestIDKey)).Msg("resolve bearer token")
			response.ServerError(c, "internal server error")
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextEmail, user.Email)

		c.Next()
	}
}

// GetCurrentUser gets the authenticated user from context
func GetCurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(ContextUser); exists {
		if u, ok := user.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetEmail gets the authenticated user's email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}
