package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/metrics"
	"github.com/huangang/taskline/internal/middleware"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
	metrics     *metrics.Metrics
}

// NewAuthHandler builds the auth endpoints. m may be nil.
func NewAuthHandler(authService *services.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     m,
	}
}

// LoginRequest follows the OAuth2 password grant field names; the username
// is the account email.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpireAt    time.Time `json:"expire_at"`
}

// Register creates an account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}

	h.metrics.RecordAuthEvent(metrics.AuthRegistered)
	response.Created(c, user)
}

// Login exchanges credentials for a bearer token. Accepts a form-encoded or
// JSON body and answers with a bare OAuth2 token response.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}

	ve := &services.ValidationError{}
	if strings.TrimSpace(req.Username) == "" {
		ve.Fields = append(ve.Fields, services.FieldError{Field: "username", Message: "must not be empty"})
	}
	if req.Password == "" {
		ve.Fields = append(ve.Fields, services.FieldError{Field: "password", Message: "must not be empty"})
	}
	if len(ve.Fields) > 0 {
		fail(c, ve)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.metrics.RecordAuthEvent(metrics.AuthLoginFailure)
		fail(c, err)
		return
	}

	h.metrics.RecordAuthEvent(metrics.AuthLoginSuccess)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpireAt:    result.ExpireAt,
	})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		fail(c, services.ErrUnauthenticated)
		return
	}

	response.Success(c, user)
}
