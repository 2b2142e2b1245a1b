package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/huangang/taskline/internal/models"
	"github.com/huangang/taskline/internal/store"
	"github.com/huangang/taskline/internal/utils"
	"github.com/huangang/taskline/pkg/logger"
)

type AuthService struct {
	users    store.UserStore
	tokenTTL time.Duration
}

// NewAuthService builds the identity service. A tokenTTL <= 0 falls back to
// the process default configured in utils.
func NewAuthService(users store.UserStore, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		tokenTTL: tokenTTL,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"required,min=2,max=200"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginResult struct {
	AccessToken string
	ExpireAt    time.Time
	User        *models.User
}

// Register creates an active user. The unique email index is authoritative:
// a registration that loses a race past the pre-check still fails with
// ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := models.Now()
	user := &models.User{
		ID:             models.NewID(),
		Email:          req.Email,
		FullName:       req.FullName,
		IsActive:       true,
		HashedPassword: hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	logger.Info().Str("email", user.Email).Msg("New user registered")
	return user, nil
}

// Login checks the password and mints a bearer token. Unknown users and wrong
// passwords are reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	token, expireAt, err := utils.GenerateToken(user.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("email", user.Email).Msg("User logged in")
	return &LoginResult{
		AccessToken: token,
		ExpireAt:    expireAt,
		User:        user,
	}, nil
}

// ResolveToken maps a bearer token to an active user.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	email, ok := utils.VerifyToken(token)
	if !ok {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAccessible
	}
	return user, err
}

// SetActive enables or disables an account. Disabled users keep their data
// but every protected request is refused.
func (s *AuthService) SetActive(ctx context.Context, email string, active bool) error {
	ok, err := s.users.SetActive(ctx, email, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAccessible
	}
	logger.Info().Str("email", email).Bool("active", active).Msg("User activation changed")
	return nil
}
