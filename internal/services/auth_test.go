package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/huangang/taskline/internal/utils"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, &RegisterRequest{
		Email:    " alice@x.com ",
		FullName: "  Alice Smith ",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Email != "alice@x.com" {
		t.Errorf("Email = %q, expected trimmed address", user.Email)
	}
	if user.FullName != "Alice Smith" {
		t.Errorf("FullName = %q, expected %q", user.FullName, "Alice Smith")
	}
	if !user.IsActive {
		t.Error("new users should be active")
	}
	if user.HashedPassword == "secret1" || !utils.CheckPassword("secret1", user.HashedPassword) {
		t.Error("password should be stored as a verifiable hash")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := RegisterRequest{Email: "alice@x.com", FullName: "Alice", Password: "secret1"}

	first := req
	if _, err := env.auth.Register(ctx, &first); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	second := req
	if _, err := env.auth.Register(ctx, &second); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("second Register() error = %v, expected ErrDuplicateEmail", err)
	}
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const attempts = 4
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.auth.Register(ctx, &RegisterRequest{
				Email:    "race@x.com",
				FullName: "Racer",
				Password: "secret1",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrDuplicateEmail):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d registrations succeeded, expected exactly 1", succeeded)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", FullName: "Alice", Password: "secret1"}, "email"},
		{"short name", RegisterRequest{Email: "a@x.com", FullName: " A ", Password: "secret1"}, "full_name"},
		{"short password", RegisterRequest{Email: "a@x.com", FullName: "Alice", Password: "12345"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), &tt.req)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != tt.field {
				t.Errorf("fields = %+v, expected one error on %q", ve.Fields, tt.field)
			}
		})
	}
}

func TestRegister_PasswordTooLongIsNotValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), &RegisterRequest{
		Email:    "long@x.com",
		FullName: "Long",
		Password: strings.Repeat("p", 80),
	})
	if !errors.Is(err, utils.ErrHashing) {
		t.Errorf("expected ErrHashing, got %v", err)
	}
	if IsValidationError(err) {
		t.Error("hashing failures must not surface as validation errors")
	}
}

func TestLoginAndResolveToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, &RegisterRequest{Email: "alice@x.com", FullName: "Alice", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}

	if _, err := env.auth.Login(ctx, "alice@x.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, expected ErrInvalidCredentials", err)
	}
	if _, err := env.auth.Login(ctx, "nobody@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, expected ErrInvalidCredentials", err)
	}

	result, err := env.auth.Login(ctx, "alice@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.AccessToken == "" || result.ExpireAt.IsZero() {
		t.Fatal("Login() should return a token with expiry")
	}

	user, err := env.auth.ResolveToken(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if user.Email != "alice@x.com" {
		t.Errorf("resolved email = %q", user.Email)
	}

	if _, err := env.auth.ResolveToken(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("garbage token error = %v, expected ErrUnauthenticated", err)
	}
}

func TestResolveToken_UnknownSubject(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := utils.GenerateToken("ghost@x.com", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.ResolveToken(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("error = %v, expected ErrUnauthenticated", err)
	}
}

func TestInactiveAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, &RegisterRequest{Email: "alice@x.com", FullName: "Alice", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	result, err := env.auth.Login(ctx, "alice@x.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	if err := env.auth.SetActive(ctx, "alice@x.com", false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	if _, err := env.auth.ResolveToken(ctx, result.AccessToken); !errors.Is(err, ErrInactiveAccount) {
		t.Errorf("ResolveToken() error = %v, expected ErrInactiveAccount", err)
	}
	if _, err := env.auth.Login(ctx, "alice@x.com", "secret1"); !errors.Is(err, ErrInactiveAccount) {
		t.Errorf("Login() error = %v, expected ErrInactiveAccount", err)
	}

	if err := env.auth.SetActive(ctx, "nobody@x.com", true); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("SetActive() on unknown user error = %v, expected ErrNotAccessible", err)
	}
}

func TestAuthService_GetUserByEmailAndSetActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.GetUserByEmail(ctx, "ghost@x.com"); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("unknown user error = %v, expected ErrNotAccessible", err)
	}
	if err := env.auth.SetActive(ctx, "ghost@x.com", false); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("SetActive(unknown) error = %v, expected ErrNotAccessible", err)
	}

	if _, err := env.auth.Register(ctx, &RegisterRequest{Email: "carol@x.com", FullName: "Carol", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if err := env.auth.SetActive(ctx, "carol@x.com", false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	user, err := env.auth.GetUserByEmail(ctx, "carol@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if user.IsActive {
		t.Error("user should be inactive")
	}
}
