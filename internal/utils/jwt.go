package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 30 * time.Minute

var (
	jwtMu      sync.RWMutex
	jwtSecret  []byte
	defaultTTL = DefaultTokenTTL
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carries the token subject (the user's email) and expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// SetJWTSecret sets the process-wide signing key.
func SetJWTSecret(secret string) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecret = []byte(secret)
}

// SetTokenTTL sets the lifetime used when GenerateToken is given no ttl.
func SetTokenTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	jwtMu.Lock()
	defer jwtMu.Unlock()
	defaultTTL = ttl
}

func signingKey() ([]byte, time.Duration) {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	return jwtSecret, defaultTTL
}

// GenerateToken signs a bearer token for subject. A ttl <= 0 uses the
// configured default.
func GenerateToken(subject string, ttl time.Duration) (string, time.Time, error) {
	key, fallback := signingKey()
	if len(key) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = fallback
	}

	now := time.Now()
	expireAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expireAt, nil
}

// ParseToken validates signature, algorithm and expiry. Every failure is
// reported as ErrInvalidToken.
func ParseToken(tokenString string) (*Claims, error) {
	key, _ := signingKey()
	if len(key) == 0 || tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyToken returns the subject of a valid token.
func VerifyToken(tokenString string) (string, bool) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}
