// Package auth guards settings changes behind a single admin password and
// short-lived JWT bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const subjectContextKey contextKey = "subject"

const (
	issuer       = "activityscan"
	adminSubject = "admin"
)

var (
	// ErrNotConfigured is returned when no secret or admin password is set.
	ErrNotConfigured = errors.New("authentication not configured")
	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Config holds authentication configuration. AdminPasswordHash is a bcrypt
// hash and takes precedence over the plain AdminPassword.
type Config struct {
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string
	TokenDuration     time.Duration
}

// Claims represents the JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator issues and checks admin tokens.
type Authenticator struct {
	secret       []byte
	passwordHash []byte
	duration     time.Duration
}

// New builds an Authenticator. It returns ErrNotConfigured when the secret or
// both password settings are empty.
func New(cfg Config) (*Authenticator, error) {
	if cfg.JWTSecret == "" || (cfg.AdminPassword == "" && cfg.AdminPasswordHash == "") {
		return nil, ErrNotConfigured
	}

	hash := cfg.AdminPasswordHash
	if hash == "" {
		var err error
		hash, err = HashPassword(cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	duration := cfg.TokenDuration
	if duration <= 0 {
		duration = 24 * time.Hour
	}

	return &Authenticator{
		secret:       []byte(cfg.JWTSecret),
		passwordHash: []byte(hash),
		duration:     duration,
	}, nil
}

// Login checks the admin password and returns a signed token with its expiry.
func (a *Authenticator) Login(password string) (string, time.Time, error) {
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expires := time.Now().Add(a.duration)
	token, err := GenerateToken(adminSubject, a.secret, expires)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// Validate checks a token and returns its subject.
func (a *Authenticator) Validate(token string) (string, error) {
	return ValidateToken(token, a.secret)
}

// GenerateToken creates a signed HS256 token for subject.
func GenerateToken(subject string, secret []byte, expires time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns the subject
func ValidateToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("invalid token")
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Middleware rejects requests without a valid bearer token. A nil
// Authenticator rejects everything with 503.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil {
			http.Error(w, ErrNotConfigured.Error(), http.StatusServiceUnavailable)
			return
		}

		token, ok := BearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		subject, err := a.Validate(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext extracts the authenticated subject from the request context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	return subject, ok
}
