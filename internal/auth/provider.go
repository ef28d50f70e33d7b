// Package auth resolves bearer tokens to identities and manages accounts at
// the external auth provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized means the bearer token is missing, malformed, expired or unknown.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by SignIn for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned by CreateUser when the email is taken.
	ErrUserExists = errors.New("user already exists")
)

// Identity is an authenticated user as known to the provider.
type Identity struct {
	ID        string
	Email     string
	Name      string
	Confirmed bool
}

// NewUser describes an account to create.
type NewUser struct {
	Email     string
	Password  string
	Name      string
	Confirmed bool
}

// UserUpdate carries the fields to change on an existing account; nil fields are left as is.
type UserUpdate struct {
	Password *string
	Name     *string
	Confirm  bool
}

// Provider is the external auth service.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
	// FindByEmail returns (nil, nil) when no account has that email.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	CreateUser(ctx context.Context, u NewUser) (*Identity, error)
	UpdateUser(ctx context.Context, id string, u UserUpdate) error
	SignIn(ctx context.Context, email, password string) (string, error)
}

// ProviderError is a rejection reported by the provider itself (weak password,
// malformed email). Its message is safe to show the caller.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider: %d %s", e.Status, e.Message)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func asProviderError(err error, target **ProviderError) bool {
	return errors.As(err, target)
}
