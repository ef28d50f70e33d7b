// Package accounts handles signup, account repair, profiles and password reset.
package accounts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
)

var (
	ErrDuplicateEmail   = errors.New("this email is already registered, please sign in instead")
	ErrNoAccount        = errors.New("no account found with this email, please sign up")
	ErrNoResetCode      = errors.New("invalid or expired reset code")
	ErrResetCodeExpired = errors.New("reset code has expired")
	ErrInvalidResetCode = errors.New("invalid reset code")
	ErrUserNotFound     = errors.New("user not found")
)

// ResetCodeTTL is how long a password reset code stays valid.
const ResetCodeTTL = 10 * time.Minute

// AdminChecker reports whether a user carries the administrator flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Profile is the value stored at user:<id>:profile.
type Profile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileView is what GET /profile returns.
type ProfileView struct {
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	ID        string     `json:"id"`
	IsAdmin   bool       `json:"isAdmin"`
}

// SignupResult identifies the account a signup created or verified.
type SignupResult struct {
	UserID  string
	Created bool
}

type resetRecord struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"` // unix millis
}

// Service implements the account operations on top of the auth provider.
type Service struct {
	provider auth.Provider
	kv       kv.Store
	admins   AdminChecker
	nowFunc  func() time.Time
	newCode  func() (string, error)
}

// NewService returns a Service.
func NewService(provider auth.Provider, store kv.Store, admins AdminChecker) *Service {
	return &Service{
		provider: provider,
		kv:       store,
		admins:   admins,
		nowFunc:  time.Now,
		newCode:  randomCode,
	}
}

func FavoritesKey(userID string) string { return "user:" + userID + ":favorites" }
func ProfileKey(userID string) string   { return "user:" + userID + ":profile" }
func ResetKey(email string) string      { return "reset:" + email }

// Signup creates a confirmed account. An existing unconfirmed account with the
// same email is confirmed and takes the new password and name instead.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*SignupResult, error) {
	email = auth.NormalizeEmail(email)
	existing, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if existing != nil {
		if existing.Confirmed {
			return nil, ErrDuplicateEmail
		}
		upd := auth.UserUpdate{Password: &password, Name: &name, Confirm: true}
		if err := s.provider.UpdateUser(ctx, existing.ID, upd); err != nil {
			return nil, fmt.Errorf("confirm user: %w", err)
		}
		if err := s.ensureUserData(ctx, existing.ID, name, email); err != nil {
			return nil, err
		}
		return &SignupResult{UserID: existing.ID}, nil
	}

	id, err := s.provider.CreateUser(ctx, auth.NewUser{Email: email, Password: password, Name: name, Confirmed: true})
	if errors.Is(err, auth.ErrUserExists) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := kv.SetJSON(ctx, s.kv, FavoritesKey(id.ID), []string{}); err != nil {
		return nil, fmt.Errorf("init favorites: %w", err)
	}
	if err := kv.SetJSON(ctx, s.kv, ProfileKey(id.ID), Profile{Name: name, Email: email, CreatedAt: s.nowFunc().UTC()}); err != nil {
		return nil, fmt.Errorf("init profile: %w", err)
	}
	return &SignupResult{UserID: id.ID, Created: true}, nil
}

// FixAccount confirms an existing account and creates any missing user data.
func (s *Service) FixAccount(ctx context.Context, email string) (string, error) {
	email = auth.NormalizeEmail(email)
	existing, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if existing == nil {
		return "", ErrNoAccount
	}
	if err := s.provider.UpdateUser(ctx, existing.ID, auth.UserUpdate{Confirm: true}); err != nil {
		return "", fmt.Errorf("confirm user: %w", err)
	}
	name := existing.Name
	if name == "" {
		name = "User"
	}
	if err := s.ensureUserData(ctx, existing.ID, name, existing.Email); err != nil {
		return "", err
	}
	return existing.ID, nil
}

// Profile returns the stored profile merged with the caller's id and admin flag.
func (s *Service) Profile(ctx context.Context, id auth.Identity) (*ProfileView, error) {
	var p Profile
	ok, err := kv.GetJSON(ctx, s.kv, ProfileKey(id.ID), &p)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	isAdmin, err := s.admins.IsAdmin(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{ID: id.ID, IsAdmin: isAdmin}
	if ok {
		view.Name, view.Email = p.Name, p.Email
		if !p.CreatedAt.IsZero() {
			view.CreatedAt = &p.CreatedAt
		}
	}
	return view, nil
}

// RequestPasswordReset stores a fresh six-digit code for email. It returns an
// empty code and no error when the email has no account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = auth.NormalizeEmail(email)
	u, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return "", nil
	}
	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	rec := resetRecord{Code: code, ExpiresAt: s.nowFunc().Add(ResetCodeTTL).UnixMilli()}
	if err := kv.SetJSON(ctx, s.kv, ResetKey(email), rec); err != nil {
		return "", fmt.Errorf("store reset code: %w", err)
	}
	return code, nil
}

// ResetPassword replaces the password when code matches the stored, unexpired code.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = auth.NormalizeEmail(email)
	var rec resetRecord
	ok, err := kv.GetJSON(ctx, s.kv, ResetKey(email), &rec)
	if err != nil {
		return fmt.Errorf("read reset code: %w", err)
	}
	if !ok {
		return ErrNoResetCode
	}
	if s.nowFunc().UnixMilli() > rec.ExpiresAt {
		if err := s.kv.Delete(ctx, ResetKey(email)); err != nil {
			return fmt.Errorf("drop expired reset code: %w", err)
		}
		return ErrResetCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return ErrInvalidResetCode
	}

	u, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.provider.UpdateUser(ctx, u.ID, auth.UserUpdate{Password: &newPassword}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.kv.Delete(ctx, ResetKey(email)); err != nil {
		return fmt.Errorf("drop reset code: %w", err)
	}
	return nil
}

// SignIn exchanges credentials for a bearer token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	return s.provider.SignIn(ctx, auth.NormalizeEmail(email), password)
}

func (s *Service) ensureUserData(ctx context.Context, userID, name, email string) error {
	if _, ok, err := s.kv.Get(ctx, FavoritesKey(userID)); err != nil {
		return fmt.Errorf("read favorites: %w", err)
	} else if !ok {
		if err := kv.SetJSON(ctx, s.kv, FavoritesKey(userID), []string{}); err != nil {
			return fmt.Errorf("init favorites: %w", err)
		}
	}
	if _, ok, err := s.kv.Get(ctx, ProfileKey(userID)); err != nil {
		return fmt.Errorf("read profile: %w", err)
	} else if !ok {
		p := Profile{Name: name, Email: email, CreatedAt: s.nowFunc().UTC()}
		if err := kv.SetJSON(ctx, s.kv, ProfileKey(userID), p); err != nil {
			return fmt.Errorf("init profile: %w", err)
		}
	}
	return nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
