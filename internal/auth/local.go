package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const localTokenTTL = 24 * time.Hour

type localUser struct {
	identity     Identity
	passwordHash []byte
}

// Local is a self-contained provider for development and tests: users live in
// memory with bcrypt password hashes, and tokens are HS256 JWTs.
type Local struct {
	mu       sync.RWMutex
	byID     map[string]*localUser
	byEmail  map[string]string
	verifier *TokenVerifier
}

func NewLocal(verifier *TokenVerifier) *Local {
	return &Local{
		byID:     make(map[string]*localUser),
		byEmail:  make(map[string]string),
		verifier: verifier,
	}
}

func (l *Local) Authenticate(_ context.Context, token string) (*Identity, error) {
	id, err := l.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.byID[id.ID]
	if !ok {
		return nil, ErrUnauthorized
	}
	ident := u.identity
	return &ident, nil
}

func (l *Local) FindByEmail(_ context.Context, email string) (*Identity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	ident := l.byID[id].identity
	return &ident, nil
}

func (l *Local) CreateUser(_ context.Context, nu NewUser) (*Identity, error) {
	if len(nu.Password) < 6 {
		return nil, &ProviderError{Status: 422, Message: "Password should be at least 6 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	email := NormalizeEmail(nu.Email)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byEmail[email]; ok {
		return nil, ErrUserExists
	}
	u := &localUser{
		identity: Identity{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      nu.Name,
			Confirmed: nu.Confirmed,
		},
		passwordHash: hash,
	}
	l.byID[u.identity.ID] = u
	l.byEmail[email] = u.identity.ID
	ident := u.identity
	return &ident, nil
}

func (l *Local) UpdateUser(_ context.Context, id string, upd UserUpdate) error {
	var hash []byte
	if upd.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = h
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.byID[id]
	if !ok {
		return &ProviderError{Status: 404, Message: "User not found"}
	}
	if hash != nil {
		u.passwordHash = hash
	}
	if upd.Name != nil {
		u.identity.Name = *upd.Name
	}
	if upd.Confirm {
		u.identity.Confirmed = true
	}
	return nil
}

func (l *Local) SignIn(_ context.Context, email, password string) (string, error) {
	l.mu.RLock()
	id, ok := l.byEmail[NormalizeEmail(email)]
	var u localUser
	if ok {
		u = *l.byID[id]
	}
	l.mu.RUnlock()
	if !ok || !u.identity.Confirmed {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return l.verifier.Issue(u.identity, localTokenTTL)
}
