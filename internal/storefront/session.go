package storefront

import (
	"errors"
	"sync"

	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
)

// View is the page the storefront is showing.
type View string

const (
	ViewHome         View = "home"
	ViewCart         View = "cart"
	ViewCheckout     View = "checkout"
	ViewReceipt      View = "receipt"
	ViewFavorites    View = "favorites"
	ViewOrderHistory View = "order-history"
	ViewAdmin        View = "admin"
)

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrAdminRequired  = errors.New("admin access required")
)

// User is the signed-in identity as the storefront knows it.
type User struct {
	ID      string
	Email   string
	Name    string
	IsAdmin bool
	Token   string
}

// Session is the navigation and sign-in state of one storefront.
type Session struct {
	mu         sync.Mutex
	view       View
	user       *User
	receipt    *orders.Order
	authPrompt bool
}

func NewSession() *Session { return &Session{view: ViewHome} }

func gated(v View) bool {
	return v == ViewFavorites || v == ViewOrderHistory || v == ViewAdmin
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Navigate switches view. Favorites and order history need a user; admin
// needs an administrator. A denied navigation raises the sign-in prompt.
func (s *Session) Navigate(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gated(v) && s.user == nil {
		s.authPrompt = true
		return ErrSignInRequired
	}
	if v == ViewAdmin && !s.user.IsAdmin {
		return ErrAdminRequired
	}
	s.view = v
	return nil
}

func (s *Session) SignIn(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	s.authPrompt = false
}

// SignOut clears the user and leaves any signed-in-only view for home.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if gated(s.view) {
		s.view = ViewHome
	}
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token is the bearer token of the signed-in user, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.Token
}

func (s *Session) promptSignIn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authPrompt = true
}

// AuthPrompt reports whether the sign-in prompt is showing.
func (s *Session) AuthPrompt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authPrompt
}

func (s *Session) showReceipt(o *orders.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipt = o
	s.view = ViewReceipt
}

// Receipt is the last order placed in this session.
func (s *Session) Receipt() *orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}
