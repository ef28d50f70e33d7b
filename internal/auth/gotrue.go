package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const gotruePageSize = 1000

// GoTrue talks to a GoTrue (Supabase Auth) server using the service-role key.
type GoTrue struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	// verifier checks tokens locally when the JWT secret is known; otherwise
	// tokens are resolved with GET /user.
	verifier *TokenVerifier
}

// NewGoTrue returns a provider for the auth server at baseURL (e.g. https://x.supabase.co/auth/v1).
func NewGoTrue(baseURL, serviceKey string, verifier *TokenVerifier) *GoTrue {
	return &GoTrue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		verifier:   verifier,
	}
}

type gotrueUser struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *string                `json:"email_confirmed_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
}

func (u gotrueUser) identity() *Identity {
	return &Identity{
		ID:        u.ID,
		Email:     u.Email,
		Name:      metadataName(u.UserMetadata),
		Confirmed: u.EmailConfirmedAt != nil && *u.EmailConfirmedAt != "",
	}
}

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (g *GoTrue) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ge gotrueError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		msg := ge.Msg
		if msg == "" {
			msg = ge.Message
		}
		if msg == "" {
			msg = ge.ErrorDescription
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ProviderError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (g *GoTrue) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	if g.verifier != nil {
		return g.verifier.Verify(token)
	}
	var u gotrueUser
	if err := g.do(ctx, http.MethodGet, "/user", token, nil, &u); err != nil {
		var pe *ProviderError
		if asProviderError(err, &pe) && (pe.Status == http.StatusUnauthorized || pe.Status == http.StatusForbidden) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return u.identity(), nil
}

func (g *GoTrue) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	want := NormalizeEmail(email)
	for page := 1; ; page++ {
		var out struct {
			Users []gotrueUser `json:"users"`
		}
		q := url.Values{"page": {fmt.Sprint(page)}, "per_page": {fmt.Sprint(gotruePageSize)}}
		if err := g.do(ctx, http.MethodGet, "/admin/users?"+q.Encode(), g.serviceKey, nil, &out); err != nil {
			return nil, err
		}
		for _, u := range out.Users {
			if NormalizeEmail(u.Email) == want {
				return u.identity(), nil
			}
		}
		if len(out.Users) < gotruePageSize {
			return nil, nil
		}
	}
}

func (g *GoTrue) CreateUser(ctx context.Context, nu NewUser) (*Identity, error) {
	body := map[string]interface{}{
		"email":         nu.Email,
		"password":      nu.Password,
		"email_confirm": nu.Confirmed,
		"user_metadata": map[string]string{"name": nu.Name},
	}
	var u gotrueUser
	if err := g.do(ctx, http.MethodPost, "/admin/users", g.serviceKey, body, &u); err != nil {
		var pe *ProviderError
		if asProviderError(err, &pe) && pe.Status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(pe.Message), "already") {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u.identity(), nil
}

func (g *GoTrue) UpdateUser(ctx context.Context, id string, upd UserUpdate) error {
	body := map[string]interface{}{}
	if upd.Password != nil {
		body["password"] = *upd.Password
	}
	if upd.Confirm {
		body["email_confirm"] = true
	}
	if upd.Name != nil {
		body["user_metadata"] = map[string]string{"name": *upd.Name}
	}
	return g.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), g.serviceKey, body, nil)
}

func (g *GoTrue) SignIn(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/token?grant_type=password", g.serviceKey, body, &out); err != nil {
		var pe *ProviderError
		if asProviderError(err, &pe) && pe.Status == http.StatusBadRequest {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return out.AccessToken, nil
}
