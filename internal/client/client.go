// Package client is a typed HTTP client for the kitchen API.
package client

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

	"github.com/imrishuroy/kitchen-orderflow/internal/accounts"
	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/payments"
	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client calls the API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sends a fixed bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = func() string { return token } }
}

// WithTokenSource reads the bearer token per request, so a later sign-in is picked up.
func WithTokenSource(f func() string) Option { return func(c *Client) { c.token = f } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   func() string { return "" },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Menu(ctx context.Context, category string) ([]catalog.Item, error) {
	path := "/menu"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out struct {
		Items []catalog.Item `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out, nil)
	return out.Items, err
}

// Signup returns the new or verified user id and the server's message.
func (c *Client) Signup(ctx context.Context, email, password, name string) (string, string, error) {
	var out struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/signup", validation.SignupRequest{Email: email, Password: password, Name: name}, &out, nil)
	return out.UserID, out.Message, err
}

func (c *Client) FixAccount(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/fix-account", validation.EmailRequest{Email: email}, &out, nil)
	return out.Message, err
}

// Login returns a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	err := c.do(ctx, http.MethodPost, "/login", validation.LoginRequest{Email: email, Password: password}, &out, nil)
	return out.AccessToken, err
}

func (c *Client) Profile(ctx context.Context) (*accounts.ProfileView, error) {
	var out struct {
		Profile accounts.ProfileView `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// RequestPasswordReset returns the reset code when the server is configured to expose it.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var out struct {
		ResetCode string `json:"resetCode"`
	}
	err := c.do(ctx, http.MethodPost, "/request-password-reset", validation.EmailRequest{Email: email}, &out, nil)
	return out.ResetCode, err
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	req := validation.ResetPasswordRequest{Email: email, ResetCode: code, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, "/reset-password", req, nil, nil)
}

type favoritesBody struct {
	Favorites []string `json:"favorites"`
}

func (c *Client) Favorites(ctx context.Context) ([]string, error) {
	var out favoritesBody
	err := c.do(ctx, http.MethodGet, "/favorites", nil, &out, nil)
	return out.Favorites, err
}

func (c *Client) AddFavorite(ctx context.Context, itemID string) ([]string, error) {
	var out favoritesBody
	err := c.do(ctx, http.MethodPost, "/favorites", validation.FavoriteRequest{ItemID: itemID}, &out, nil)
	return out.Favorites, err
}

func (c *Client) RemoveFavorite(ctx context.Context, itemID string) ([]string, error) {
	var out favoritesBody
	err := c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(itemID), nil, &out, nil)
	return out.Favorites, err
}

// CreateOrder submits an order. A non-empty idempotencyKey makes retries safe.
func (c *Client) CreateOrder(ctx context.Context, req validation.CreateOrderRequest, idempotencyKey string) (*orders.Order, error) {
	var out struct {
		OrderID string       `json:"orderId"`
		Order   orders.Order `json:"order"`
	}
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	if err := c.do(ctx, http.MethodPost, "/orders", req, &out, headers); err != nil {
		return nil, err
	}
	if out.Order.OrderID == "" {
		out.Order.OrderID = out.OrderID
	}
	return &out.Order, nil
}

type ordersBody struct {
	Orders []orders.Order `json:"orders"`
}

func (c *Client) Orders(ctx context.Context) ([]orders.Order, error) {
	var out ordersBody
	err := c.do(ctx, http.MethodGet, "/orders", nil, &out, nil)
	return out.Orders, err
}

func (c *Client) AdminOrders(ctx context.Context) ([]orders.Order, error) {
	var out ordersBody
	err := c.do(ctx, http.MethodGet, "/admin/orders", nil, &out, nil)
	return out.Orders, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, key, status string) (*orders.Order, error) {
	var out struct {
		Order orders.Order `json:"order"`
	}
	path := "/admin/orders/" + url.PathEscape(key)
	if err := c.do(ctx, http.MethodPut, path, validation.UpdateStatusRequest{Status: status}, &out, nil); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) PaymentDetails(ctx context.Context) (payments.Details, error) {
	var out struct {
		Details payments.Details `json:"details"`
	}
	err := c.do(ctx, http.MethodGet, "/payment-details", nil, &out, nil)
	return out.Details, err
}

func (c *Client) SetPaymentDetails(ctx context.Context, d payments.Details) error {
	req := validation.PaymentDetailsRequest{Details: validation.PaymentDetails{
		BankName:      d.BankName,
		AccountName:   d.AccountName,
		AccountNumber: d.AccountNumber,
	}}
	return c.do(ctx, http.MethodPost, "/payment-details", req, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &e) == nil {
			apiErr.Message, apiErr.Code = e.Error, e.Code
		}
		return apiErr
	}
	// 202 means the same idempotency key is still being processed
	if resp.StatusCode == http.StatusAccepted {
		return &APIError{Status: resp.StatusCode, Message: "request already in progress"}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
