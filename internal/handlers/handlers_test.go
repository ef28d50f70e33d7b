package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/kitchen-orderflow/internal/accounts"
	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/events"
	"github.com/imrishuroy/kitchen-orderflow/internal/favorites"
	"github.com/imrishuroy/kitchen-orderflow/internal/idempotency"
	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/payments"
)

const jollofOrder = `{
	"items": [
		{"id": "1", "name": "Jollof Rice", "price": 1000, "quantity": 2},
		{"id": "10", "name": "Samosa", "price": 200, "quantity": 1}
	],
	"total": 2200,
	"paymentMethod": {"type": "bank-account", "bankName": "GTBank", "accountName": "Ada Obi", "accountNumber": "0011223344"}
}`

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type failingAppend struct {
	kv.Store
	failKey string
}

func (f failingAppend) Append(ctx context.Context, key, member string) error {
	if key == f.failKey {
		return errors.New("throughput exceeded")
	}
	return f.Store.Append(ctx, key, member)
}

type testEnv struct {
	router    *gin.Engine
	provider  *auth.Local
	repo      *orders.Repository
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, store kv.Store) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if store == nil {
		store = kv.NewMemory()
	}

	provider := auth.NewLocal(auth.NewTokenVerifier([]byte("handler-test-secret"), ""))
	repo := orders.NewRepository(store)
	pub := &recordingPublisher{}

	r := gin.New()
	r.Use(RequestID())
	RegisterRoutes(r, HandlerConfig{
		Auth:            provider,
		Orders:          repo,
		Accounts:        accounts.NewService(provider, store, repo),
		Favorites:       favorites.NewStore(store),
		Payments:        payments.NewStore(store),
		Idempotency:     idempotency.NewStore(store, 0),
		Events:          pub,
		ExposeResetCode: true,
	})
	return &testEnv{router: r, provider: provider, repo: repo, publisher: pub}
}

// login creates a confirmed user and returns its id and bearer token.
func (e *testEnv) login(t *testing.T, email string) (string, string) {
	t.Helper()
	ctx := context.Background()
	u, err := e.provider.CreateUser(ctx, auth.NewUser{Email: email, Password: "secret1", Confirmed: true})
	require.NoError(t, err)
	token, err := e.provider.SignIn(ctx, email, "secret1")
	require.NoError(t, err)
	return u.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type orderResponse struct {
	Message string       `json:"message"`
	OrderID string       `json:"orderId"`
	Order   orders.Order `json:"order"`
}

type listResponse struct {
	Orders []orders.Order `json:"orders"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(out), w.Body.String())
}

func TestCreateOrder_AndList(t *testing.T) {
	env := newTestEnv(t, nil)
	userID, token := env.login(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/orders", token, jollofOrder)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created orderResponse
	decode(t, w, &created)
	assert.Equal(t, "Order created successfully", created.Message)
	assert.True(t, strings.HasPrefix(created.OrderID, "order:"))
	assert.True(t, strings.HasSuffix(created.OrderID, ":"+userID))
	assert.Equal(t, 2200.0, created.Order.Total)
	assert.Len(t, created.Order.Items, 2)
	assert.Equal(t, orders.StatusPending, created.Order.Status)
	assert.Equal(t, "ada@example.com", created.Order.UserEmail)
	assert.True(t, strings.HasPrefix(created.Order.OrderNumber, "ORD-"))

	w = env.do(t, http.MethodGet, "/orders", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, created.OrderID, list.Orders[0].OrderID)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, events.TypeOrderCreated, env.publisher.events[0].Type)
	assert.Equal(t, created.OrderID, env.publisher.events[0].OrderKey)
	assert.NotEmpty(t, env.publisher.events[0].CorrelationID)
}

func TestOrders_RequireBearerToken(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/orders", "", jollofOrder)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/orders", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_RejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.login(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/orders", token, `{"items": [], "total": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	discounted := strings.Replace(jollofOrder, `"price": 1000`, `"price": 1`, 1)
	discounted = strings.Replace(discounted, `"total": 2200`, `"total": 202`, 1)
	w = env.do(t, http.MethodPost, "/orders", token, discounted)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "do not match the menu")

	sealedLooking := strings.Replace(jollofOrder, `"bankName": "GTBank"`, `"bankName": "sealed:v1:whatever"`, 1)
	w = env.do(t, http.MethodPost, "/orders", token, sealedLooking)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsealed")
}

func TestCreateOrder_IdempotencyKeyReplays(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.login(t, "ada@example.com")

	first := env.do(t, http.MethodPost, "/orders", token, jollofOrder, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusOK, first.Code)
	second := env.do(t, http.MethodPost, "/orders", token, jollofOrder, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusOK, second.Code)

	var a, b orderResponse
	decode(t, first, &a)
	decode(t, second, &b)
	assert.Equal(t, a.OrderID, b.OrderID)

	var list listResponse
	decode(t, env.do(t, http.MethodGet, "/orders", token, ""), &list)
	assert.Len(t, list.Orders, 1)
}

func TestCreateOrder_PartialWritePublishesReindex(t *testing.T) {
	mem := kv.NewMemory()
	env := newTestEnv(t, failingAppend{Store: mem, failKey: orders.AdminIndexKey})
	_, token := env.login(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/orders", token, jollofOrder)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to create order"}`, w.Body.String())

	require.Len(t, env.publisher.events, 1)
	ev := env.publisher.events[0]
	assert.Equal(t, events.TypeOrderReindex, ev.Type)

	order, err := env.repo.Get(context.Background(), ev.OrderKey)
	require.NoError(t, err)
	assert.NotNil(t, order, "record should exist despite the failed index append")
}

func TestAdminOrders(t *testing.T) {
	env := newTestEnv(t, nil)
	_, buyerToken := env.login(t, "ada@example.com")
	adminID, adminToken := env.login(t, "ops@example.com")

	var created orderResponse
	decode(t, env.do(t, http.MethodPost, "/orders", buyerToken, jollofOrder), &created)

	w := env.do(t, http.MethodGet, "/admin/orders", buyerToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden - Admin access required"}`, w.Body.String())
	w = env.do(t, http.MethodPut, "/admin/orders/"+created.OrderID, buyerToken, `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, env.repo.GrantAdmin(context.Background(), adminID))

	w = env.do(t, http.MethodPut, "/admin/orders/"+created.OrderID, adminToken, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated orderResponse
	decode(t, w, &updated)
	assert.Equal(t, "Order updated successfully", updated.Message)
	assert.Equal(t, orders.StatusCompleted, updated.Order.Status)

	var all listResponse
	decode(t, env.do(t, http.MethodGet, "/admin/orders", adminToken, ""), &all)
	require.Len(t, all.Orders, 1)
	assert.Equal(t, orders.StatusCompleted, all.Orders[0].Status)

	w = env.do(t, http.MethodPut, "/admin/orders/order:999:nouser", adminToken, `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, w.Body.String())

	w = env.do(t, http.MethodPut, "/admin/orders/"+created.OrderID, adminToken, `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupAndProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/signup", "", `{"email":"new@example.com","password":"secret1","name":"New"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Account created successfully")

	w = env.do(t, http.MethodPost, "/signup", "", `{"email":"new@example.com","password":"secret1","name":"New"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"This email is already registered. Please sign in instead.","code":"DUPLICATE_EMAIL"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/login", "", `{"email":"new@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, w, &login)

	w = env.do(t, http.MethodGet, "/profile", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		Profile accounts.ProfileView `json:"profile"`
	}
	decode(t, w, &profile)
	assert.Equal(t, "New", profile.Profile.Name)
	assert.False(t, profile.Profile.IsAdmin)

	w = env.do(t, http.MethodPost, "/login", "", `{"email":"new@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/fix-account", "", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No account found with this email. Please sign up."}`, w.Body.String())
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/request-password-reset", "", `{"email":"nobody@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"If the email exists, a reset code has been sent."}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/request-password-reset", "", `{"email":"ada@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var reset struct {
		ResetCode string `json:"resetCode"`
	}
	decode(t, w, &reset)
	require.Len(t, reset.ResetCode, 6)

	wrong := "000000"
	if reset.ResetCode == wrong {
		wrong = "111111"
	}
	w = env.do(t, http.MethodPost, "/reset-password", "", `{"email":"ada@example.com","resetCode":"`+wrong+`","newPassword":"brandnew"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid reset code"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/reset-password", "", `{"email":"ada@example.com","resetCode":"`+reset.ResetCode+`","newPassword":"brandnew"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err := env.provider.SignIn(context.Background(), "ada@example.com", "brandnew")
	assert.NoError(t, err)
}

func TestFavoritesRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.login(t, "ada@example.com")

	w := env.do(t, http.MethodGet, "/favorites", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"favorites":[]}`, w.Body.String())

	env.do(t, http.MethodPost, "/favorites", token, `{"itemId":"3"}`)
	w = env.do(t, http.MethodPost, "/favorites", token, `{"itemId":"3"}`)
	assert.JSONEq(t, `{"favorites":["3"]}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/favorites/3", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"favorites":[]}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/favorites", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentDetailsRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	_, buyerToken := env.login(t, "ada@example.com")
	adminID, adminToken := env.login(t, "ops@example.com")
	require.NoError(t, env.repo.GrantAdmin(context.Background(), adminID))

	w := env.do(t, http.MethodGet, "/payment-details", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First Bank of Nigeria")

	body := `{"details":{"bankName":"GTBank","accountName":"Sacy's Kitchen","accountNumber":"9988776655"}}`
	w = env.do(t, http.MethodPost, "/payment-details", buyerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, "/payment-details", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/payment-details", adminToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/payment-details", "garbage-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "9988776655")
}

func TestMenuRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	var all struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	decode(t, env.do(t, http.MethodGet, "/menu", "", ""), &all)
	assert.Len(t, all.Items, 13)

	decode(t, env.do(t, http.MethodGet, "/menu?category=addon", "", ""), &all)
	assert.Len(t, all.Items, 3)
}
