package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func validOrder() CreateOrderRequest {
	now := time.Now()
	return CreateOrderRequest{
		Items: []OrderItem{
			{ID: "1", Name: "Jollof Rice", Price: 1000, Quantity: 2},
			{ID: "10", Name: "Samosa", Price: 200, Quantity: 1},
		},
		Total: 2200,
		PaymentMethod: PaymentMethod{
			Type:          "bank-account",
			BankName:      "GTBank",
			AccountName:   "Ada Obi",
			AccountNumber: "0011223344",
		},
		Timestamp: &now,
	}
}

func TestCreateOrderRequest_Valid(t *testing.T) {
	if err := New().Struct(validOrder()); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCreateOrderRequest_FractionalPrices(t *testing.T) {
	req := validOrder()
	req.Items = []OrderItem{{ID: "x", Name: "x", Price: 0.1, Quantity: 3}}
	req.Total = 0.3
	if err := New().Struct(req); err != nil {
		t.Fatalf("0.1*3 should equal 0.3, got %v", err)
	}
}

func TestCreateOrderRequest_InvalidTotalMismatch(t *testing.T) {
	req := validOrder()
	req.Total = 2199.99
	if err := New().Struct(req); err == nil {
		t.Fatal("expected validation error for total mismatch, got nil")
	}
}

func TestCreateOrderRequest_MissingFields(t *testing.T) {
	cases := map[string]func(*CreateOrderRequest){
		"no items":        func(r *CreateOrderRequest) { r.Items = nil },
		"zero quantity":   func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 },
		"no bank":         func(r *CreateOrderRequest) { r.PaymentMethod.BankName = "" },
		"letters account": func(r *CreateOrderRequest) { r.PaymentMethod.AccountNumber = "abc123456" },
		"card payment":    func(r *CreateOrderRequest) { r.PaymentMethod.Type = "card" },
		"sealed bank":     func(r *CreateOrderRequest) { r.PaymentMethod.BankName = "sealed:v1:whatever" },
		"sealed name":     func(r *CreateOrderRequest) { r.PaymentMethod.AccountName = "sealed:v1:x" },
	}
	for name, mutate := range cases {
		req := validOrder()
		mutate(&req)
		if err := New().Struct(req); err == nil {
			t.Fatalf("%s: expected validation error, got nil", name)
		}
	}
}

func TestResetPasswordRequest(t *testing.T) {
	v := New()
	ok := ResetPasswordRequest{Email: "a@b.co", ResetCode: "123456", NewPassword: "secret"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	bad := ok
	bad.ResetCode = "12a456"
	if err := v.Struct(bad); err == nil {
		t.Fatal("expected non-numeric code to fail")
	}
}

func TestBindAndValidate_WritesBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"nope","password":"123"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req SignupRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"Email":"email"`) || !strings.Contains(w.Body.String(), `"Password":"min"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
