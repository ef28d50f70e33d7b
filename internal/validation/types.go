package validation

import "time"

// OrderItem is one cart line in POST /orders.
type OrderItem struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price" validate:"gt=0"`
	Quantity    int     `json:"quantity" validate:"required,min=1,max=1000"`
}

// PaymentMethod is the buyer's self-reported bank transfer source.
type PaymentMethod struct {
	Type          string `json:"type" validate:"omitempty,eq=bank-account"`
	BankName      string `json:"bankName" validate:"required,max=100,unsealed"`
	AccountName   string `json:"accountName" validate:"required,max=100,unsealed"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric,min=6,max=20"`
}

// CreateOrderRequest is the payload for POST /orders
type CreateOrderRequest struct {
	Items         []OrderItem   `json:"items" validate:"required,min=1,dive"`
	Total         float64       `json:"total" validate:"gt=0"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	OrderNumber   string        `json:"orderNumber,omitempty" validate:"omitempty,max=32"`
	Timestamp     *time.Time    `json:"timestamp,omitempty"` // client clock at checkout
}

// UpdateStatusRequest is the payload for PUT /admin/orders/:orderId
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SignupRequest is the payload for POST /signup
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

// EmailRequest carries just an email: /fix-account and /request-password-reset.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest is the payload for POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest is the payload for POST /reset-password
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	ResetCode   string `json:"resetCode" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// FavoriteRequest is the payload for POST /favorites
type FavoriteRequest struct {
	ItemID string `json:"itemId" validate:"required,max=64"`
}

// PaymentDetails are the merchant's receiving account details.
type PaymentDetails struct {
	BankName      string `json:"bankName" validate:"required,max=100"`
	AccountName   string `json:"accountName" validate:"required,max=100"`
	AccountNumber string `json:"accountNumber" validate:"required,max=34"`
}

// PaymentDetailsRequest is the payload for POST /payment-details
type PaymentDetailsRequest struct {
	Details PaymentDetails `json:"details"`
}
