package orders

import "time"

// Order statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// PaymentMethodBankAccount is the only payment type: a buyer-reported bank transfer.
const PaymentMethodBankAccount = "bank-account"

// ValidStatus reports whether s is one of the three order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Item is one order line as it was in the buyer's cart.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// PaymentMethod is what the buyer says they paid from. Nothing verifies it.
type PaymentMethod struct {
	Type          string `json:"type"`
	BankName      string `json:"bankName,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
}

// Order is the record stored at order:<unixMillis>:<userId>.
type Order struct {
	OrderID       string        `json:"orderId"` // the order key
	OrderNumber   string        `json:"orderNumber"`
	Items         []Item        `json:"items"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        string        `json:"status"`
	UserID        string        `json:"userId"`
	UserEmail     string        `json:"userEmail"`
	Timestamp     *time.Time    `json:"timestamp,omitempty"` // client clock at checkout
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     *time.Time    `json:"updatedAt,omitempty"`
}

// Draft is the checkout payload a buyer submits.
type Draft struct {
	Items         []Item
	Total         float64
	PaymentMethod PaymentMethod
	OrderNumber   string
	Timestamp     *time.Time
}
