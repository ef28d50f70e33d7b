package storefront

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

var ErrEmptyCart = errors.New("cart is empty")

// OrderCreator is the order creation call of the API client.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req validation.CreateOrderRequest, idempotencyKey string) (*orders.Order, error)
}

// Checkout turns a cart into one order creation call.
type Checkout struct {
	api     OrderCreator
	notify  Notifier
	nowFunc func() time.Time
	newKey  func() string
}

func NewCheckout(api OrderCreator, notify Notifier) *Checkout {
	return &Checkout{api: api, notify: notify, nowFunc: time.Now, newKey: uuid.NewString}
}

// Submit places the cart as an order paid from payment. Without a signed-in
// user nothing is sent and the sign-in prompt is raised. On success the cart
// is cleared and the session shows the receipt; on failure the cart is kept
// and the caller may submit again. Retries of an unchanged cart reuse its
// idempotency key, so the server replays rather than duplicates the order.
func (c *Checkout) Submit(ctx context.Context, s *Session, cart *Cart, payment validation.PaymentMethod) (*orders.Order, error) {
	if s.User() == nil {
		s.promptSignIn()
		c.notify.Notify(LevelError, "Please sign in to checkout")
		return nil, ErrSignInRequired
	}
	if cart.Empty() {
		c.notify.Notify(LevelError, "Your cart is empty")
		return nil, ErrEmptyCart
	}

	now := c.nowFunc()
	req := validation.CreateOrderRequest{
		Total:         cart.Total().InexactFloat64(),
		PaymentMethod: payment,
		OrderNumber:   orders.Number(now),
		Timestamp:     &now,
	}
	if req.PaymentMethod.Type == "" {
		req.PaymentMethod.Type = orders.PaymentMethodBankAccount
	}
	for _, l := range cart.Items() {
		req.Items = append(req.Items, validation.OrderItem{
			ID:          l.Item.ID,
			Name:        l.Item.Name,
			Description: l.Item.Description,
			Category:    string(l.Item.Category),
			Price:       l.Item.Price,
			Quantity:    l.Quantity,
		})
	}

	order, err := c.api.CreateOrder(ctx, req, cart.checkoutKey(c.newKey))
	if err != nil {
		c.notify.Notify(LevelError, "Failed to process order")
		return nil, err
	}
	cart.Clear()
	s.showReceipt(order)
	c.notify.Notify(LevelSuccess, "Payment verified successfully!")
	return order, nil
}
