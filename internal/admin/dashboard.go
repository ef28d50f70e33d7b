// Package admin is the operator dashboard: it polls the global order list,
// announces new orders and moves orders between statuses.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/storefront"
)

// DefaultInterval is how often Run refreshes the order list.
const DefaultInterval = 30 * time.Second

// FilterAll matches every order. Any other filter is a status.
const FilterAll = "all"

// API is the slice of the HTTP client the dashboard needs.
type API interface {
	AdminOrders(ctx context.Context) ([]orders.Order, error)
	UpdateOrderStatus(ctx context.Context, key, status string) (*orders.Order, error)
}

// PollState remembers the order count from the last successful poll.
// Established is false until the first poll succeeds, so an initial load
// never announces the whole backlog as new.
type PollState struct {
	Count       int
	Established bool
}

type Dashboard struct {
	api      API
	notify   storefront.Notifier
	log      *zap.Logger
	interval time.Duration

	mu     sync.Mutex
	state  PollState
	orders []orders.Order
}

type Option func(*Dashboard)

func WithInterval(d time.Duration) Option {
	return func(db *Dashboard) {
		if d > 0 {
			db.interval = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(db *Dashboard) {
		if l != nil {
			db.log = l
		}
	}
}

func NewDashboard(api API, notify storefront.Notifier, opts ...Option) *Dashboard {
	db := &Dashboard{api: api, notify: notify, log: zap.NewNop(), interval: DefaultInterval}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Run polls immediately and then every interval until ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	d.Poll(ctx)
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			d.Poll(ctx)
		}
	}
}

// Poll refreshes the order list. When the count grew since the last
// successful poll, the difference is announced.
func (d *Dashboard) Poll(ctx context.Context) {
	list, err := d.api.AdminOrders(ctx)
	if err != nil {
		d.log.Warn("poll orders failed", zap.Error(err))
		d.notify.Notify(storefront.LevelError, "Failed to load orders")
		return
	}

	d.mu.Lock()
	prev := d.state
	d.orders = list
	d.state = PollState{Count: len(list), Established: true}
	d.mu.Unlock()

	if prev.Established && len(list) > prev.Count {
		d.notify.Notify(storefront.LevelSuccess, newOrdersMessage(len(list)-prev.Count))
	}
}

func newOrdersMessage(n int) string {
	if n == 1 {
		return "1 new order received!"
	}
	return fmt.Sprintf("%d new orders received!", n)
}

// State returns the last poll state.
func (d *Dashboard) State() PollState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Filtered returns the cached orders matching filter.
func (d *Dashboard) Filtered(filter string) []orders.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]orders.Order, 0, len(d.orders))
	for _, o := range d.orders {
		if filter == "" || filter == FilterAll || o.Status == filter {
			out = append(out, o)
		}
	}
	return out
}

// SetStatus changes one order's status and reloads the list on success.
func (d *Dashboard) SetStatus(ctx context.Context, key, status string) (*orders.Order, error) {
	o, err := d.api.UpdateOrderStatus(ctx, key, status)
	if err != nil {
		d.log.Warn("update order status failed", zap.String("order_key", key), zap.Error(err))
		d.notify.Notify(storefront.LevelError, "Failed to update order status")
		return nil, err
	}
	d.notify.Notify(storefront.LevelSuccess, "Order status updated")
	d.Poll(ctx)
	return o, nil
}
