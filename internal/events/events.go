// Package events defines the order lifecycle messages exchanged between the
// API and the worker over SQS.
package events

import "context"

const (
	TypeOrderCreated = "order.created"
	// TypeOrderReindex is published when an order record was written but one
	// of its index appends failed.
	TypeOrderReindex = "order.reindex"
)

// OrderEvent is the payload sent from API -> SQS -> Worker.
type OrderEvent struct {
	Type          string  `json:"type"`
	OrderKey      string  `json:"order_key"`
	UserID        string  `json:"user_id"`
	Total         float64 `json:"total,omitempty"`
	CorrelationID string  `json:"correlation_id,omitempty"`
}

// Publisher delivers order events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Discard drops every event. Used when no queue is configured.
type Discard struct{}

func (Discard) Publish(context.Context, OrderEvent) error { return nil }
