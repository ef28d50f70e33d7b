package main

import "context"

// OrderReindexer repairs the index entries of an order record.
type OrderReindexer interface {
	Reindex(ctx context.Context, key string) (int, error)
}

// OrderMetrics records business metrics for a created order.
type OrderMetrics interface {
	RecordOrder(ctx context.Context, total float64) error
}
