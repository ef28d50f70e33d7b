package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/events"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
)

// Processor handles order events delivered over SQS.
type Processor struct {
	orders  OrderReindexer
	metrics OrderMetrics
	log     *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(reindexer OrderReindexer, m OrderMetrics, log *zap.Logger) *Processor {
	return &Processor{orders: reindexer, metrics: m, log: log}
}

// Handle processes an SQS batch. The first failure is returned so Lambda
// redelivers the batch; after enough failures the message goes to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev lambdaevents.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec lambdaevents.SQSMessage) error {
	var msg events.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderKey == "" {
		return fmt.Errorf("message %s has no order key", rec.MessageId)
	}

	log := p.log.With(
		zap.String("type", msg.Type),
		zap.String("order_key", msg.OrderKey),
		zap.String("correlation_id", msg.CorrelationID),
	)

	switch msg.Type {
	case events.TypeOrderCreated:
		if err := p.metrics.RecordOrder(ctx, msg.Total); err != nil {
			return fmt.Errorf("record order metrics: %w", err)
		}
		log.Info("recorded order metrics", zap.Float64("total", msg.Total))
		return nil

	case events.TypeOrderReindex:
		added, err := p.orders.Reindex(ctx, msg.OrderKey)
		if errors.Is(err, orders.ErrNotFound) {
			// no record means nothing to index; redelivery cannot help
			log.Warn("reindex skipped, order record missing")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reindex %s: %w", msg.OrderKey, err)
		}
		log.Info("reindexed order", zap.Int("entries_added", added))
		return nil

	default:
		log.Warn("ignoring unknown event type")
		return nil
	}
}
