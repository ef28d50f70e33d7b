package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/events"
	"github.com/imrishuroy/kitchen-orderflow/internal/idempotency"
	"github.com/imrishuroy/kitchen-orderflow/internal/metrics"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

const idempotencyHeader = "Idempotency-Key"

func registerOrdersRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	authed := r.Group("/", requireAuth(cfg))

	authed.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()
		user := identity(c)

		// Bind + validate request
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		idemKey := c.GetHeader(idempotencyHeader)
		if idemKey != "" && cfg.Idempotency != nil {
			rec, created, err := cfg.Idempotency.Begin(ctx, user.ID, idemKey)
			if err != nil {
				respondError(c, cfg.Logger, "create_order", "Failed to create order", err)
				return
			}
			if !created {
				replayOrder(c, cfg, rec)
				return
			}
		} else {
			idemKey = ""
		}

		order, err := cfg.Orders.Create(ctx, user, draftFromRequest(req))
		var pw *orders.PartialWriteError
		switch {
		case errors.As(err, &pw):
			// the record exists, so a retry with the same key should see it
			metrics.PartialWritesTotal.Inc()
			completeIdempotency(ctx, cfg, user.ID, idemKey, pw.Key)
			publish(ctx, cfg, c, events.OrderEvent{Type: events.TypeOrderReindex, OrderKey: pw.Key, UserID: user.ID})
			respondError(c, cfg.Logger, "create_order", "Failed to create order", err)
			return
		case err != nil:
			if idemKey != "" {
				if rerr := cfg.Idempotency.Release(ctx, user.ID, idemKey); rerr != nil {
					cfg.Logger.Warn("release idempotency key", zap.Error(rerr))
				}
			}
			respondError(c, cfg.Logger, "create_order", "Failed to create order", err)
			return
		}

		completeIdempotency(ctx, cfg, user.ID, idemKey, order.OrderID)
		metrics.OrdersCreatedTotal.Inc()
		publish(ctx, cfg, c, events.OrderEvent{
			Type:     events.TypeOrderCreated,
			OrderKey: order.OrderID,
			UserID:   user.ID,
			Total:    order.Total,
		})

		c.JSON(http.StatusOK, gin.H{
			"message": "Order created successfully",
			"orderId": order.OrderID,
			"order":   order,
		})
	})

	authed.GET("/orders", func(c *gin.Context) {
		list, err := cfg.Orders.ListForUser(c.Request.Context(), identity(c).ID)
		if err != nil {
			respondError(c, cfg.Logger, "list_orders", "Failed to get orders", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	authed.GET("/admin/orders", func(c *gin.Context) {
		list, err := cfg.Orders.ListAll(c.Request.Context(), identity(c).ID)
		if err != nil {
			respondError(c, cfg.Logger, "list_admin_orders", "Failed to get orders", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	authed.PUT("/admin/orders/:orderId", func(c *gin.Context) {
		var req validation.UpdateStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		order, err := cfg.Orders.UpdateStatus(c.Request.Context(), identity(c).ID, c.Param("orderId"), req.Status)
		if err != nil {
			respondError(c, cfg.Logger, "update_order", "Failed to update order", err)
			return
		}
		metrics.OrderStatusUpdatesTotal.WithLabelValues(order.Status).Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully", "order": order})
	})
}

func replayOrder(c *gin.Context, cfg HandlerConfig, rec *idempotency.Record) {
	if rec.Status == idempotency.StatusInProgress {
		c.JSON(http.StatusAccepted, gin.H{"message": "Request already in progress"})
		return
	}
	order, err := cfg.Orders.Get(c.Request.Context(), rec.OrderKey)
	if err == nil && order == nil {
		err = orders.ErrNotFound
	}
	if err != nil {
		respondError(c, cfg.Logger, "replay_order", "Failed to create order", err)
		return
	}
	metrics.OrdersReplayedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{
		"message": "Order created successfully",
		"orderId": order.OrderID,
		"order":   order,
	})
}

func completeIdempotency(ctx context.Context, cfg HandlerConfig, userID, key, orderKey string) {
	if key == "" {
		return
	}
	if err := cfg.Idempotency.Complete(ctx, userID, key, orderKey); err != nil {
		cfg.Logger.Warn("complete idempotency key", zap.Error(err), zap.String("order_key", orderKey))
	}
}

// publish is best effort: the order is already stored when an event is sent.
func publish(ctx context.Context, cfg HandlerConfig, c *gin.Context, ev events.OrderEvent) {
	ev.CorrelationID = c.GetString(ctxRequestID)
	if err := cfg.Events.Publish(ctx, ev); err != nil {
		cfg.Logger.Warn("publish order event", zap.Error(err), zap.String("type", ev.Type), zap.String("order_key", ev.OrderKey))
		metrics.OperationErrorsTotal.WithLabelValues("publish").Inc()
	}
}

func draftFromRequest(req validation.CreateOrderRequest) orders.Draft {
	items := make([]orders.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = orders.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Category:    it.Category,
			Price:       it.Price,
			Quantity:    it.Quantity,
		}
	}
	return orders.Draft{
		Items: items,
		Total: req.Total,
		PaymentMethod: orders.PaymentMethod{
			Type:          req.PaymentMethod.Type,
			BankName:      req.PaymentMethod.BankName,
			AccountName:   req.PaymentMethod.AccountName,
			AccountNumber: req.PaymentMethod.AccountNumber,
		},
		OrderNumber: req.OrderNumber,
		Timestamp:   req.Timestamp,
	}
}
