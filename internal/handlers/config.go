package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/accounts"
	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/events"
	"github.com/imrishuroy/kitchen-orderflow/internal/favorites"
	"github.com/imrishuroy/kitchen-orderflow/internal/idempotency"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/payments"
	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	Logger      *zap.Logger
	Auth        auth.Provider
	Orders      *orders.Repository
	Accounts    *accounts.Service
	Favorites   *favorites.Store
	Payments    *payments.Store
	Idempotency *idempotency.Store
	Events      events.Publisher
	// ExposeResetCode returns password reset codes in the response body.
	// Only for development, where no mail delivery exists.
	ExposeResetCode bool
}

// RegisterRoutes registers every API route on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard{}
	}
	v := validation.New()

	registerMenuRoutes(r)
	registerAccountRoutes(r, cfg, v)
	registerFavoritesRoutes(r, cfg, v)
	registerOrdersRoutes(r, cfg, v)
	registerPaymentRoutes(r, cfg, v)
}
