package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/payments"
	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

func registerPaymentRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	// the token is optional here; details are the same for everyone
	r.GET("/payment-details", optionalAuth(cfg), func(c *gin.Context) {
		d, err := cfg.Payments.Get(c.Request.Context())
		if err != nil {
			respondError(c, cfg.Logger, "get_payment_details", "Failed to get payment details", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": d})
	})

	r.POST("/payment-details", requireAuth(cfg), requireAdmin(cfg), func(c *gin.Context) {
		var req validation.PaymentDetailsRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		d := payments.Details{
			BankName:      req.Details.BankName,
			AccountName:   req.Details.AccountName,
			AccountNumber: req.Details.AccountNumber,
		}
		if err := cfg.Payments.Save(c.Request.Context(), d); err != nil {
			respondError(c, cfg.Logger, "update_payment_details", "Failed to update payment details", err)
			return
		}
		cfg.Logger.Info("payment details updated", zap.String("admin_id", identity(c).ID))
		c.JSON(http.StatusOK, gin.H{"message": "Payment details updated successfully"})
	})
}
