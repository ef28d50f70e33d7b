package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/accounts"
	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
	"github.com/imrishuroy/kitchen-orderflow/internal/idempotency"
	"github.com/imrishuroy/kitchen-orderflow/internal/metrics"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
)

type errorMapping struct {
	target  error
	status  int
	message string
	code    string
}

var errorMappings = []errorMapping{
	{target: auth.ErrUnauthorized, status: http.StatusUnauthorized, message: "Unauthorized"},
	{target: auth.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "Invalid email or password"},
	{target: orders.ErrForbidden, status: http.StatusForbidden, message: "Forbidden - Admin access required"},
	{target: orders.ErrNotFound, status: http.StatusNotFound, message: "Order not found"},
	{target: orders.ErrInvalidStatus, status: http.StatusBadRequest, message: "Invalid status: must be pending, completed or cancelled"},
	{target: orders.ErrInvalidTransition, status: http.StatusConflict, message: "Order status cannot change from its current state"},
	{target: catalog.ErrPriceMismatch, status: http.StatusBadRequest, message: "Order prices do not match the menu"},
	{target: idempotency.ErrInvalidKey, status: http.StatusBadRequest, message: "Invalid Idempotency-Key header"},
	{target: accounts.ErrDuplicateEmail, status: http.StatusConflict, message: "This email is already registered. Please sign in instead.", code: "DUPLICATE_EMAIL"},
	{target: accounts.ErrNoAccount, status: http.StatusNotFound, message: "No account found with this email. Please sign up."},
	{target: accounts.ErrNoResetCode, status: http.StatusBadRequest, message: "Invalid or expired reset code"},
	{target: accounts.ErrResetCodeExpired, status: http.StatusBadRequest, message: "Reset code has expired"},
	{target: accounts.ErrInvalidResetCode, status: http.StatusBadRequest, message: "Invalid reset code"},
	{target: accounts.ErrUserNotFound, status: http.StatusNotFound, message: "User not found"},
}

// respondError writes the client-facing form of err. Errors without a mapping
// are logged and answered with 500 and the fixed fallback message.
func respondError(c *gin.Context, log *zap.Logger, op, fallback string, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			body := gin.H{"error": m.message}
			if m.code != "" {
				body["code"] = m.code
			}
			c.JSON(m.status, body)
			return
		}
	}

	var pe *auth.ProviderError
	if errors.As(err, &pe) && pe.Status >= 400 && pe.Status < 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": pe.Message})
		return
	}

	log.Error(op, zap.Error(err), zap.String("request_id", c.GetString(ctxRequestID)))
	metrics.OperationErrorsTotal.WithLabelValues(op).Inc()
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
