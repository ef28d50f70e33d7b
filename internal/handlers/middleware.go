package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
)

const (
	requestIDHeader = "X-Request-Id"
	ctxRequestID    = "request_id"
	ctxIdentity     = "identity"
)

// RequestID propagates X-Request-Id, generating one when the caller sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger logs one line per request.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// requireAuth resolves the bearer token to an identity or aborts with 401.
func requireAuth(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := cfg.Auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			cfg.Logger.Error("authenticate", zap.Error(err), zap.String("request_id", c.GetString(ctxRequestID)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
			return
		}
		c.Set(ctxIdentity, *id)
		c.Next()
	}
}

// optionalAuth attaches an identity when a valid token is present and never aborts.
func optionalAuth(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := auth.BearerToken(c.GetHeader("Authorization")); token != "" {
			if id, err := cfg.Auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ctxIdentity, *id)
			}
		}
		c.Next()
	}
}

// requireAdmin aborts with 403 unless the identity carries the administrator flag.
// It must run after requireAuth.
func requireAdmin(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := cfg.Orders.IsAdmin(c.Request.Context(), identity(c).ID)
		if err != nil {
			respondError(c, cfg.Logger, "check_admin", "Failed to check permissions", err)
			c.Abort()
			return
		}
		if !ok {
			respondError(c, cfg.Logger, "check_admin", "", orders.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	id, _ := c.Get(ctxIdentity)
	ident, _ := id.(auth.Identity)
	return ident
}
