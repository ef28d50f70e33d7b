package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

const resetRequestedMessage = "If the email exists, a reset code has been sent."

func registerAccountRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	r.POST("/signup", func(c *gin.Context) {
		var req validation.SignupRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		res, err := cfg.Accounts.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			respondError(c, cfg.Logger, "signup", "Failed to create account", err)
			return
		}
		msg := "Account verified successfully. You can now sign in."
		if res.Created {
			msg = "Account created successfully. You can now sign in."
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "userId": res.UserID})
	})

	r.POST("/fix-account", func(c *gin.Context) {
		var req validation.EmailRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		id, err := cfg.Accounts.FixAccount(c.Request.Context(), req.Email)
		if err != nil {
			respondError(c, cfg.Logger, "fix_account", "Failed to fix account", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Account verified successfully. You can now sign in.", "userId": id})
	})

	r.POST("/login", func(c *gin.Context) {
		var req validation.LoginRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		token, err := cfg.Accounts.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, cfg.Logger, "login", "Failed to sign in", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accessToken": token})
	})

	r.GET("/profile", requireAuth(cfg), func(c *gin.Context) {
		view, err := cfg.Accounts.Profile(c.Request.Context(), identity(c))
		if err != nil {
			respondError(c, cfg.Logger, "get_profile", "Failed to get profile", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"profile": view})
	})

	r.POST("/request-password-reset", func(c *gin.Context) {
		var req validation.EmailRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		code, err := cfg.Accounts.RequestPasswordReset(c.Request.Context(), req.Email)
		if err != nil {
			respondError(c, cfg.Logger, "request_password_reset", "Failed to request password reset", err)
			return
		}
		body := gin.H{"message": resetRequestedMessage}
		if code != "" && cfg.ExposeResetCode {
			cfg.Logger.Debug("password reset code issued", zap.String("email", req.Email))
			body["resetCode"] = code
		}
		c.JSON(http.StatusOK, body)
	})

	r.POST("/reset-password", func(c *gin.Context) {
		var req validation.ResetPasswordRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if err := cfg.Accounts.ResetPassword(c.Request.Context(), req.Email, req.ResetCode, req.NewPassword); err != nil {
			respondError(c, cfg.Logger, "reset_password", "Failed to reset password", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
	})
}
