package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chakravyuh/backend/internal/infrastructure/auth"
	"github.com/chakravyuh/backend/internal/interfaces/http/handler"
	"github.com/chakravyuh/backend/internal/interfaces/http/middleware"
)

// Config wires handlers and auth services into the route tree
type Config struct {
	Registration *handler.RegistrationHandler
	Payment      *handler.PaymentHandler
	Admin        *handler.AdminHandler
	QRPass       *handler.QRPassHandler

	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist
	Logger     *zap.Logger

	// HealthPing probes the database for the health endpoint. Nil means
	// the endpoint reports healthy unconditionally.
	HealthPing func() error
}

// Setup registers all API routes on the engine. Public endpoints carry no
// auth; admin endpoints require a valid admin session token.
func Setup(engine *gin.Engine, cfg Config) {
	engine.GET("/health", healthHandler(cfg.HealthPing))

	api := engine.Group("/api/v1")
	requireAdmin := []gin.HandlerFunc{
		middleware.RequireAuth(cfg.JWTService, cfg.Blacklist, cfg.Logger),
		middleware.RequireAdmin(),
	}

	registrations := api.Group("/registrations")
	{
		registrations.POST("", cfg.Registration.Create)
		registrations.GET("/qr/:registrationId", cfg.QRPass.Show)
		registrations.POST("/:id/upi-proof", cfg.Payment.SubmitProof)

		registrations.GET("", append(requireAdmin, cfg.Registration.List)...)
		registrations.GET("/ieee-certificates", append(requireAdmin, cfg.Registration.ListIEEEMembers)...)
		registrations.GET("/:id/ieee-certificate", append(requireAdmin, cfg.Registration.Certificate)...)
		registrations.GET("/:id/payment-screenshot", append(requireAdmin, cfg.Registration.Screenshot)...)
		registrations.POST("/:id/final-approve", append(requireAdmin, cfg.Payment.FinalApprove)...)
		registrations.POST("/:id/reject", append(requireAdmin, cfg.Payment.Reject)...)

		// Registered last so fixed paths above win over the wildcard.
		registrations.GET("/:id", cfg.Registration.Get)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/order", cfg.Payment.CreateOrder)
		payments.POST("/verify", cfg.Payment.Verify)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/setup", cfg.Admin.SetupStatus)
		admin.POST("/setup", cfg.Admin.Setup)
		admin.POST("/login", cfg.Admin.Login)

		authed := admin.Group("")
		authed.Use(middleware.RequireAuth(cfg.JWTService, cfg.Blacklist, cfg.Logger))
		authed.GET("/me", cfg.Admin.Me)
		authed.POST("/logout", cfg.Admin.Logout)

		authed.GET("/registrations", middleware.RequireAdmin(), cfg.Registration.List)
		authed.GET("/registrations/:id", middleware.RequireAdmin(), cfg.Registration.Get)
	}
}

func healthHandler(ping func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": "error",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
