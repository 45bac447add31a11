package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityapp "github.com/chakravyuh/backend/internal/application/identity"
	"github.com/chakravyuh/backend/internal/application/notification"
	paymentapp "github.com/chakravyuh/backend/internal/application/payment"
	registrationapp "github.com/chakravyuh/backend/internal/application/registration"
	"github.com/chakravyuh/backend/internal/infrastructure/auth"
	"github.com/chakravyuh/backend/internal/infrastructure/config"
	"github.com/chakravyuh/backend/internal/infrastructure/gateway"
	"github.com/chakravyuh/backend/internal/infrastructure/logger"
	"github.com/chakravyuh/backend/internal/infrastructure/mailer"
	"github.com/chakravyuh/backend/internal/infrastructure/persistence"
	"github.com/chakravyuh/backend/internal/infrastructure/qr"
	"github.com/chakravyuh/backend/internal/interfaces/http/handler"
	"github.com/chakravyuh/backend/internal/interfaces/http/middleware"
	"github.com/chakravyuh/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Chakravyuh backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	registrationRepo := persistence.NewGormRegistrationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Auth: JWT plus a token blacklist for logout. Redis when configured,
	// in-process otherwise.
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisBlacklist.Close()
		}()
		blacklist = redisBlacklist
		log.Info("Redis token blacklist enabled")
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Payment gateway
	razorpay, err := gateway.NewRazorpayAdapter(gateway.RazorpayConfig{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
	})
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Outbound email
	smtpMailer := mailer.NewSMTPMailer(cfg.Email)
	if !smtpMailer.IsConfigured() {
		log.Warn("Email sender not configured, notifications will be skipped")
	}
	dispatcher := notification.NewDispatcher(smtpMailer, notification.Links{
		FrontendURL:   cfg.URLs.FrontendURL,
		PublicBaseURL: cfg.URLs.PublicBaseURL,
	}, log)

	// Application services
	registrationService := registrationapp.NewService(registrationRepo, dispatcher, cfg.Payment, log)
	paymentService := paymentapp.NewService(
		registrationRepo,
		razorpay,
		qr.NewPNGGenerator(),
		dispatcher,
		cfg.Payment.KeyID,
		cfg.URLs.PublicBaseURL,
		log,
	)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, cfg.Admin.SetupKey, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	router.Setup(engine, router.Config{
		Registration: handler.NewRegistrationHandler(registrationService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Admin:        handler.NewAdminHandler(authService),
		QRPass:       handler.NewQRPassHandler(registrationService, log),
		JWTService:   jwtService,
		Blacklist:    blacklist,
		Logger:       log,
		HealthPing:   db.Ping,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight notification sends finish before exiting.
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn("Notification dispatcher did not drain in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
