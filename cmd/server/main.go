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

	appaccess "github.com/netpass/backend/internal/application/access"
	apppayment "github.com/netpass/backend/internal/application/payment"
	"github.com/netpass/backend/internal/infrastructure/cache"
	"github.com/netpass/backend/internal/infrastructure/config"
	"github.com/netpass/backend/internal/infrastructure/device"
	"github.com/netpass/backend/internal/infrastructure/gateway"
	"github.com/netpass/backend/internal/infrastructure/logger"
	"github.com/netpass/backend/internal/infrastructure/persistence"
	"github.com/netpass/backend/internal/interfaces/http/handler"
	"github.com/netpass/backend/internal/interfaces/http/middleware"
	"github.com/netpass/backend/internal/interfaces/http/router"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting netpass backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Transaction ledger
	ledger := persistence.NewGormTransactionLedger(db.DB)

	// Processed-notification store
	dedupStore, err := cache.NewDedupStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize dedup store", zap.Error(err))
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing dedup store", zap.Error(err))
		}
	}()
	log.Info("Dedup store ready", zap.String("backend", cfg.Admission.DedupBackend))

	// Payment gateway client
	paymentGateway := gateway.NewMercadoPagoAdapter(cfg.Gateway)

	// Network device client with retry wrapper
	routerDevice := device.NewRouterOSAdapter(cfg.Device)
	admission := appaccess.NewAdmissionService(appaccess.AdmissionServiceConfig{
		Device:      routerDevice,
		Attempts:    cfg.Device.RetryAttempts,
		Backoff:     cfg.Device.RetryBackoff,
		CallTimeout: cfg.Device.Timeout,
		Logger:      log,
	})

	// Revocation scheduler, device-side when the router supports it
	revocations := appaccess.NewRevocationScheduler(admission, log)
	defer func() {
		if err := revocations.Close(); err != nil {
			log.Error("Error closing revocation scheduler", zap.Error(err))
		}
	}()

	// Application services
	notificationService := appaccess.NewNotificationService(appaccess.NotificationServiceConfig{
		Gateway:    paymentGateway,
		Ledger:     ledger,
		Resolver:   ledger,
		Admission:  admission,
		Scheduler:  revocations,
		DedupStore: dedupStore,
		DedupTTL:   cfg.Admission.DedupTTL,
		Logger:     log,
	})
	checkoutService := apppayment.NewCheckoutService(apppayment.CheckoutServiceConfig{
		Gateway:              paymentGateway,
		Ledger:               ledger,
		DefaultGrantDuration: cfg.Admission.DefaultGrantDuration,
		Logger:               log,
	})

	// HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	systemHandler := handler.NewSystemHandler(db, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Register the clientid binding rule before any request is parsed
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack in order: request id, panic recovery, request logging,
	// CORS, body size limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", systemHandler.Health)

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	checkoutRoutes := router.NewDomainGroup("checkout", "/checkout")
	checkoutRoutes.POST("/payments", checkoutHandler.ProcessCardPayment)
	checkoutRoutes.POST("/pix", checkoutHandler.GeneratePix)
	checkoutRoutes.POST("/payment-methods/search", checkoutHandler.SearchPaymentMethods)
	r.Register(checkoutRoutes)

	notificationRoutes := router.NewDomainGroup("notifications", "/notifications")
	notificationRoutes.POST("/payment", notificationHandler.Receive)
	r.Register(notificationRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
