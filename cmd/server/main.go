package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	returnsapp "github.com/stockroom/backend/internal/application/returns"
	stockapp "github.com/stockroom/backend/internal/application/stock"
	"github.com/stockroom/backend/internal/domain/order"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/infrastructure/cache"
	"github.com/stockroom/backend/internal/infrastructure/config"
	"github.com/stockroom/backend/internal/infrastructure/event"
	"github.com/stockroom/backend/internal/infrastructure/logger"
	"github.com/stockroom/backend/internal/infrastructure/persistence"
	"github.com/stockroom/backend/internal/interfaces/http/handler"
	"github.com/stockroom/backend/internal/interfaces/http/middleware"
	"github.com/stockroom/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

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

	log.Info("Starting Stockroom Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with a zap-backed GORM logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories used outside transaction scopes
	locationRepo := persistence.NewGormStockLocationRepository(db.DB)
	lockRepo := persistence.NewGormReservationLockRepository(db.DB)

	// Transaction scopes bundle the repositories each workflow mutates so a
	// single GORM transaction covers the whole operation
	stockTxScope := persistence.NewGormStockTransactionScope(db.DB)
	returnsTxScope := persistence.NewGormReturnsTransactionScope(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Idempotency store: Redis when reachable so duplicate suppression spans
	// instances, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		memStore := cache.NewInMemoryIdempotencyStore()
		defer func() {
			_ = memStore.Close()
		}()
		idempotencyStore = memStore
	} else {
		log.Info("Redis idempotency store connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		idempotencyStore = redisStore
	}

	// Return window fallback for order lines that carry none
	order.DefaultMaxReturnDays = cfg.Returns.MaxReturnDays

	// Initialize application services
	stockService := stockapp.NewStockService(locationRepo, eventBus, log)
	allocationService := stockapp.NewAllocationService(stockTxScope, idempotencyStore, eventBus, log)
	allocationService.SetIdempotencyTTL(cfg.Idempotency.TTL)
	reservationService := stockapp.NewReservationService(stockTxScope, eventBus, log, cfg.Reservation.DefaultTTL)
	expirationService := stockapp.NewReservationExpirationService(lockRepo, eventBus, log)

	notifier := returnsapp.NewLoggingNotifier(log)
	returnService := returnsapp.NewReturnService(returnsTxScope, eventBus, notifier, log)
	pickupService := returnsapp.NewPickupService(returnsTxScope, idempotencyStore, eventBus, notifier, log)
	pickupService.SetIdempotencyTTL(cfg.Idempotency.TTL)

	// Background sweeper for expired reservation locks
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Reservation.AutoReleaseEnabled {
		go expirationService.Run(sweeperCtx, cfg.Reservation.CheckInterval)
		log.Info("Reservation expiration sweeper started",
			zap.Duration("check_interval", cfg.Reservation.CheckInterval),
			zap.Duration("default_ttl", cfg.Reservation.DefaultTTL),
		)
	}

	// Initialize HTTP handlers
	stockHandler := handler.NewStockHandler(stockService, allocationService, reservationService, expirationService)
	returnsHandler := handler.NewReturnsHandler(returnService, pickupService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS, body size limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Stock domain: batch ledger, allocations, cart reservations
	stockRoutes := router.NewDomainGroup("stock", "/stock")
	stockRoutes.POST("/batches", stockHandler.ReceiveBatch)
	stockRoutes.GET("/locations/:id", stockHandler.GetLocation)
	stockRoutes.GET("/locations/:id/availability", stockHandler.Availability)
	stockRoutes.POST("/locations/:id/batches/:batch_id/recall", stockHandler.RecallBatch)
	stockRoutes.POST("/allocations", stockHandler.Allocate)
	stockRoutes.POST("/reservations", stockHandler.AcquireReservation)
	stockRoutes.DELETE("/reservations/:id", stockHandler.ReleaseReservation)
	stockRoutes.POST("/reservations/release-expired", stockHandler.ReleaseExpiredReservations)

	// Returns domain: request lifecycle, pickup delivery flow, appeals
	returnsRoutes := router.NewDomainGroup("returns", "/returns")
	returnsRoutes.POST("", returnsHandler.Submit)
	returnsRoutes.GET("", returnsHandler.List)
	returnsRoutes.GET("/:id", returnsHandler.Get)
	returnsRoutes.POST("/:id/decision", returnsHandler.Decide)
	returnsRoutes.POST("/:id/agent", returnsHandler.AssignAgent)
	returnsRoutes.POST("/:id/pickup/schedule", returnsHandler.SchedulePickup)
	returnsRoutes.POST("/:id/pickup/start", returnsHandler.StartPickup)
	returnsRoutes.POST("/:id/pickup/fail", returnsHandler.FailPickup)
	returnsRoutes.POST("/:id/pickup/cancel", returnsHandler.CancelPickup)
	returnsRoutes.POST("/:id/pickup/complete", returnsHandler.ProcessPickup)
	returnsRoutes.POST("/:id/appeal", returnsHandler.OpenAppeal)
	returnsRoutes.POST("/:id/appeal/decision", returnsHandler.DecideAppeal)
	returnsRoutes.POST("/:id/refund", returnsHandler.MarkRefund)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	systemRoutes.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name": cfg.App.Name,
			"env":  cfg.App.Env,
		})
	})

	r.Register(stockRoutes).
		Register(returnsRoutes).
		Register(systemRoutes)

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

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
