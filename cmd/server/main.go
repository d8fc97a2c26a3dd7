package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	billingapp "github.com/bizledger/backend/internal/application/billing"
	eventapp "github.com/bizledger/backend/internal/application/event"
	jobcostapp "github.com/bizledger/backend/internal/application/jobcost"
	reportapp "github.com/bizledger/backend/internal/application/report"
	tenantapp "github.com/bizledger/backend/internal/application/tenant"
	"github.com/bizledger/backend/internal/infrastructure/cache"
	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/bizledger/backend/internal/infrastructure/event"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/bizledger/backend/internal/interfaces/http/handler"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
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

	log.Info("Starting BizLedger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterDomainEvents(eventSerializer)

	// Outbox publisher writes events inside the repositories' transactions
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB, outboxPublisher)
	documentRepo := persistence.NewGormDocumentRepository(db.DB, outboxPublisher, log)
	costRecordRepo := persistence.NewGormCostRecordRepository(db.DB)
	statsRepo := persistence.NewGormStatsRepository(db.DB)

	// Initialize cache layer
	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	cacheStore, err := cache.NewStore(cfg.Cache, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize cache store", zap.Error(err))
	}
	invalidator := cache.NewInvalidator(cacheStore, log)
	log.Info("Cache layer initialized",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("default_ttl", cfg.Cache.DefaultTTL),
	)

	// Initialize application services
	tenantService := tenantapp.NewTenantService(tenantRepo, invalidator, log)
	documentService := billingapp.NewDocumentService(documentRepo, tenantRepo, invalidator, log)
	costRecordService := jobcostapp.NewCostRecordService(costRecordRepo, tenantRepo, invalidator, log)
	statsService := reportapp.NewStatsService(tenantRepo, statsRepo, cacheStore, cfg.Cache.DefaultTTL, log)
	globalStatsService := reportapp.NewGlobalStatsService(tenantRepo, statsRepo, cacheStore, cfg.Cache.DefaultTTL, log)
	primer := reportapp.NewPrimer(tenantRepo, statsService, globalStatsService, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Initialize event bus and subscribe the document sync handler so
	// approved documents land in job costing
	eventBus := event.NewInMemoryEventBus(log)
	syncHandler := jobcostapp.NewDocumentSyncHandler(costRecordRepo, tenantRepo, invalidator, log)
	eventBus.Subscribe(syncHandler, syncHandler.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("document_sync_events", syncHandler.EventTypes()),
	)

	// Start the outbox processor for guaranteed event delivery
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	}

	// Periodic cache priming for dashboards
	primerCtx, stopPrimer := context.WithCancel(context.Background())
	defer stopPrimer()
	if cfg.Primer.Enabled {
		go runPrimerLoop(primerCtx, primer, cfg.Primer, log)
		log.Info("Cache primer started",
			zap.Int("batch_size", cfg.Primer.BatchSize),
			zap.Duration("interval", cfg.Primer.Interval),
		)
	}

	// Initialize HTTP handlers
	tenantHandler := handler.NewTenantHandler(tenantService)
	documentHandler := handler.NewDocumentHandler(documentService)
	costRecordHandler := handler.NewCostRecordHandler(costRecordService)
	reportHandler := handler.NewReportHandler(statsService, globalStatsService, primer)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
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

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Resolve the caller's tenant for every API route
	r.Use(middleware.TenantMiddleware())

	// Tenant registry (tenant comes from the URL, not the header)
	tenantRoutes := router.NewDomainGroup("tenants", "/tenants")
	tenantRoutes.POST("", tenantHandler.Register)
	tenantRoutes.GET("", tenantHandler.List)
	tenantRoutes.GET("/slug/:slug", tenantHandler.GetBySlug)
	tenantRoutes.GET("/:id", tenantHandler.GetByID)
	tenantRoutes.POST("/:id/suspend", tenantHandler.Suspend)
	tenantRoutes.POST("/:id/activate", tenantHandler.Activate)
	tenantRoutes.POST("/:id/counters/adjust", tenantHandler.AdjustCounters)
	tenantRoutes.POST("/:id/counters/:counter/increment", tenantHandler.IncrementCounter)
	tenantRoutes.POST("/:id/counters/:counter/decrement", tenantHandler.DecrementCounter)

	// Billing domain (quotations and invoices)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/documents", documentHandler.Create)
	billingRoutes.GET("/documents", documentHandler.List)
	billingRoutes.GET("/documents/number/:number", documentHandler.GetByNumber)
	billingRoutes.GET("/documents/:id", documentHandler.GetByID)
	billingRoutes.PUT("/documents/:id", documentHandler.Update)
	billingRoutes.DELETE("/documents/:id", documentHandler.Delete)
	billingRoutes.POST("/documents/:id/approve", documentHandler.Approve)
	billingRoutes.POST("/documents/:id/reject", documentHandler.Reject)
	billingRoutes.POST("/documents/:id/convert", documentHandler.Convert)
	billingRoutes.POST("/documents/:id/payments", documentHandler.RecordPayment)

	// Job costing domain
	jobcostRoutes := router.NewDomainGroup("jobcost", "/jobcost")
	jobcostRoutes.GET("/records", costRecordHandler.List)
	jobcostRoutes.GET("/records/document/:document_no", costRecordHandler.GetByDocumentNo)
	jobcostRoutes.GET("/records/:id", costRecordHandler.GetByID)
	jobcostRoutes.PUT("/records/:id/items/:item_id/cost", costRecordHandler.SetItemCost)
	jobcostRoutes.PUT("/records/:id/expenses", costRecordHandler.ReplaceExpenses)
	jobcostRoutes.DELETE("/records/:id", costRecordHandler.Delete)

	// Reports domain (dashboards, counters, rollups)
	reportRoutes := router.NewDomainGroup("reports", "/reports")
	reportRoutes.GET("/dashboard", reportHandler.GetDashboard)
	reportRoutes.POST("/dashboard/refresh", reportHandler.RefreshDashboard)
	reportRoutes.GET("/counters", reportHandler.GetCounters)
	reportRoutes.GET("/global", reportHandler.GetGlobalStats)
	reportRoutes.POST("/prime", reportHandler.Prime)

	// System domain (info, ping, outbox administration)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/dead-letter", outboxHandler.GetDeadLetterEntries)
	systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	systemRoutes.POST("/outbox/retry-all", outboxHandler.RetryAllDeadEntries)

	r.Register(tenantRoutes).
		Register(billingRoutes).
		Register(jobcostRoutes).
		Register(reportRoutes).
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

	stopPrimer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runPrimerLoop re-primes the dashboard caches on a fixed interval until
// the context is cancelled. The first run happens immediately so caches
// are warm shortly after startup.
func runPrimerLoop(ctx context.Context, primer *reportapp.Primer, cfg config.PrimerConfig, log *zap.Logger) {
	prime := func() {
		report, err := primer.PrimeAll(ctx, cfg.BatchSize)
		if err != nil {
			log.Warn("Cache priming run failed", zap.Error(err))
			return
		}
		log.Debug("Cache priming run finished",
			zap.Int("primed", report.Primed),
			zap.Int("failed", report.Failed),
			zap.Duration("elapsed", report.Elapsed),
		)
	}

	prime()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prime()
		}
	}
}

// healthHandler returns a handler for health check endpoints
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
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			body["db_pool"] = gin.H{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
