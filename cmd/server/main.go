package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridepay/internal/app"
	"ridepay/internal/broker"
	"ridepay/internal/config"
	"ridepay/internal/handler"
	"ridepay/internal/jobs"
	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository/postgres"
	"ridepay/internal/service"
)

const jobTimeout = 5 * time.Minute

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Error("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// runCtx lives until shutdown and bounds background reconnects.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Fare events go to RabbitMQ when enabled.
	var publisher broker.Publisher = broker.NewNoopPublisher(logger)
	if cfg.RabbitMQ.Enabled {
		mq, err := broker.NewRabbitMQ(runCtx, cfg.RabbitMQ, logger)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		publisher = mq
		logger.Info("connected to RabbitMQ", "exchange", cfg.RabbitMQ.Exchange)
	}
	defer publisher.Close()

	// Wire dependencies.
	server, scheduler, err := wireServer(db, redisClient, publisher, nrApp, cfg, logger)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}

	if scheduler != nil {
		scheduler.Start()
		logger.Info("background jobs started")
	}

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("background jobs still running at shutdown")
		}
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and, when
// jobs are enabled, the job scheduler.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher broker.Publisher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *slog.Logger,
) (*http.Server, *jobs.Scheduler, error) {
	loc := cfg.Fare.Location()

	// Initialize Redis stores.
	sessionStore := internalRedis.NewSessionStore(redisClient, cfg.Fare.SessionTTL)
	lockStore := internalRedis.NewLockStore(redisClient)
	reconcileQueue := internalRedis.NewReconcileQueue(redisClient)

	var snapshotCache internalRedis.SnapshotCacheInterface
	if cfg.Fare.SnapshotCacheTTL > 0 {
		snapshotCache = internalRedis.NewSnapshotCache(redisClient, cfg.Fare.SnapshotCacheTTL)
	}

	// Initialize repositories.
	cardRepo := postgres.NewCardRepository(db)
	passengerRepo := postgres.NewPassengerRepository(db)
	busRepo := postgres.NewBusRepository(db)
	tariffRepo := postgres.NewTariffRepository(db)
	discountRepo := postgres.NewDiscountRepository(db)
	promotionRepo := postgres.NewPromotionRepository(db)
	txnRepo := postgres.NewTransactionRepository(db)

	// Initialize services.
	events := service.NewEventService(publisher, logger)
	recorder, err := service.NewTransactionRecorder(txnRepo, cfg.Fare.NodeID, reconcileQueue, events, logger)
	if err != nil {
		return nil, nil, err
	}
	ledger := service.NewBalanceLedger(passengerRepo, cfg.Fare.DebitMaxAttempts)
	driverService := service.NewDriverService(busRepo, events, logger)
	topUpService := service.NewTopUpService(ledger, recorder, events, cfg.Fare.Organization)
	tapService := service.NewTapService(service.TapServiceDeps{
		Identity:      service.NewIdentityResolver(cardRepo, passengerRepo),
		Tariffs:       service.NewTariffResolver(tariffRepo, snapshotCache, logger),
		Pricing:       service.NewPricingEngine(discountRepo, promotionRepo, snapshotCache, loc, logger),
		Ledger:        ledger,
		Recorder:      recorder,
		Sessions:      sessionStore,
		BusRepo:       busRepo,
		PassengerRepo: passengerRepo,
		Events:        events,
		Logger:        logger,
		Organization:  cfg.Fare.Organization,
	})

	// Initialize background jobs.
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(loc, jobTimeout, logger)
		if err := scheduler.Register(cfg.Jobs.ReconcileSchedule, jobs.NewReconcileJob(reconcileQueue, txnRepo, lockStore, logger)); err != nil {
			return nil, nil, err
		}
		if err := scheduler.Register(cfg.Jobs.DiscountExpirySchedule, jobs.NewDiscountExpiryJob(passengerRepo, logger)); err != nil {
			return nil, nil, err
		}
	}

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TapHandler:         handler.NewTapHandler(tapService, driverService),
		TopUpHandler:       handler.NewTopUpHandler(topUpService),
		TransactionHandler: handler.NewTransactionHandler(recorder),
		BusHandler:         handler.NewBusHandler(driverService),
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
		Logger:             logger,
		DeviceTokenSecret:  cfg.Auth.DeviceTokenSecret,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, scheduler, nil
}
