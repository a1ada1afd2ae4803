package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/grpc/server"
	"github.com/seu-repo/sigec-route/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/sigec-route/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-route/internal/adapter/queue"
	"github.com/seu-repo/sigec-route/internal/adapter/storage/postgres"
	"github.com/seu-repo/sigec-route/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/sigec-route/internal/adapter/websocket"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
	"github.com/seu-repo/sigec-route/internal/ports"
	"github.com/seu-repo/sigec-route/internal/service/auth"
	"github.com/seu-repo/sigec-route/internal/service/catalog"
	"github.com/seu-repo/sigec-route/internal/service/health"
	"github.com/seu-repo/sigec-route/internal/service/pricing"
	"github.com/seu-repo/sigec-route/internal/service/recommendation"
	"github.com/seu-repo/sigec-route/internal/service/scoring"
	"github.com/seu-repo/sigec-route/internal/service/trip"
	"github.com/seu-repo/sigec-route/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting SIGEC Route",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Secrets from Vault override the plain config
	if cfg.Vault.Enabled {
		loadSecrets(ctx, cfg, logger)
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(telemetry.TracerConfig{
			ServiceName:    cfg.OpenTelemetry.ServiceName,
			ServiceVersion: cfg.App.Version,
			Endpoint:       cfg.OpenTelemetry.Jaeger.Endpoint,
			SampleRatio:    cfg.OpenTelemetry.Jaeger.SamplerParam,
		})
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL (optional)
	var (
		sqlDB       *sql.DB
		stationRepo ports.StationRepository
		tripRepo    ports.TripRepository
	)
	if cfg.Database.URL != "" {
		db, err := postgres.NewConnection(cfg.Database.URL, postgres.Options{
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			Debug:           cfg.Database.LogQueries,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer postgres.Close(db)

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		if sqlDB, err = db.DB(); err != nil {
			logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
		}

		stationRepo = postgres.NewStationRepository(db, logger)
		tripRepo = postgres.NewTripRepository(db, logger)
	} else {
		logger.Info("No database configured, saved trips disabled")
	}

	// 6. Initialize Cache
	appCache := newCache(cfg, logger)
	defer appCache.Close()

	// 7. Initialize Message Queue
	messageQueue, err := queue.New(queue.Config{
		Provider:      cfg.Queue.Provider,
		URL:           cfg.Queue.URL,
		Name:          cfg.Queue.Name,
		MaxReconnects: cfg.Queue.MaxReconnects,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 8. Initialize WebSocket Hub (live station status)
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(ctx)

	// 9. Station Catalog
	var source catalog.Source
	fileSource := catalog.NewFileSource(cfg.Catalog.Path)
	switch cfg.Catalog.Source {
	case "postgres":
		if stationRepo == nil {
			logger.Fatal("Postgres catalog source requires a database")
		}
		if cfg.Catalog.SeedDatabase {
			if _, err := catalog.Seed(ctx, stationRepo, fileSource, logger); err != nil {
				logger.Fatal("Failed to seed station table", zap.Error(err))
			}
		}
		source = catalog.NewRepositorySource(stationRepo, breakerConfig(cfg.CircuitBreaker), logger)
	default:
		source = fileSource
	}

	catalogService := catalog.NewService(&catalog.Config{
		ReloadInterval: cfg.Catalog.ReloadInterval,
		PersistStatus:  cfg.Catalog.PersistStatus,
	}, source, stationRepo, messageQueue, wsHub, logger)
	if err := catalogService.Reload(ctx); err != nil {
		logger.Fatal("Failed to load station catalog", zap.Error(err))
	}
	if err := catalogService.Subscribe(); err != nil {
		logger.Fatal("Failed to subscribe to station status feed", zap.Error(err))
	}
	go catalogService.Run(ctx)

	// 10. Initialize Services (Business Logic Layer)
	scorer := scoring.NewScorer(&scoring.Config{DefaultTopK: cfg.Scoring.TopK}, logger)
	estimator := pricing.NewEstimator(pricingConfig(cfg.Pricing))
	planner := trip.NewPlanner(plannerConfig(cfg.Planner), estimator, logger)

	recCfg, asmCfg := recommendationConfigs(cfg)
	recommendationService := recommendation.NewService(recCfg, catalogService, scorer, estimator,
		recommendation.NewAssembler(asmCfg), appCache, logger)

	tripService := trip.NewService(planner, catalogService, tripRepo, messageQueue, logger)

	authService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer,
		cfg.JWT.AccessTokenDuration, cfg.JWT.RefreshTokenDuration, appCache, logger)

	healthService := health.NewService(&health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB,
		Cache:   appCache,
		Queue:   messageQueue,
		Catalog: catalogService,
	}, logger)

	// 11. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")

	stationHandler := handlers.NewStationHandler(catalogService, recommendationService, logger)
	v1.Get("/stations", stationHandler.List)
	v1.Get("/stations/:id", stationHandler.Get)
	v1.Post("/stations/score", stationHandler.Score)

	v1.Post("/recommendations", handlers.NewRecommendationHandler(recommendationService, logger).Recommend)
	v1.Post("/charging/estimate", handlers.NewChargingHandler(estimator, estimator.Currency(), logger).Estimate)

	tripHandler := handlers.NewTripHandler(tripService, logger)
	v1.Post("/trips/plan", tripHandler.Plan)

	authHandler := handlers.NewAuthHandler(authService, logger)
	v1.Post("/auth/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("", middleware.AuthRequired(authService))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/trips", tripHandler.Save)
	protected.Get("/trips", tripHandler.List)
	protected.Get("/trips/:id", tripHandler.Get)
	protected.Delete("/trips/:id", tripHandler.Delete)

	// Admin routes
	adminHandler := handlers.NewAdminHandler(catalogService, logger)
	admin := protected.Group("/admin", middleware.RequireRole(domain.UserRoleAdmin))
	admin.Post("/catalog/reload", adminHandler.ReloadCatalog)
	admin.Post("/stations/status", adminHandler.UpdateStatus)

	// Live station status WebSocket
	if cfg.Websocket.Enabled {
		app.Use(cfg.Websocket.Path, wsAdapter.Upgrade())
		app.Get(cfg.Websocket.Path, wsHub.Handler())
	}

	// 12. Initialize gRPC Server (health and reflection)
	var grpcServer *server.GRPCServer
	if cfg.GRPC.Enabled {
		grpcServer = server.NewGRPCServer(authService, uint32(cfg.GRPC.MaxConnections), logger)
		go grpcServer.WatchReadiness(ctx, func(ctx context.Context) bool {
			return healthService.Ready(ctx).Ready
		}, 10*time.Second)
		go func() {
			logger.Info("Starting gRPC Server", zap.Int("port", cfg.GRPC.Port))
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
			if err != nil {
				logger.Fatal("Failed to listen for gRPC", zap.Error(err))
			}
			if err := grpcServer.Serve(lis); err != nil {
				logger.Fatal("gRPC Server failed", zap.Error(err))
			}
		}()
	}

	// 13. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 14. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// stops the hub, the catalog reloader and the readiness watcher
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}

	logger.Info("Server exited gracefully")
}

func loadSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.MountPath, cfg.Vault.SecretPath)
	if err != nil {
		logger.Fatal("Failed to create Vault client", zap.Error(err))
	}

	if url, err := sm.GetDatabaseURL(ctx); err == nil {
		cfg.Database.URL = url
	} else {
		logger.Warn("Database URL not found in Vault, keeping config value", zap.Error(err))
	}

	secret, err := sm.GetJWTSecret(ctx)
	if err != nil {
		logger.Fatal("Failed to read JWT secret from Vault", zap.Error(err))
	}
	cfg.JWT.Secret = secret
	logger.Info("Secrets loaded from Vault", zap.String("address", cfg.Vault.Address))
}
