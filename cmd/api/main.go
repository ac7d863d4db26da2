package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/realty-service/internal/api/http"
	"github.com/spec-kit/realty-service/internal/api/http/handlers"
	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/cache"
	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/events"
	"github.com/spec-kit/realty-service/internal/observability"
	"github.com/spec-kit/realty-service/internal/persistence"
	"github.com/spec-kit/realty-service/internal/repository"
	"github.com/spec-kit/realty-service/internal/repository/memory"
	"github.com/spec-kit/realty-service/internal/service"
	"github.com/spec-kit/realty-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		companyRepo repository.CompanyRepository
		ratingRepo  repository.RatingRepository
	)
	if pg.Enabled() {
		companyRepo = repository.NewCompanyRepository(pg.PoolHandle())
		ratingRepo = repository.NewRatingRepository(pg.PoolHandle())
	} else {
		companyRepo = memory.NewCompanyStore()
		ratingRepo = memory.NewRatingStore(companyRepo)
	}

	var aggregateCache service.AggregateCache
	if c := cache.NewAggregateCache(redis.Client, cfg.Rating.CacheTTL()); c != nil {
		aggregateCache = c
	}

	dispatcher := worker.NewQueuedDispatcher(events.NewInMemoryDispatcher(logger), worker.DefaultQueueSize, worker.DefaultWorkers, logger)
	publisher := events.NewKafkaPublisher(cfg.Kafka, logger)
	defer publisher.Close() //nolint:errcheck
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notificationService, publisher)

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	ratingService := service.NewRatingService(service.RatingDependencies{
		RatingRepo: ratingRepo,
		Subjects:   companyRepo,
		Cache:      aggregateCache,
		Dispatcher: dispatcher,
		Operators:  cfg.Auth.OperatorIDs(),
		Retry:      cfg.Retry,
		Logger:     logger,
	})
	companyService := service.NewCompanyService(service.CompanyDependencies{
		CompanyRepo: companyRepo,
		Aggregates:  ratingService,
		Hasher:      hasher,
		Dispatcher:  dispatcher,
		Retry:       cfg.Retry,
		Logger:      logger,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Companies: companyService,
		Tokens:    tokens,
		Hasher:    hasher,
		Logger:    logger,
	})

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := []handlers.Dependency{{Name: "datastore", Pinger: companyService}}
	if redis.Enabled() {
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: redis})
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps...),
		Companies:      handlers.NewCompanyHandler(companyService),
		Agents:         handlers.NewAgentHandler(companyService, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Ratings:        handlers.NewRatingHandler(ratingService, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("event queue drain", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
