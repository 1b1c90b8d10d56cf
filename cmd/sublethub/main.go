package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	consumerRabbitMQ "SubletHubPlatform/internal/consumer/rabbitmq"
	handlerHTTP "SubletHubPlatform/internal/handler/http"
	"SubletHubPlatform/internal/pkg/jwt"
	"SubletHubPlatform/internal/pkg/password"
	producerRabbitMQ "SubletHubPlatform/internal/producer/rabbitmq"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/internal/repository/postgres"
	repoRedis "SubletHubPlatform/internal/repository/redis"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/config"
	"SubletHubPlatform/pkg/database"
	grpcHealth "SubletHubPlatform/pkg/grpc"
	"SubletHubPlatform/pkg/health"
	"SubletHubPlatform/pkg/logger"
	pkgMetrics "SubletHubPlatform/pkg/metrics"
	pkgRabbitMQ "SubletHubPlatform/pkg/rabbitmq"
	"SubletHubPlatform/pkg/ratelimit"
	pkgRedis "SubletHubPlatform/pkg/redis"
)

const (
	serviceName    = "sublethub"
	serviceVersion = "v1.0.0"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	if *configPath == "" {
		*configPath = findConfig()
	}

	cfg, err := config.LoadConfig(*configPath, ".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// findConfig ищет config/config.yaml в рабочей директории и выше; пустая строка означает значения по умолчанию
func findConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "config", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

func run(cfg *config.Config, appLogger logger.Logger) error {
	appLogger.Info("Starting service",
		logger.String("version", serviceVersion),
		logger.String("environment", cfg.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := pkgMetrics.InitializeOpenTelemetry(serviceName, serviceVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	metrics := pkgMetrics.NewMetrics(serviceName)
	checker := health.NewDependencyChecker(serviceVersion, 2*time.Second)

	// Postgres
	db, err := database.Connect(ctx, database.FromAppConfig(cfg.Database), appLogger)
	if err != nil {
		return err
	}
	defer db.Close()
	checker.Register("postgres", db.HealthCheck)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		appLogger.Info("Database migrations applied")
	}

	queryTimeout := config.Duration(cfg.Database.QueryTimeout)
	accounts := postgres.NewAccountRepository(db.Pool, queryTimeout)
	listingRepo := postgres.NewListingRepository(db.Pool, queryTimeout)
	tipRepo := postgres.NewTipRepository(db.Pool, queryTimeout)

	// Redis: кеш объявлений и ограничение частоты запросов
	var (
		cache   repository.ListingCache
		limiter ratelimit.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisClient, err := pkgRedis.Connect(ctx, pkgRedis.FromAppConfig(cfg.Redis), appLogger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		checker.Register("redis", redisClient.HealthCheck)

		cache = repoRedis.NewListingCache(redisClient.Client, config.Duration(cfg.Redis.ListingCacheTTL), metrics)
		limiter = ratelimit.NewRedisRateLimiter(redisClient.Client)
	}

	// RabbitMQ: события чаевых и результаты расчетов
	var (
		publisher service.TipEventPublisher
		consumer  *pkgRabbitMQ.Consumer
	)
	if cfg.RabbitMQ.Enabled {
		rabbitConfig := pkgRabbitMQ.FromAppConfig(cfg.RabbitMQ)
		rabbitConn, err := pkgRabbitMQ.Connect(ctx, rabbitConfig, appLogger)
		if err != nil {
			return err
		}
		defer rabbitConn.Close()
		checker.Register("rabbitmq", rabbitConn.HealthCheck)

		producer := pkgRabbitMQ.NewProducer(rabbitConn, rabbitConfig)
		defer producer.Close()
		publisher = producerRabbitMQ.NewTipEventProducer(producer, producerRabbitMQ.DefaultBreakerSettings(), appLogger)
		consumer = pkgRabbitMQ.NewConsumer(rabbitConn, rabbitConfig, appLogger)
	}

	jwtTTL := config.Duration(cfg.JWT.TokenTTL)
	tokens := jwt.NewManager(cfg.JWT.Secret, jwtTTL, cfg.JWT.Issuer, nil)
	access := service.NewAccessService(tokens, listingRepo)
	tips := service.NewTipService(tipRepo, listingRepo, publisher, metrics, nil, appLogger)

	services := handlerHTTP.Services{
		Auth:     service.NewAuthService(accounts, tokens, password.NewBcryptHasher(cfg.Auth.BcryptCost), jwtTTL, nil, appLogger),
		Access:   access,
		Listings: service.NewListingService(listingRepo, cache, cfg.Listings.MaxPageSize, nil, appLogger),
		Tips:     tips,
		Admin:    service.NewAdminService(access, accounts, listingRepo, tipRepo, nil),
	}

	// consumerDone закрывается, когда обработчики расчетов завершены
	consumerDone := make(chan struct{})
	if consumer != nil {
		settlements := consumerRabbitMQ.NewSettlementConsumer(tips, cfg.RabbitMQ.SettlementQueue, metrics, appLogger)
		settlements.Register(consumer, cfg.RabbitMQ.SettlementKey)
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error("Settlement consumer stopped", logger.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	handler := handlerHTTP.NewHandler(services, limiter, handlerHTTP.Options{
		DefaultPageSize:       cfg.Listings.DefaultPageSize,
		AuthRequestsPerMinute: cfg.RateLimiting.AuthRequestsPerMinute,
	}, appLogger)

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: handlerHTTP.NewRouter(handler, handlerHTTP.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Checker:        checker,
			Metrics:        metrics,
		}, appLogger),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 2)
	go func() {
		appLogger.Info("HTTP server started", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	var healthServer *grpcHealth.HealthServer
	if cfg.GRPC.Enabled {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("failed to listen for grpc: %w", err)
		}
		healthServer = grpcHealth.NewHealthServer(checker, grpcHealth.DefaultProbeInterval, appLogger)
		go func() {
			if err := healthServer.Serve(ctx, listener); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	case err := <-errCh:
		appLogger.Error("Server failed, shutting down", logger.Error(err))
	}
	stop()

	return shutdown(server, healthServer, consumerDone, shutdownTracing, config.Duration(cfg.Server.ShutdownTimeout), appLogger)
}

// shutdown останавливает серверы и дожидается consumerDone в пределах таймаута.
// Соединения с хранилищами закрываются вызывающим только после возврата.
func shutdown(
	server *http.Server,
	healthServer *grpcHealth.HealthServer,
	consumerDone <-chan struct{},
	shutdownTracing func(context.Context) error,
	timeout time.Duration,
	appLogger logger.Logger,
) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if healthServer != nil {
		healthServer.Stop()
	}

	var result error
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("HTTP server shutdown failed", logger.Error(err))
		result = err
	}

	select {
	case <-consumerDone:
	case <-ctx.Done():
		appLogger.Error("Settlement consumer did not stop in time", logger.Error(ctx.Err()))
		if result == nil {
			result = fmt.Errorf("settlement consumer shutdown: %w", ctx.Err())
		}
	}

	if err := shutdownTracing(ctx); err != nil {
		appLogger.Warn("Tracer provider shutdown failed", logger.Error(err))
	}

	appLogger.Info("Service stopped gracefully")
	return result
}
