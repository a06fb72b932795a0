// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coachforge/platform/internal/admin"
	"github.com/coachforge/platform/internal/auth"
	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/exercise"
	"github.com/coachforge/platform/internal/health"
	"github.com/coachforge/platform/internal/jobs"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/observability"
	"github.com/coachforge/platform/internal/outbox"
	"github.com/coachforge/platform/internal/server"
	"github.com/coachforge/platform/internal/session"
	"github.com/coachforge/platform/internal/storefront"
	"github.com/coachforge/platform/internal/user"
	"github.com/coachforge/platform/internal/workoutlog"
	"github.com/coachforge/platform/internal/workoutplan"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := core.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting api",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	if cfg.Database.MigrateOnStart {
		if err := core.Migrate(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	store := outbox.NewStore(cfg.Kafka)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		auth.NewRedisBlacklist(redis.Client),
	)
	authHandler := auth.NewHandler(authSvc)

	exerciseHandler := exercise.NewHandler(
		exercise.NewService(exercise.NewRepository(db.DB)),
	)
	planHandler := workoutplan.NewHandler(
		workoutplan.NewService(workoutplan.NewRepository(db.DB), userSvc),
	)
	logHandler := workoutlog.NewHandler(
		workoutlog.NewService(workoutlog.NewRepository(db.DB, store), userSvc),
	)
	storeHandler := storefront.NewHandler(
		storefront.NewService(
			storefront.NewRepository(db.DB, store),
			storefront.NewRedisCart(redis.Client, cfg.Storefront.CartTTL),
			cfg.Storefront,
		),
	)
	sessionHandler := session.NewHandler(
		session.NewService(session.NewRepository(db.DB, store), cfg.Sessions),
	)

	checks := []health.Check{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}

	var producer *outbox.KafkaProducer
	if cfg.Outbox.Enabled {
		producer = outbox.NewKafkaProducer(cfg.Kafka.Brokers)
		checks = append(checks, health.Check{Name: "kafka", Checker: producer})
	}

	healthHandler := health.NewHandler(checks...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Counter:    admin.NewCounter(db.DB),
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	if cfg.Otel.Enabled {
		router.Use(middleware.Tracing(cfg.Otel.ServiceName))
	}
	router.Use(middleware.Metrics)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Handle("/metrics", observability.Handler())
	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	verify := middleware.Authenticator(authSvc)
	roleLimiter := middleware.RoleRateLimiter(redis.Client, middleware.DefaultRoleLimits)
	authenticator := func(next http.Handler) http.Handler {
		return verify(roleLimiter(next))
	}
	trainerOnly := middleware.RequireTrainer
	adminOnly := middleware.RequireAdmin
	credentialLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(10, 5),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, credentialLimiter)

		r.With(credentialLimiter).Post("/users", authHandler.Register)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterTrainerRoutes(r, authenticator, trainerOnly)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		exerciseHandler.RegisterRoutes(r, authenticator, trainerOnly)
		planHandler.RegisterRoutes(r, authenticator, trainerOnly)
		logHandler.RegisterRoutes(r, authenticator)
		storeHandler.RegisterRoutes(r, authenticator, adminOnly)
		sessionHandler.RegisterRoutes(r, authenticator, trainerOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var dispatcher *outbox.Dispatcher
	if producer != nil {
		dispatcher = outbox.NewDispatcher(db.DB, producer, cfg.Outbox, logger)
		go dispatcher.Start(workerCtx)
		logger.Info("outbox dispatcher started",
			"poll_interval", cfg.Outbox.PollInterval,
			"batch_size", cfg.Outbox.BatchSize,
		)
	}

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(logger)
		for _, job := range []jobs.Job{
			jobs.OutboxVacuum(cfg.Jobs, db.DB),
			jobs.TokenPurge(cfg.Jobs, authSvc),
		} {
			if err := scheduler.Add(job); err != nil {
				return err
			}
		}
		scheduler.Start()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	var runErr error
	select {
	case err := <-errChan:
		runErr = err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	cancelWorkers()
	if dispatcher != nil {
		dispatcher.Wait()
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka producer close error", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("api stopped")
	return runErr
}
