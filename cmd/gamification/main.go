// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coachforge/platform/internal/auth"
	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/gamification"
	"github.com/coachforge/platform/internal/health"
	"github.com/coachforge/platform/internal/jobs"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/observability"
	"github.com/coachforge/platform/internal/realtime"
	"github.com/coachforge/platform/internal/server"
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

	logger := core.NewLogger(cfg.Log).With("service", "gamification")
	slog.SetDefault(logger)

	logger.Info("starting gamification",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"consumer_enabled", cfg.Gamification.ConsumerEnabled,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(cfg.JWT)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(logger)

	// An empty notify channel keeps notifications inside this process.
	var notifier gamification.Notifier = hub
	var bus *realtime.RedisBus
	if cfg.Gamification.NotifyChannel != "" {
		bus = realtime.NewRedisBus(redis.Client, cfg.Gamification.NotifyChannel, logger)
		notifier = bus
	}

	repo := gamification.NewRepository(db.DB)
	board := gamification.NewRedisLeaderboard(
		redis.Client,
		cfg.Gamification.LeaderboardKey,
		cfg.Gamification.WeeklyTTL,
	)
	engine := gamification.NewEngine(repo, board, notifier, cfg.Gamification, logger)
	svc := gamification.NewService(repo, board, cfg.Gamification)

	checks := []health.Check{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	healthHandler := health.NewHandler(checks...)

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
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", observability.Handler())

	// /ws authenticates itself and stays outside the REST middleware.
	realtime.NewHandler(hub, verifier, cfg.Realtime, logger).RegisterRoutes(router)

	verify := middleware.Authenticator(verifier)
	roleLimiter := middleware.RoleRateLimiter(redis.Client, middleware.DefaultRoleLimits)
	authenticator := func(next http.Handler) http.Handler {
		return verify(roleLimiter(next))
	}

	router.Route("/v1", func(r chi.Router) {
		r.Use(
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Limit: middleware.PerMinute(
					cfg.RateLimit.Requests,
					cfg.RateLimit.Burst,
				),
				KeyFunc:  middleware.KeyByUser,
				FailOpen: true,
			}).Handler,
		)
		r.Use(middleware.SecurityHeaders(cfg.IsProduction()))

		gamification.NewHandler(svc).RegisterRoutes(
			r,
			authenticator,
			middleware.RequireTrainer,
			middleware.RequireAdmin,
		)
	})

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	workerErr := make(chan error, 2)

	if bus != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := bus.Run(workerCtx, func(msg realtime.Message) {
				hub.Broadcast(msg)
			})
			if err != nil {
				logger.Error("notification bus stopped", "error", err)
				healthHandler.SetReady(false)
				workerErr <- fmt.Errorf("notification bus: %w", err)
			}
		}()
	}

	var reader events.Reader
	if cfg.Gamification.ConsumerEnabled {
		reader = events.NewKafkaReader(cfg.Kafka)

		processor := events.NewProcessor(
			reader,
			gamification.NewEventHandler(engine),
			logger,
			events.WithAttempts(cfg.Kafka.HandlerAttempts),
			events.WithBackoff(cfg.Kafka.HandlerBackoff),
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := processor.Run(workerCtx); err != nil {
				logger.Error("event consumer stopped", "error", err)
				healthHandler.SetReady(false)
				workerErr <- fmt.Errorf("event consumer: %w", err)
			}
		}()
		logger.Info("event consumer started",
			"group", cfg.Kafka.ConsumerGroup,
			"topics", cfg.Kafka.Topics(),
		)
	}

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(logger)
		for _, job := range []jobs.Job{
			jobs.ChallengeSweep(cfg.Jobs, svc),
			jobs.StreakReset(cfg.Jobs, svc),
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
	case err := <-workerErr:
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

	hub.Close()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	cancelWorkers()
	wg.Wait()

	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
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

	logger.Info("gamification stopped")
	return runErr
}
