// Package main is the entry point for the ClipArena background worker.
//
// The worker owns everything asynchronous behind the voting platform's fast
// layer:
//   - draining the comment event queue and applying events durably
//   - recovering events stranded by a crashed run
//   - periodically re-deriving clip ranking sets from durable vote totals
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cliparena/clip-arena-hub/config"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/persistence/postgres"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/persistence/redis"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/scheduler"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/scheduler/jobs"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting ClipArena worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	dbConn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.Redis.URL
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection...")
		_ = redisClient.Close()
	}()
	log.Info("Redis connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES AND STORES
	// ─────────────────────────────────────────────────────────────────────────
	commentRepo := postgres.NewCommentRepository(dbConn)
	voteRepo := postgres.NewVoteRepository(dbConn)
	commentQueue := redis.NewCommentQueue(redisClient, log)
	leaderboards := redis.NewLeaderboardStore(redisClient, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. COMMENT QUEUE WORKER
	// ─────────────────────────────────────────────────────────────────────────
	commentWorker := worker.NewCommentWorker(commentQueue, commentRepo, worker.Config{
		PollInterval: cfg.Queue.PollInterval,
		BatchSize:    cfg.Queue.BatchSize,
		MaxAttempts:  cfg.Queue.MaxAttempts,
	}, log)
	commentWorker.Start(ctx)
	defer commentWorker.Stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled && cfg.Features.IsEnabled(config.FeatureLeaderboardRebuild, nil) {
		sched := scheduler.NewScheduler(log)

		rebuildJob := jobs.NewRebuildLeaderboardJob(voteRepo, leaderboards, jobs.RebuildLeaderboardConfig{
			TopN: cfg.Scheduler.RebuildTopN,
		}, log)
		if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		for _, info := range sched.ListJobs() {
			log.Info("job scheduled",
				"job", info.Name,
				"schedule", info.Schedule,
				"next_run", info.NextRun,
			)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	} else {
		log.Info("scheduler disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("ClipArena worker is running",
		"poll_interval", cfg.Queue.PollInterval.String(),
		"batch_size", cfg.Queue.BatchSize,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	return nil
}

// setupLogger configures structured logging: JSON in production for log
// aggregators, text locally.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
