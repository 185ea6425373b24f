package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/absenced-dev/absenced/internal/config"
	"github.com/absenced-dev/absenced/internal/eligibility"
	"github.com/absenced-dev/absenced/internal/logger"
	"github.com/absenced-dev/absenced/internal/policy"
	"github.com/absenced-dev/absenced/internal/server"
	"github.com/absenced-dev/absenced/internal/tasks"
	"github.com/absenced-dev/absenced/internal/trips"
	"github.com/absenced-dev/absenced/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	log.Info().Str("version", version).Msg("Starting Absenced Asynq worker")

	// Initialize database (reuse server's database initialization)
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server (needed for DB)")
	}
	db := srv.GetDB()

	// Build the eligibility service the task handlers delegate to
	policies, err := policy.Load(cfg.Eligibility.PolicyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load policy presets")
	}
	tripsService := trips.NewService(db, log)
	eligibilityService := eligibility.NewService(db, tripsService, policies, cfg.Eligibility.DefaultPolicy, log)

	// Initialize Asynq client (for enqueueing scheduled tasks)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	// Initialize Asynq server
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 10, // Number of concurrent workers
			Queues: map[string]int{
				"critical": 6, // 60% of workers for critical tasks
				"default":  3, // 30% of workers for default queue
				"low":      1, // 10% of workers for low priority
			},
			// Logging
			Logger: &asynqLogger{log: log},
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()

	mux.HandleFunc(tasks.TypeEligibilityRecompute, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleEligibilityRecompute(ctx, t, eligibilityService, log)
	})
	mux.HandleFunc(tasks.TypeSnapshotsPrune, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleSnapshotsPrune(ctx, t, eligibilityService, log)
	})

	// Start recompute scheduler goroutine (checks every minute for profiles due a recompute)
	go workers.StartRecomputeScheduler(asynqClient, db, cfg, log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown Asynq server gracefully
	log.Info().Msg("Stopping Asynq worker - waiting for tasks to finish (30s timeout)...")
	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
