// The scheduler runs the sync engine on a cron schedule without going through
// the HTTP trigger. It shares the server's configuration and wiring.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/app"
	"github.com/creator-tracker/video-sync-go/internal/config"
	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/sync"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	pool, err := db.NewPool(ctx, app.PoolConfig(cfg))
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close(pool)

	engine, err := app.BuildEngine(ctx, cfg, pool, nil)
	if err != nil {
		logger.Log.Fatal("failed to build sync engine", zap.Error(err))
	}

	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(cfg.Sync.Schedule, func() {
		summary, err := engine.Run(ctx, sync.Scope{}, false)
		if err != nil {
			logger.Log.Error("scheduled sync run failed", zap.Error(err))
			return
		}
		logger.Log.Info("scheduled sync run completed",
			zap.String("runId", summary.RunID),
			zap.String("duration", summary.Duration),
			zap.Int("accounts", summary.Accounts),
			zap.Int("accountsFailed", summary.AccountsFailed),
		)
	})
	if err != nil {
		logger.Log.Fatal("failed to register sync schedule",
			zap.String("schedule", cfg.Sync.Schedule),
			zap.Error(err),
		)
	}

	scheduler.Start()
	logger.Log.Info("scheduler started", zap.String("schedule", cfg.Sync.Schedule))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Log.Info("shutdown signal received, waiting for running job")
	<-scheduler.Stop().Done()
	logger.Log.Info("scheduler stopped")
}
