package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/app"
	"github.com/creator-tracker/video-sync-go/internal/config"
	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/handler"
	"github.com/creator-tracker/video-sync-go/internal/metrics"
	"github.com/creator-tracker/video-sync-go/internal/middleware"
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
	logger.Log.Info("database connection established")

	collector, err := metrics.NewSyncCollector()
	if err != nil {
		logger.Log.Fatal("failed to register metrics", zap.Error(err))
	}

	engine, err := app.BuildEngine(ctx, cfg, pool, collector)
	if err != nil {
		logger.Log.Fatal("failed to build sync engine", zap.Error(err))
	}

	router := buildRouter(cfg, pool, engine, collector)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			_ = server.Close()
			os.Exit(1)
		}

		logger.Log.Info("server stopped gracefully")
	}
}

func buildRouter(cfg *config.Config, pinger handler.Pinger, engine *sync.Engine, collector *metrics.SyncCollector) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pinger)
	router.GET("/health", healthHandler.LivenessProbe)
	router.GET("/health/ready", healthHandler.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	syncHandler := handler.NewSyncHandler(engine)
	router.POST("/api/v1/sync", middleware.TriggerAuth(cfg.Sync.TriggerToken), syncHandler.Trigger)

	return router
}
