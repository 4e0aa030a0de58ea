// Package app wires configuration, repositories, platform adapters and the
// thumbnail pipeline into a ready-to-run sync engine. Shared by the server
// and scheduler binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/creator-tracker/video-sync-go/internal/config"
	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/db/repository"
	"github.com/creator-tracker/video-sync-go/internal/metrics"
	"github.com/creator-tracker/video-sync-go/internal/notify"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/internal/service"
	"github.com/creator-tracker/video-sync-go/internal/sync"
	"github.com/creator-tracker/video-sync-go/internal/thumbnail"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// PoolConfig maps the application database configuration onto the pool config.
func PoolConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxLifetime,
		MaxConnIdleTime: cfg.Database.MaxIdleTime,
	}
}

// BuildEngine assembles the sync engine and all its collaborators. collector
// may be nil for binaries that do not expose metrics.
func BuildEngine(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, collector *metrics.SyncCollector) (*sync.Engine, error) {
	orgRepo := repository.NewOrganizationRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	blacklistRepo := repository.NewBlacklistRepository(pool)

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	thumbs, err := buildThumbnailer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Warn("redis unreachable, blacklist lookups fall back to database", zap.Error(err))
		}
	}
	blacklistCache := service.NewBlacklistCache(redisClient, blacklistRepo)

	persister := sync.NewPersister(videoRepo, usageRepo, blacklistCache, thumbs, cfg.Sync.WriteChunkSize)
	mailer := notify.NewMailer(cfg.Mail)

	return sync.NewEngine(
		orgRepo,
		accountRepo,
		videoRepo,
		registry,
		persister,
		blacklistCache,
		mailer,
		collector,
		cfg.Sync.AccountBatchSize,
	), nil
}

func buildRegistry(ctx context.Context, cfg *config.Config) (platform.Registry, error) {
	actorClient := platform.NewActorClient(cfg.Actor.BaseURL, cfg.Actor.Token, cfg.Actor.RequestTimeout)

	registry := platform.Registry{
		models.PlatformInstagram: platform.NewInstagramAdapter(actorClient, cfg.Actor.InstagramActor),
		models.PlatformTikTok:    platform.NewTikTokAdapter(actorClient, cfg.Actor.TikTokActor),
		models.PlatformTwitter:   platform.NewTwitterAdapter(actorClient, cfg.Actor.TwitterActor),
	}

	if cfg.YouTube.APIKey != "" {
		youtubeAdapter, err := platform.NewYouTubeAdapter(ctx, cfg.YouTube.APIKey)
		if err != nil {
			return nil, fmt.Errorf("initialize youtube adapter: %w", err)
		}
		registry[models.PlatformYouTube] = youtubeAdapter
	} else {
		logger.Log.Warn("youtube API key not configured, youtube accounts will fail to sync")
	}

	return registry, nil
}

// buildThumbnailer returns a nil Thumbnailer when no bucket is configured;
// videos are then saved without durable thumbnails.
func buildThumbnailer(ctx context.Context, cfg *config.Config) (sync.Thumbnailer, error) {
	if cfg.Storage.Bucket == "" {
		logger.Log.Warn("storage bucket not configured, thumbnails will not be persisted")
		return nil, nil
	}

	var opts []option.ClientOption
	if cfg.Storage.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Storage.CredentialsFile))
	}

	store, err := thumbnail.NewGCSStore(ctx, cfg.Storage.Bucket, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize thumbnail storage: %w", err)
	}

	return thumbnail.NewPipeline(store, cfg.Storage.ThumbnailMinBytes), nil
}
