// Package service holds shared engine collaborators that sit between the
// repositories and the sync engine.
package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/db/repository"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// BlacklistCache answers blacklist membership from a per-project redis set,
// falling back to the database when redis is unavailable. A cache miss is
// authoritative once the project set has been warmed.
type BlacklistCache struct {
	redisClient *redis.Client
	repo        repository.BlacklistRepository
}

// NewBlacklistCache creates a BlacklistCache. A nil redis client degrades to
// database lookups only.
func NewBlacklistCache(redisClient *redis.Client, repo repository.BlacklistRepository) *BlacklistCache {
	return &BlacklistCache{redisClient: redisClient, repo: repo}
}

func projectSetKey(orgID, projectID string) string {
	return fmt.Sprintf("blacklist:%s:%s", orgID, projectID)
}

// WarmProject loads a project's blacklisted ids from the database into redis.
// Called at the start of each project walk; failures are logged and the cache
// degrades to database lookups.
func (c *BlacklistCache) WarmProject(ctx context.Context, orgID, projectID string) {
	if c.redisClient == nil {
		return
	}

	ids, err := c.repo.ListProjectIDs(ctx, orgID, projectID)
	if err != nil {
		logger.Log.Warn("failed to load blacklist for cache warm",
			zap.String("org", orgID),
			zap.String("project", projectID),
			zap.Error(err),
		)
		return
	}

	key := projectSetKey(orgID, projectID)
	pipe := c.redisClient.Pipeline()
	pipe.Del(ctx, key)
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, key, members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("failed to warm blacklist cache",
			zap.String("org", orgID),
			zap.String("project", projectID),
			zap.Error(err),
		)
	}
}

// IsBlacklisted reports whether the platform-native id is blacklisted for the
// project.
func (c *BlacklistCache) IsBlacklisted(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error) {
	if c.redisClient != nil {
		member, err := c.redisClient.SIsMember(ctx, projectSetKey(orgID, projectID), platformVideoID).Result()
		if err == nil {
			return member, nil
		}
		logger.Log.Warn("blacklist cache lookup failed, falling back to database", zap.Error(err))
	}

	return c.repo.IsBlacklisted(ctx, orgID, projectID, platformVideoID)
}
