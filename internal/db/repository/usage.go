package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// UsageRepository defines operations over per-organization usage counters.
type UsageRepository interface {
	// Get retrieves the usage counter for an organization.
	Get(ctx context.Context, orgID string) (*models.UsageCounter, error)

	// IncrementTracked adds n to the organization's tracked-video count.
	// Called once per account run with the number of videos actually inserted.
	IncrementTracked(ctx context.Context, orgID string, n int) error
}

type usageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(pool *pgxpool.Pool) UsageRepository {
	return &usageRepository{pool: pool}
}

func (r *usageRepository) Get(ctx context.Context, orgID string) (*models.UsageCounter, error) {
	query := `
		SELECT organization_id, tracked_videos, video_limit, updated_at
		FROM organization_usage
		WHERE organization_id = $1
	`

	usage := &models.UsageCounter{}
	err := r.pool.QueryRow(ctx, query, orgID).Scan(
		&usage.OrganizationID,
		&usage.TrackedVideos,
		&usage.VideoLimit,
		&usage.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get usage counter")
	}

	return usage, nil
}

func (r *usageRepository) IncrementTracked(ctx context.Context, orgID string, n int) error {
	if n == 0 {
		return nil
	}

	query := `
		UPDATE organization_usage
		SET tracked_videos = tracked_videos + $2, updated_at = now()
		WHERE organization_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, orgID, n)
	if err != nil {
		return db.WrapError(err, "increment usage counter")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "increment usage counter")
	}

	return nil
}
