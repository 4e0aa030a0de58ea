package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// BlacklistRepository defines operations over the per-project blacklist of
// explicitly removed videos.
type BlacklistRepository interface {
	// IsBlacklisted reports whether a platform-native id is blacklisted for a project.
	IsBlacklisted(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error)

	// ListProjectIDs retrieves all blacklisted platform-native ids for a project.
	ListProjectIDs(ctx context.Context, orgID, projectID string) ([]string, error)

	// Add blacklists a platform-native id for a project.
	Add(ctx context.Context, entry *models.DeletedVideo) error
}

type blacklistRepository struct {
	pool *pgxpool.Pool
}

// NewBlacklistRepository creates a new BlacklistRepository.
func NewBlacklistRepository(pool *pgxpool.Pool) BlacklistRepository {
	return &blacklistRepository{pool: pool}
}

func (r *blacklistRepository) IsBlacklisted(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM deleted_videos
			WHERE organization_id = $1 AND project_id = $2 AND platform_video_id = $3
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, orgID, projectID, platformVideoID).Scan(&exists); err != nil {
		return false, db.WrapError(err, "check blacklist")
	}

	return exists, nil
}

func (r *blacklistRepository) ListProjectIDs(ctx context.Context, orgID, projectID string) ([]string, error) {
	query := `
		SELECT platform_video_id FROM deleted_videos
		WHERE organization_id = $1 AND project_id = $2
	`

	rows, err := r.pool.Query(ctx, query, orgID, projectID)
	if err != nil {
		return nil, db.WrapError(err, "list blacklisted ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, db.WrapError(err, "scan blacklisted id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate blacklisted ids")
	}

	return ids, nil
}

func (r *blacklistRepository) Add(ctx context.Context, entry *models.DeletedVideo) error {
	query := `
		INSERT INTO deleted_videos (organization_id, project_id, platform_video_id, reason, deleted_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, platform_video_id) DO NOTHING
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		entry.OrganizationID,
		entry.ProjectID,
		entry.PlatformVideoID,
		entry.Reason,
		entry.DeletedBy,
	).Scan(&entry.ID)
	if err != nil {
		if db.IsNotFound(db.WrapError(err, "")) {
			// Conflict: already blacklisted, nothing to do.
			return nil
		}
		return db.WrapError(err, "add blacklist entry")
	}

	return nil
}
