package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// SnapshotRepository defines read/append operations over the snapshot ledger.
// There is deliberately no update or delete operation; the table-level trigger
// rejects both.
type SnapshotRepository interface {
	// Append inserts one snapshot.
	Append(ctx context.Context, snapshot *models.Snapshot) error

	// ListByVideo retrieves a video's snapshots, oldest first.
	ListByVideo(ctx context.Context, videoID int64) ([]*models.Snapshot, error)

	// CountByVideo returns how many snapshots a video has.
	CountByVideo(ctx context.Context, videoID int64) (int, error)
}

type snapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepository{pool: pool}
}

func (r *snapshotRepository) Append(ctx context.Context, snapshot *models.Snapshot) error {
	query := `
		INSERT INTO video_snapshots (video_id, views, likes, comments, shares, saves, captured_at, captured_by, is_initial_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		snapshot.VideoID,
		snapshot.Metrics.Views,
		snapshot.Metrics.Likes,
		snapshot.Metrics.Comments,
		snapshot.Metrics.Shares,
		snapshot.Metrics.Saves,
		snapshot.CapturedAt,
		snapshot.CapturedBy,
		snapshot.IsInitialSnapshot,
	).Scan(&snapshot.ID)
	if err != nil {
		return db.WrapError(err, "append snapshot")
	}

	return nil
}

func (r *snapshotRepository) ListByVideo(ctx context.Context, videoID int64) ([]*models.Snapshot, error) {
	query := `
		SELECT id, video_id, views, likes, comments, shares, saves, captured_at, captured_by, is_initial_snapshot
		FROM video_snapshots
		WHERE video_id = $1
		ORDER BY captured_at
	`

	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, db.WrapError(err, "list snapshots")
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		s := &models.Snapshot{}
		err := rows.Scan(
			&s.ID,
			&s.VideoID,
			&s.Metrics.Views,
			&s.Metrics.Likes,
			&s.Metrics.Comments,
			&s.Metrics.Shares,
			&s.Metrics.Saves,
			&s.CapturedAt,
			&s.CapturedBy,
			&s.IsInitialSnapshot,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan snapshot")
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate snapshots")
	}

	return snapshots, nil
}

func (r *snapshotRepository) CountByVideo(ctx context.Context, videoID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM video_snapshots WHERE video_id = $1`, videoID).Scan(&count)
	if err != nil {
		return 0, db.WrapError(err, "count snapshots")
	}

	return count, nil
}
