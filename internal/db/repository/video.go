package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// WriteOp is one queued persistence operation: a video write plus the single
// snapshot appended for it. Insert ops create the video and its initial
// snapshot in one statement; update ops overwrite metrics and append a
// refresh snapshot.
type WriteOp struct {
	Video    *models.Video
	Snapshot *models.Snapshot
	Insert   bool
}

// VideoRepository defines operations for managing videos.
type VideoRepository interface {
	// Exists reports whether a video with the given platform-native id is
	// already persisted for the project.
	Exists(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error)

	// GetByPlatformID retrieves a video by its platform-native id.
	GetByPlatformID(ctx context.Context, orgID, projectID, platformVideoID string) (*models.Video, error)

	// ListByAccount retrieves all videos tracked for an account, newest first.
	ListByAccount(ctx context.Context, accountID int64) ([]*models.Video, error)

	// CountByAccount returns how many videos are persisted for an account.
	CountByAccount(ctx context.Context, accountID int64) (int, error)

	// UpdateThumbnail overwrites a video's thumbnail URL.
	UpdateThumbnail(ctx context.Context, videoID int64, thumbnail string) error

	// WriteBatch commits one chunk of write operations in a single transaction.
	// The chunk either commits fully or not at all; the caller decides what to
	// do about sibling chunks.
	WriteBatch(ctx context.Context, ops []WriteOp) error
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

func (r *videoRepository) Exists(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM videos
			WHERE organization_id = $1 AND project_id = $2 AND platform_video_id = $3
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, orgID, projectID, platformVideoID).Scan(&exists); err != nil {
		return false, db.WrapError(err, "video exists")
	}

	return exists, nil
}

const videoColumns = `
	id, organization_id, project_id, account_id, platform, platform_video_id,
	url, thumbnail, caption, upload_date, views, likes, comments, shares, saves,
	status, last_refreshed, created_at, updated_at
`

func (r *videoRepository) GetByPlatformID(ctx context.Context, orgID, projectID, platformVideoID string) (*models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE organization_id = $1 AND project_id = $2 AND platform_video_id = $3
	`

	video, err := scanVideo(r.pool.QueryRow(ctx, query, orgID, projectID, platformVideoID))
	if err != nil {
		return nil, err
	}

	return video, nil
}

func (r *videoRepository) ListByAccount(ctx context.Context, accountID int64) ([]*models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE account_id = $1
		ORDER BY upload_date DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, db.WrapError(err, "list videos by account")
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate videos")
	}

	return videos, nil
}

func (r *videoRepository) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, db.WrapError(err, "count videos by account")
	}

	return count, nil
}

func (r *videoRepository) UpdateThumbnail(ctx context.Context, videoID int64, thumbnail string) error {
	query := `UPDATE videos SET thumbnail = $2, updated_at = now() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, videoID, thumbnail); err != nil {
		return db.WrapError(err, "update thumbnail")
	}

	return nil
}

const insertVideoWithSnapshot = `
	WITH v AS (
		INSERT INTO videos (
			organization_id, project_id, account_id, platform, platform_video_id,
			url, thumbnail, caption, upload_date, views, likes, comments, shares, saves,
			status, last_refreshed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (organization_id, project_id, platform_video_id) DO UPDATE
		SET views = EXCLUDED.views,
		    likes = EXCLUDED.likes,
		    comments = EXCLUDED.comments,
		    shares = EXCLUDED.shares,
		    saves = EXCLUDED.saves,
		    last_refreshed = EXCLUDED.last_refreshed,
		    updated_at = now()
		RETURNING id
	)
	INSERT INTO video_snapshots (video_id, views, likes, comments, shares, saves, captured_by, is_initial_snapshot)
	SELECT id, $10, $11, $12, $13, $14, $17, $18 FROM v
`

const updateVideoMetrics = `
	UPDATE videos
	SET views = $2, likes = $3, comments = $4, shares = $5, saves = $6,
	    last_refreshed = now(), updated_at = now()
	WHERE id = $1
`

const appendSnapshot = `
	INSERT INTO video_snapshots (video_id, views, likes, comments, shares, saves, captured_by, is_initial_snapshot)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (r *videoRepository) WriteBatch(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, op := range ops {
		v := op.Video
		s := op.Snapshot
		if op.Insert {
			batch.Queue(insertVideoWithSnapshot,
				v.OrganizationID, v.ProjectID, v.AccountID, string(v.Platform), v.PlatformVideoID,
				v.URL, v.Thumbnail, v.Caption, v.UploadDate,
				v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments, v.Metrics.Shares, v.Metrics.Saves,
				string(v.Status), v.LastRefreshed,
				s.CapturedBy, s.IsInitialSnapshot,
			)
			continue
		}

		batch.Queue(updateVideoMetrics,
			v.ID, v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments, v.Metrics.Shares, v.Metrics.Saves)
		batch.Queue(appendSnapshot,
			v.ID, s.Metrics.Views, s.Metrics.Likes, s.Metrics.Comments, s.Metrics.Shares, s.Metrics.Saves,
			s.CapturedBy, s.IsInitialSnapshot)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return db.WrapError(err, "begin write batch")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return db.WrapError(err, "exec write batch")
		}
	}
	if err := results.Close(); err != nil {
		return db.WrapError(err, "close write batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return db.WrapError(err, "commit write batch")
	}

	return nil
}

func scanVideo(row rowScanner) (*models.Video, error) {
	video := &models.Video{}
	var platform string
	err := row.Scan(
		&video.ID,
		&video.OrganizationID,
		&video.ProjectID,
		&video.AccountID,
		&platform,
		&video.PlatformVideoID,
		&video.URL,
		&video.Thumbnail,
		&video.Caption,
		&video.UploadDate,
		&video.Metrics.Views,
		&video.Metrics.Likes,
		&video.Metrics.Comments,
		&video.Metrics.Shares,
		&video.Metrics.Saves,
		&video.Status,
		&video.LastRefreshed,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "scan video")
	}

	video.Platform, err = models.ParsePlatform(platform)
	if err != nil {
		return nil, db.WrapError(err, "scan video")
	}

	return video, nil
}
