package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/db/repository"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/internal/thumbnail"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// defaultChunkSize is the provider-sized write batch cap.
const defaultChunkSize = 500

// BlacklistChecker answers whether a platform-native id has been explicitly
// removed for a project.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error)
}

// Thumbnailer normalizes a remote thumbnail into a durable asset URL.
// Satisfied by *thumbnail.Pipeline.
type Thumbnailer interface {
	Process(ctx context.Context, remoteURL string, platform models.Platform, orgID, projectID, videoID string) (string, error)
}

// SaveResult reports what the persistence layer did with a candidate set.
type SaveResult struct {
	Inserted         int
	SkippedQuota     int
	SkippedBlacklist int
}

// Persister turns fetched records into chunked, quota-checked video and
// snapshot writes.
type Persister struct {
	videos    repository.VideoRepository
	usage     repository.UsageRepository
	blacklist BlacklistChecker
	thumbs    Thumbnailer
	chunkSize int
}

// NewPersister creates a Persister. chunkSize <= 0 selects the default cap.
func NewPersister(videos repository.VideoRepository, usage repository.UsageRepository, blacklist BlacklistChecker, thumbs Thumbnailer, chunkSize int) *Persister {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Persister{
		videos:    videos,
		usage:     usage,
		blacklist: blacklist,
		thumbs:    thumbs,
		chunkSize: chunkSize,
	}
}

// SaveNew persists discovery candidates under the tenant's quota. The usage
// counter is read once up front; blacklisted candidates are skipped before the
// quota check and never consume quota accounting. After all chunks commit the
// counter is incremented exactly once by the number of videos actually
// inserted.
func (p *Persister) SaveNew(ctx context.Context, account *models.TrackedAccount, candidates []*platform.FetchedVideo, manual bool) (SaveResult, error) {
	result := SaveResult{}
	if len(candidates) == 0 {
		return result, nil
	}

	usage, err := p.usage.Get(ctx, account.OrganizationID)
	if err != nil {
		return result, err
	}

	var ops []repository.WriteOp
	queued := 0

	for _, candidate := range candidates {
		blacklisted, err := p.blacklist.IsBlacklisted(ctx, account.OrganizationID, account.ProjectID, candidate.ID)
		if err != nil {
			return result, err
		}
		if blacklisted {
			result.SkippedBlacklist++
			continue
		}

		if usage.TrackedVideos+queued >= usage.VideoLimit {
			result.SkippedQuota++
			logger.Log.Info("quota exhausted, skipping candidate",
				zap.String("org", account.OrganizationID),
				zap.String("platformVideoId", candidate.ID),
				zap.Int("trackedVideos", usage.TrackedVideos),
				zap.Int("limit", usage.VideoLimit),
			)
			continue
		}

		thumb := p.resolveThumbnail(ctx, account, candidate.ID, candidate.ThumbnailURL)

		video := models.NewVideo(account, candidate.ID, candidate.URL, thumb, candidate.Caption, candidate.UploadedAt, candidate.Metrics)
		snap := models.NewSnapshot(0, candidate.Metrics, models.CaptureSource(manual, true), true)
		ops = append(ops, repository.WriteOp{Video: video, Snapshot: snap, Insert: true})
		queued++
	}

	committed := p.commitChunks(ctx, ops)
	result.Inserted = committed

	if err := p.usage.IncrementTracked(ctx, account.OrganizationID, committed); err != nil {
		return result, err
	}

	return result, nil
}

// SaveRefreshed overwrites metrics and appends exactly one snapshot for each
// update. No quota check applies: no new video is created.
func (p *Persister) SaveRefreshed(ctx context.Context, account *models.TrackedAccount, updates []RefreshUpdate, manual bool) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	ops := make([]repository.WriteOp, 0, len(updates))
	for _, update := range updates {
		video := update.Video
		p.maybeReplaceThumbnail(ctx, account, video, update.ThumbnailURL)

		video.Refresh(update.Metrics)
		snap := models.NewSnapshot(video.ID, update.Metrics, models.CaptureSource(manual, false), false)
		ops = append(ops, repository.WriteOp{Video: video, Snapshot: snap})
	}

	return p.commitChunks(ctx, ops), nil
}

// resolveThumbnail runs the normalization pipeline for a new video. A failed
// download leaves the thumbnail empty; the third-party URL is never stored as
// a substitute because platform asset URLs are short-lived.
func (p *Persister) resolveThumbnail(ctx context.Context, account *models.TrackedAccount, platformVideoID, remoteURL string) string {
	if remoteURL == "" || p.thumbs == nil {
		return ""
	}

	thumb, err := p.thumbs.Process(ctx, remoteURL, account.Platform, account.OrganizationID, account.ProjectID, platformVideoID)
	if err != nil {
		var de *thumbnail.DownloadError
		if errors.As(err, &de) {
			logger.Log.Warn("thumbnail download failed, saving without thumbnail",
				zap.String("platformVideoId", platformVideoID),
				zap.Error(err),
			)
		} else {
			logger.Log.Warn("thumbnail processing failed, saving without thumbnail",
				zap.String("platformVideoId", platformVideoID),
				zap.Error(err),
			)
		}
		return ""
	}
	return thumb
}

// maybeReplaceThumbnail repopulates a persisted thumbnail only when it is
// empty, a known placeholder, or still a third-party CDN URL. A durable
// thumbnail is never overwritten.
func (p *Persister) maybeReplaceThumbnail(ctx context.Context, account *models.TrackedAccount, video *models.Video, remoteURL string) {
	if remoteURL == "" || p.thumbs == nil || !thumbnail.ShouldReplace(video.Thumbnail) {
		return
	}

	thumb, err := p.thumbs.Process(ctx, remoteURL, account.Platform, account.OrganizationID, account.ProjectID, video.PlatformVideoID)
	if err != nil {
		logger.Log.Warn("thumbnail replacement failed, keeping current value",
			zap.String("platformVideoId", video.PlatformVideoID),
			zap.Error(err),
		)
		return
	}

	if err := p.videos.UpdateThumbnail(ctx, video.ID, thumb); err != nil {
		logger.Log.Warn("failed to persist replacement thumbnail",
			zap.Int64("videoId", video.ID),
			zap.Error(err),
		)
		return
	}
	video.Thumbnail = thumb
}

// commitChunks writes ops in chunks of at most chunkSize. A failed chunk is
// logged and skipped; already-committed chunks stay committed. Each write is
// independently idempotent on re-run, so partial progress is tolerated.
// Returns the number of ops actually committed.
func (p *Persister) commitChunks(ctx context.Context, ops []repository.WriteOp) int {
	committed := 0

	for start := 0; start < len(ops); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(ops) {
			end = len(ops)
		}
		chunk := ops[start:end]

		if err := p.videos.WriteBatch(ctx, chunk); err != nil {
			logger.Log.Error("write chunk failed, continuing with remaining chunks",
				zap.Int("chunkStart", start),
				zap.Int("chunkSize", len(chunk)),
				zap.Error(err),
			)
			continue
		}
		committed += len(chunk)
	}

	return committed
}
