package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// RefreshStats are the three independent quality signals of a bulk refresh:
// records the provider returned and we matched, records it returned that we
// could not match, and local records it never confirmed. Divergence between
// them indicates provider drift or identifier-format mismatches.
type RefreshStats struct {
	Matched      int
	Unmatched    int
	NotRefreshed int
}

// RefreshUpdate pairs a persisted video with its freshly fetched metrics and
// the provider's current thumbnail URL.
type RefreshUpdate struct {
	Video        *models.Video
	Metrics      models.Metrics
	ThumbnailURL string
}

// RefreshExisting bulk re-fetches metrics for every persisted video of an
// account. Matching is by platform-native id, never by storage key. Records
// the provider returns without a local counterpart are counted and dropped.
func RefreshExisting(ctx context.Context, adapter platform.Adapter, persisted []*models.Video) ([]RefreshUpdate, RefreshStats, error) {
	stats := RefreshStats{NotRefreshed: len(persisted)}
	if len(persisted) == 0 {
		return nil, stats, nil
	}

	refs := make([]platform.VideoRef, 0, len(persisted))
	index := make(map[string]*models.Video, len(persisted))
	for _, video := range persisted {
		refs = append(refs, platform.VideoRef{
			PlatformVideoID: video.PlatformVideoID,
			URL:             video.URL,
		})
		index[video.PlatformVideoID] = video
	}

	items, err := adapter.FetchByRefs(ctx, refs)
	if err != nil {
		return nil, stats, err
	}

	var updates []RefreshUpdate
	matched := make(map[string]bool, len(persisted))

	for _, item := range items {
		id := adapter.ExtractID(item)
		if id == "" {
			stats.Unmatched++
			continue
		}

		video, ok := index[id]
		if !ok {
			// Returned by the provider but unknown locally: count, no action.
			stats.Unmatched++
			continue
		}
		if matched[id] {
			continue
		}

		fetched, err := adapter.Extract(item)
		if err != nil {
			logger.Log.Warn("skipping unextractable refresh record",
				zap.String("platform", string(adapter.Platform())),
				zap.String("platformVideoId", id),
				zap.Error(err),
			)
			continue
		}

		matched[id] = true
		stats.Matched++
		updates = append(updates, RefreshUpdate{
			Video:        video,
			Metrics:      fetched.Metrics,
			ThumbnailURL: fetched.ThumbnailURL,
		})
	}

	stats.NotRefreshed = len(persisted) - stats.Matched
	return updates, stats, nil
}
