package platform

import (
	"context"
	"fmt"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// TwitterAdapter drives twitter through the actor service.
type TwitterAdapter struct {
	runner  ActorRunner
	actorID string
}

// NewTwitterAdapter creates the twitter adapter.
func NewTwitterAdapter(runner ActorRunner, actorID string) *TwitterAdapter {
	return &TwitterAdapter{runner: runner, actorID: actorID}
}

func (a *TwitterAdapter) Platform() models.Platform {
	return models.PlatformTwitter
}

func (a *TwitterAdapter) Fetch(ctx context.Context, username string, maxItems, skip int) ([]RawItem, error) {
	input := map[string]any{
		"twitterHandles": []string{username},
		"maxItems":       maxItems + skip,
		"sort":           "Latest",
		"onlyVideo":      true,
	}

	items, err := a.runner.RunSync(ctx, a.actorID, input)
	if err != nil {
		return nil, fetchErr(models.PlatformTwitter, username, err)
	}
	if skip >= len(items) {
		return nil, nil
	}
	return items[skip:], nil
}

func (a *TwitterAdapter) FetchByRefs(ctx context.Context, refs []VideoRef) ([]RawItem, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	// The actor accepts the full id set in one request.
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.PlatformVideoID)
	}

	input := map[string]any{
		"tweetIDs": ids,
		"maxItems": len(ids),
	}

	items, err := a.runner.RunSync(ctx, a.actorID, input)
	if err != nil {
		return nil, fetchErr(models.PlatformTwitter, "", err)
	}
	return items, nil
}

func (a *TwitterAdapter) ExtractID(item RawItem) string {
	return getString(item, "id")
}

func (a *TwitterAdapter) ExtractVerified(item RawItem) *bool {
	return getBool(item, "author.isVerified")
}

func (a *TwitterAdapter) ExtractBlueVerified(item RawItem) *bool {
	return getBool(item, "author.isBlueVerified")
}

func (a *TwitterAdapter) Extract(item RawItem) (*FetchedVideo, error) {
	id := a.ExtractID(item)
	if id == "" {
		return nil, fmt.Errorf("twitter record has no id")
	}

	return &FetchedVideo{
		ID:           id,
		URL:          getString(item, "url", "twitterUrl"),
		ThumbnailURL: getString(item, "extendedEntities.media.0.media_url_https", "media.0.thumbnailUrl"),
		Caption:      getString(item, "text", "fullText"),
		UploadedAt:   getTime(item, "createdAt"),
		Metrics: metricsFrom(item,
			[]string{"viewCount"},
			[]string{"likeCount"},
			[]string{"replyCount"},
			[]string{"retweetCount"},
			[]string{"bookmarkCount"},
		),
	}, nil
}
