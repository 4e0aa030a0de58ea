package platform

import (
	"context"
	"fmt"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// TikTokAdapter drives tiktok through the actor service.
type TikTokAdapter struct {
	runner  ActorRunner
	actorID string
}

// NewTikTokAdapter creates the tiktok adapter.
func NewTikTokAdapter(runner ActorRunner, actorID string) *TikTokAdapter {
	return &TikTokAdapter{runner: runner, actorID: actorID}
}

func (a *TikTokAdapter) Platform() models.Platform {
	return models.PlatformTikTok
}

func (a *TikTokAdapter) Fetch(ctx context.Context, username string, maxItems, skip int) ([]RawItem, error) {
	input := map[string]any{
		"profiles":       []string{username},
		"resultsPerPage": maxItems + skip,
		"profileSorting": "latest",
		"proxyCountryCode": "None",
	}

	items, err := a.runner.RunSync(ctx, a.actorID, input)
	if err != nil {
		return nil, fetchErr(models.PlatformTikTok, username, err)
	}
	if skip >= len(items) {
		return nil, nil
	}
	return items[skip:], nil
}

func (a *TikTokAdapter) FetchByRefs(ctx context.Context, refs []VideoRef) ([]RawItem, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}

	input := map[string]any{
		"postURLs": urls,
	}

	items, err := a.runner.RunSync(ctx, a.actorID, input)
	if err != nil {
		return nil, fetchErr(models.PlatformTikTok, "", err)
	}
	return items, nil
}

func (a *TikTokAdapter) ExtractID(item RawItem) string {
	return getString(item, "id")
}

func (a *TikTokAdapter) ExtractVerified(item RawItem) *bool {
	return getBool(item, "authorMeta.verified")
}

func (a *TikTokAdapter) ExtractBlueVerified(item RawItem) *bool {
	return nil
}

func (a *TikTokAdapter) Extract(item RawItem) (*FetchedVideo, error) {
	id := a.ExtractID(item)
	if id == "" {
		return nil, fmt.Errorf("tiktok record has no id")
	}

	return &FetchedVideo{
		ID:           id,
		URL:          getString(item, "webVideoUrl"),
		ThumbnailURL: getString(item, "videoMeta.coverUrl", "covers.default"),
		Caption:      getString(item, "text"),
		UploadedAt:   getTime(item, "createTimeISO", "createTime"),
		Metrics: metricsFrom(item,
			[]string{"playCount"},
			[]string{"diggCount"},
			[]string{"commentCount"},
			[]string{"shareCount"},
			[]string{"collectCount"},
		),
	}, nil
}
