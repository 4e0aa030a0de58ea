package platform

import (
	"context"
	"fmt"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// InstagramAdapter drives instagram through the actor service.
type InstagramAdapter struct {
	runner  ActorRunner
	actorID string
}

// NewInstagramAdapter creates the instagram adapter.
func NewInstagramAdapter(runner ActorRunner, actorID string) *InstagramAdapter {
	return &InstagramAdapter{runner: runner, actorID: actorID}
}

func (a *InstagramAdapter) Platform() models.Platform {
	return models.PlatformInstagram
}

func (a *InstagramAdapter) Fetch(ctx context.Context, username string, maxItems, skip int) ([]RawItem, error) {
	input := map[string]any{
		"directUrls":    []string{fmt.Sprintf("https://www.instagram.com/%s/", username)},
		"resultsType":   "posts",
		"resultsLimit":  maxItems + skip,
		"addParentData": false,
		"proxy": map[string]any{
			"useApifyProxy":    true,
			"apifyProxyGroups": []string{"RESIDENTIAL"},
		},
	}

	items, err := a.runner.RunSync(ctx, a.actorID, input)
	if err != nil {
		return nil, fetchErr(models.PlatformInstagram, username, err)
	}
	if skip >= len(items) {
		return nil, nil
	}
	return items[skip:], nil
}

func (a *InstagramAdapter) FetchByRefs(ctx context.Context, refs []VideoRef) ([]RawItem, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	// One multi-item request for the whole set; matching happens afterwards
	// by extracted id.
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}

	input := map[string]any{
		"directUrls":    urls,
		"resultsType":   "posts",
		"addParentData": false,
		"proxy": map[string]any{
			"useApifyProxy":    true,
			"apifyProxyGroups": []string{"RESIDENTIAL"},
		},
	}

	items, err := a.runner.RunSync(ctx, a.actorID, input)
	if err != nil {
		return nil, fetchErr(models.PlatformInstagram, "", err)
	}
	return items, nil
}

func (a *InstagramAdapter) ExtractID(item RawItem) string {
	return getString(item, "id", "shortCode")
}

func (a *InstagramAdapter) ExtractVerified(item RawItem) *bool {
	return getBool(item, "ownerVerified", "owner.is_verified")
}

func (a *InstagramAdapter) ExtractBlueVerified(item RawItem) *bool {
	return nil
}

func (a *InstagramAdapter) Extract(item RawItem) (*FetchedVideo, error) {
	id := a.ExtractID(item)
	if id == "" {
		return nil, fmt.Errorf("instagram record has no id")
	}

	return &FetchedVideo{
		ID:           id,
		URL:          getString(item, "url"),
		ThumbnailURL: getString(item, "displayUrl", "thumbnailUrl"),
		Caption:      getString(item, "caption"),
		UploadedAt:   getTime(item, "timestamp"),
		Metrics: metricsFrom(item,
			[]string{"videoPlayCount", "videoViewCount"},
			[]string{"likesCount"},
			[]string{"commentsCount"},
			[]string{"sharesCount"},
			[]string{"savesCount"},
		),
	}, nil
}
