package platform

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// youtubeBatchSize is the id-batch cap of the videos.list endpoint.
const youtubeBatchSize = 50

// YouTubeAdapter drives youtube through the first-party Data API. Fetching an
// account's items is a three-step resolution: channel id, uploads playlist,
// then item details in id-batches of up to 50.
type YouTubeAdapter struct {
	service *youtube.Service
}

// NewYouTubeAdapter creates the youtube adapter.
func NewYouTubeAdapter(ctx context.Context, apiKey string) (*YouTubeAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &YouTubeAdapter{service: service}, nil
}

func (a *YouTubeAdapter) Platform() models.Platform {
	return models.PlatformYouTube
}

func (a *YouTubeAdapter) Fetch(ctx context.Context, username string, maxItems, skip int) ([]RawItem, error) {
	uploadsID, err := a.resolveUploadsPlaylist(ctx, username)
	if err != nil {
		return nil, fetchErr(models.PlatformYouTube, username, err)
	}

	videoIDs, err := a.listPlaylistVideoIDs(ctx, uploadsID, maxItems+skip)
	if err != nil {
		return nil, fetchErr(models.PlatformYouTube, username, err)
	}
	if skip >= len(videoIDs) {
		return nil, nil
	}
	videoIDs = videoIDs[skip:]

	items, err := a.fetchDetails(ctx, videoIDs, false)
	if err != nil {
		return nil, fetchErr(models.PlatformYouTube, username, err)
	}
	return items, nil
}

func (a *YouTubeAdapter) FetchByRefs(ctx context.Context, refs []VideoRef) ([]RawItem, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.PlatformVideoID)
	}

	// Bulk mode tolerates partial failure: a failed chunk is logged and
	// skipped, the others proceed.
	items, err := a.fetchDetails(ctx, ids, true)
	if err != nil {
		return nil, fetchErr(models.PlatformYouTube, "", err)
	}
	return items, nil
}

// resolveUploadsPlaylist resolves a handle or legacy username to the
// channel's uploads playlist id.
func (a *YouTubeAdapter) resolveUploadsPlaylist(ctx context.Context, username string) (string, error) {
	call := a.service.Channels.List([]string{"contentDetails"}).ForHandle(username).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("resolve channel: %w", err)
	}

	if len(resp.Items) == 0 {
		resp, err = a.service.Channels.List([]string{"contentDetails"}).ForUsername(username).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("resolve channel by username: %w", err)
		}
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel %q not found", username)
	}

	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("channel %q has no uploads playlist", username)
	}
	return uploads, nil
}

// listPlaylistVideoIDs pages through the uploads playlist, newest first,
// collecting up to limit video ids.
func (a *YouTubeAdapter) listPlaylistVideoIDs(ctx context.Context, playlistID string, limit int) ([]string, error) {
	var ids []string
	pageToken := ""

	for len(ids) < limit {
		pageSize := int64(limit - len(ids))
		if pageSize > youtubeBatchSize {
			pageSize = youtubeBatchSize
		}

		call := a.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}

		for _, item := range resp.Items {
			ids = append(ids, item.ContentDetails.VideoId)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(resp.Items) == 0 {
			break
		}
	}

	return ids, nil
}

// fetchDetails retrieves video details in id-batches of up to 50. When
// skipFailedChunks is set a failed chunk is logged and skipped instead of
// aborting the whole fetch.
func (a *YouTubeAdapter) fetchDetails(ctx context.Context, videoIDs []string, skipFailedChunks bool) ([]RawItem, error) {
	var items []RawItem

	for start := 0; start < len(videoIDs); start += youtubeBatchSize {
		end := start + youtubeBatchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		chunk := videoIDs[start:end]

		resp, err := a.service.Videos.List([]string{"snippet", "statistics"}).
			Id(chunk...).
			Context(ctx).
			Do()
		if err != nil {
			if skipFailedChunks {
				logger.Log.Warn("youtube videos.list chunk failed, skipping",
					zap.Int("chunkStart", start),
					zap.Int("chunkSize", len(chunk)),
					zap.Error(err),
				)
				continue
			}
			return nil, fmt.Errorf("videos.list: %w", err)
		}

		for _, video := range resp.Items {
			items = append(items, rawItemFromVideo(video))
		}
	}

	return items, nil
}

// rawItemFromVideo flattens an API video into the adapter's uniform record shape.
func rawItemFromVideo(video *youtube.Video) RawItem {
	item := RawItem{
		"id":  video.Id,
		"url": fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.Id),
	}

	if video.Snippet != nil {
		item["caption"] = video.Snippet.Title
		item["publishedAt"] = video.Snippet.PublishedAt
		if video.Snippet.Thumbnails != nil {
			switch {
			case video.Snippet.Thumbnails.Maxres != nil:
				item["thumbnail"] = video.Snippet.Thumbnails.Maxres.Url
			case video.Snippet.Thumbnails.High != nil:
				item["thumbnail"] = video.Snippet.Thumbnails.High.Url
			case video.Snippet.Thumbnails.Default != nil:
				item["thumbnail"] = video.Snippet.Thumbnails.Default.Url
			}
		}
	}

	if video.Statistics != nil {
		item["viewCount"] = float64(video.Statistics.ViewCount)
		item["likeCount"] = float64(video.Statistics.LikeCount)
		item["commentCount"] = float64(video.Statistics.CommentCount)
	}

	return item
}

func (a *YouTubeAdapter) ExtractID(item RawItem) string {
	return getString(item, "id")
}

// ExtractVerified always returns nil: the Data API carries no per-record
// verification flag.
func (a *YouTubeAdapter) ExtractVerified(item RawItem) *bool {
	return nil
}

func (a *YouTubeAdapter) ExtractBlueVerified(item RawItem) *bool {
	return nil
}

func (a *YouTubeAdapter) Extract(item RawItem) (*FetchedVideo, error) {
	id := a.ExtractID(item)
	if id == "" {
		return nil, fmt.Errorf("youtube record has no id")
	}

	return &FetchedVideo{
		ID:           id,
		URL:          getString(item, "url"),
		ThumbnailURL: getString(item, "thumbnail"),
		Caption:      getString(item, "caption"),
		UploadedAt:   getTime(item, "publishedAt"),
		Metrics: metricsFrom(item,
			[]string{"viewCount"},
			[]string{"likeCount"},
			[]string{"commentCount"},
			nil,
			nil,
		),
	}, nil
}
