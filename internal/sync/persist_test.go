package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/db/repository"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/internal/thumbnail"
)

func candidates(n int) []*platform.FetchedVideo {
	out := make([]*platform.FetchedVideo, n)
	for i := range out {
		id := fmt.Sprintf("new-%02d", i)
		out[i] = &platform.FetchedVideo{
			ID:      id,
			URL:     "https://example.com/" + id,
			Metrics: models.Metrics{Views: int64(i * 10)},
		}
	}
	return out
}

func newTestPersister(videos *mockVideoRepo, usage *mockUsageRepo, blacklist *mockBlacklist, thumbs *mockThumbnailer, chunkSize int) *Persister {
	return NewPersister(videos, usage, blacklist, thumbs, chunkSize)
}

// Fresh account, 10 candidates, no blacklist hits, quota open: exactly 10
// videos with 10 initial snapshots in one batch, usage counter += 10.
func TestSaveNewCommitsAllCandidates(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	blacklist := &mockBlacklist{}
	account := testAccount(1, models.CreatorAutomatic)

	usage.On("Get", mock.Anything, "org-1").
		Return(&models.UsageCounter{OrganizationID: "org-1", TrackedVideos: 0, VideoLimit: 100}, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", mock.Anything).Return(false, nil)
	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		if len(ops) != 10 {
			return false
		}
		for _, op := range ops {
			if !op.Insert || op.Snapshot == nil || !op.Snapshot.IsInitialSnapshot {
				return false
			}
			if op.Snapshot.CapturedBy != models.CaptureScheduledInitial {
				return false
			}
		}
		return true
	})).Return(nil).Once()
	usage.On("IncrementTracked", mock.Anything, "org-1", 10).Return(nil).Once()

	p := newTestPersister(videos, usage, blacklist, nil, 0)
	result, err := p.SaveNew(context.Background(), account, candidates(10), false)

	require.NoError(t, err)
	assert.Equal(t, 10, result.Inserted)
	assert.Zero(t, result.SkippedQuota)
	assert.Zero(t, result.SkippedBlacklist)
	videos.AssertExpectations(t)
	usage.AssertExpectations(t)
}

// Two quota slots left, five new candidates: two inserted, three skipped and
// counted, usage counter += 2.
func TestSaveNewRespectsQuota(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	blacklist := &mockBlacklist{}
	account := testAccount(1, models.CreatorAutomatic)

	usage.On("Get", mock.Anything, "org-1").
		Return(&models.UsageCounter{OrganizationID: "org-1", TrackedVideos: 8, VideoLimit: 10}, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", mock.Anything).Return(false, nil)
	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		return len(ops) == 2
	})).Return(nil).Once()
	usage.On("IncrementTracked", mock.Anything, "org-1", 2).Return(nil).Once()

	p := newTestPersister(videos, usage, blacklist, nil, 0)
	result, err := p.SaveNew(context.Background(), account, candidates(5), false)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 3, result.SkippedQuota)
	usage.AssertExpectations(t)
}

// A blacklisted id is never materialized as a video, and it is dropped before
// the quota check: with one slot left, a blacklisted first candidate does not
// consume the slot the second candidate needs.
func TestSaveNewBlacklistSkipsBeforeQuota(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	blacklist := &mockBlacklist{}
	account := testAccount(1, models.CreatorAutomatic)

	cands := candidates(2)
	usage.On("Get", mock.Anything, "org-1").
		Return(&models.UsageCounter{OrganizationID: "org-1", TrackedVideos: 9, VideoLimit: 10}, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", cands[0].ID).Return(true, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", cands[1].ID).Return(false, nil).Once()
	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		return len(ops) == 1 && ops[0].Video.PlatformVideoID == cands[1].ID
	})).Return(nil).Once()
	usage.On("IncrementTracked", mock.Anything, "org-1", 1).Return(nil).Once()

	p := newTestPersister(videos, usage, blacklist, nil, 0)
	result, err := p.SaveNew(context.Background(), account, cands, false)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.SkippedBlacklist)
	assert.Zero(t, result.SkippedQuota)
	videos.AssertExpectations(t)
}

// A failed chunk is skipped while committed chunks stand; the usage counter
// grows only by the committed inserts.
func TestSaveNewFailedChunkDoesNotAbortRemaining(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	blacklist := &mockBlacklist{}
	account := testAccount(1, models.CreatorAutomatic)

	usage.On("Get", mock.Anything, "org-1").
		Return(&models.UsageCounter{OrganizationID: "org-1", TrackedVideos: 0, VideoLimit: 100}, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", mock.Anything).Return(false, nil)

	// Chunk size 2 over 5 candidates: chunks of 2, 2, 1. Fail the middle one.
	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		return ops[0].Video.PlatformVideoID == "new-02"
	})).Return(errors.New("deadlock detected"))
	videos.On("WriteBatch", mock.Anything, mock.Anything).Return(nil)
	usage.On("IncrementTracked", mock.Anything, "org-1", 3).Return(nil).Once()

	p := newTestPersister(videos, usage, blacklist, nil, 2)
	result, err := p.SaveNew(context.Background(), account, candidates(5), false)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)
	usage.AssertExpectations(t)
}

// A thumbnail download failure saves the video without a thumbnail. The
// provider's CDN URL is never persisted as a substitute.
func TestSaveNewThumbnailFailureSavesWithoutThumbnail(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	blacklist := &mockBlacklist{}
	thumbs := &mockThumbnailer{}
	account := testAccount(1, models.CreatorAutomatic)

	cands := candidates(1)
	cands[0].ThumbnailURL = "https://scontent.cdninstagram.com/v/t51/thumb.jpg"

	usage.On("Get", mock.Anything, "org-1").
		Return(&models.UsageCounter{OrganizationID: "org-1", TrackedVideos: 0, VideoLimit: 100}, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", mock.Anything).Return(false, nil)
	thumbs.On("Process", mock.Anything, cands[0].ThumbnailURL, models.PlatformInstagram, "org-1", "proj-1", cands[0].ID).
		Return("", &thumbnail.DownloadError{URL: cands[0].ThumbnailURL, Err: errors.New("403")}).Once()
	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		return len(ops) == 1 && ops[0].Video.Thumbnail == ""
	})).Return(nil).Once()
	usage.On("IncrementTracked", mock.Anything, "org-1", 1).Return(nil).Once()

	p := newTestPersister(videos, usage, blacklist, thumbs, 0)
	result, err := p.SaveNew(context.Background(), account, cands, false)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	videos.AssertExpectations(t)
	thumbs.AssertExpectations(t)
}

func TestSaveNewManualRunLabelsSnapshots(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	blacklist := &mockBlacklist{}
	account := testAccount(1, models.CreatorAutomatic)

	usage.On("Get", mock.Anything, "org-1").
		Return(&models.UsageCounter{OrganizationID: "org-1", TrackedVideos: 0, VideoLimit: 10}, nil).Once()
	blacklist.On("IsBlacklisted", mock.Anything, "org-1", "proj-1", mock.Anything).Return(false, nil)
	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		return ops[0].Snapshot.CapturedBy == models.CaptureManualInitial
	})).Return(nil).Once()
	usage.On("IncrementTracked", mock.Anything, "org-1", 1).Return(nil).Once()

	p := newTestPersister(videos, usage, blacklist, nil, 0)
	_, err := p.SaveNew(context.Background(), account, candidates(1), true)

	require.NoError(t, err)
	videos.AssertExpectations(t)
}

// Refresh writes append exactly one non-initial snapshot per update and never
// touch the usage counter.
func TestSaveRefreshedAppendsOneSnapshotPerUpdate(t *testing.T) {
	videos := &mockVideoRepo{}
	usage := &mockUsageRepo{}
	account := testAccount(1, models.CreatorAutomatic)

	persisted := persistedVideos("a", "b")
	updates := []RefreshUpdate{
		{Video: persisted[0], Metrics: models.Metrics{Views: 11}},
		{Video: persisted[1], Metrics: models.Metrics{Views: 22}},
	}

	videos.On("WriteBatch", mock.Anything, mock.MatchedBy(func(ops []repository.WriteOp) bool {
		if len(ops) != 2 {
			return false
		}
		for _, op := range ops {
			if op.Insert || op.Snapshot == nil || op.Snapshot.IsInitialSnapshot {
				return false
			}
			if op.Snapshot.CapturedBy != models.CaptureScheduledRefresh {
				return false
			}
		}
		return ops[0].Snapshot.VideoID == persisted[0].ID && ops[0].Snapshot.Metrics.Views == 11
	})).Return(nil).Once()

	p := newTestPersister(videos, usage, &mockBlacklist{}, nil, 0)
	refreshed, err := p.SaveRefreshed(context.Background(), account, updates, false)

	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	assert.Equal(t, int64(11), persisted[0].Metrics.Views)
	usage.AssertNotCalled(t, "Get")
	usage.AssertNotCalled(t, "IncrementTracked")
	videos.AssertExpectations(t)
}

// A durable thumbnail is left alone; a still-CDN thumbnail is replaced.
func TestSaveRefreshedThumbnailReplacement(t *testing.T) {
	videos := &mockVideoRepo{}
	thumbs := &mockThumbnailer{}
	account := testAccount(1, models.CreatorAutomatic)

	persisted := persistedVideos("a", "b")
	persisted[0].Thumbnail = "https://storage.googleapis.com/bucket/orgs/org-1/projects/proj-1/thumbnails/tiktok_a.jpg"
	persisted[1].Thumbnail = "https://p16-sign.tiktokcdn-us.com/obj/cover.heic"

	updates := []RefreshUpdate{
		{Video: persisted[0], Metrics: models.Metrics{Views: 1}, ThumbnailURL: "https://cdn.example.com/a.jpg"},
		{Video: persisted[1], Metrics: models.Metrics{Views: 2}, ThumbnailURL: "https://cdn.example.com/b.jpg"},
	}

	thumbs.On("Process", mock.Anything, "https://cdn.example.com/b.jpg", models.PlatformInstagram, "org-1", "proj-1", "b").
		Return("https://storage.googleapis.com/bucket/orgs/org-1/projects/proj-1/thumbnails/tiktok_b.jpg", nil).Once()
	videos.On("UpdateThumbnail", mock.Anything, persisted[1].ID, mock.Anything).Return(nil).Once()
	videos.On("WriteBatch", mock.Anything, mock.Anything).Return(nil).Once()

	p := newTestPersister(videos, &mockUsageRepo{}, &mockBlacklist{}, thumbs, 0)
	refreshed, err := p.SaveRefreshed(context.Background(), account, updates, false)

	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	thumbs.AssertNumberOfCalls(t, "Process", 1)
	videos.AssertExpectations(t)
}
