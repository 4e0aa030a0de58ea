package models

import "time"

// Capture sources recorded on snapshots. The first half names the trigger,
// the second whether the snapshot is the creation event or a refresh.
const (
	CaptureScheduledInitial = "scheduled:initial"
	CaptureScheduledRefresh = "scheduled:refresh"
	CaptureManualInitial    = "manual:initial"
	CaptureManualRefresh    = "manual:refresh"
)

// Snapshot is an immutable capture of a video's metrics at one refresh event.
// Exactly one snapshot is appended per video per successful write; snapshots
// are never mutated or deleted after creation.
type Snapshot struct {
	ID                int64     `db:"id"`
	VideoID           int64     `db:"video_id"`
	Metrics           Metrics   `db:""`
	CapturedAt        time.Time `db:"captured_at"`
	CapturedBy        string    `db:"captured_by"`
	IsInitialSnapshot bool      `db:"is_initial_snapshot"`
}

// NewSnapshot creates a snapshot of the given metrics captured now.
func NewSnapshot(videoID int64, metrics Metrics, capturedBy string, initial bool) *Snapshot {
	return &Snapshot{
		VideoID:           videoID,
		Metrics:           metrics,
		CapturedAt:        time.Now(),
		CapturedBy:        capturedBy,
		IsInitialSnapshot: initial,
	}
}

// CaptureSource builds the captured_by label for a trigger/phase combination.
func CaptureSource(manual, initial bool) string {
	switch {
	case manual && initial:
		return CaptureManualInitial
	case manual:
		return CaptureManualRefresh
	case initial:
		return CaptureScheduledInitial
	default:
		return CaptureScheduledRefresh
	}
}
