package models

import "time"

// Metrics holds the engagement counters captured for a video.
type Metrics struct {
	Views    int64 `db:"views" json:"views"`
	Likes    int64 `db:"likes" json:"likes"`
	Comments int64 `db:"comments" json:"comments"`
	Shares   int64 `db:"shares" json:"shares"`
	Saves    int64 `db:"saves" json:"saves"`
}

// VideoStatus is the tracking state of a video record.
type VideoStatus string

const (
	VideoStatusActive VideoStatus = "active"
)

// Video represents a tracked video owned by exactly one TrackedAccount.
// It is logically keyed by (organization_id, project_id, platform_video_id);
// PlatformVideoID is the platform-native identifier, distinct from the storage key.
type Video struct {
	ID              int64       `db:"id"`
	OrganizationID  string      `db:"organization_id"`
	ProjectID       string      `db:"project_id"`
	AccountID       int64       `db:"account_id"`
	Platform        Platform    `db:"platform"`
	PlatformVideoID string      `db:"platform_video_id"`
	URL             string      `db:"url"`
	Thumbnail       string      `db:"thumbnail"`
	Caption         string      `db:"caption"`
	UploadDate      time.Time   `db:"upload_date"`
	Metrics         Metrics     `db:""`
	Status          VideoStatus `db:"status"`
	LastRefreshed   time.Time   `db:"last_refreshed"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// NewVideo creates a Video for first-time persistence of a discovered item.
func NewVideo(account *TrackedAccount, platformVideoID, url, thumbnail, caption string, uploadDate time.Time, metrics Metrics) *Video {
	now := time.Now()
	return &Video{
		OrganizationID:  account.OrganizationID,
		ProjectID:       account.ProjectID,
		AccountID:       account.ID,
		Platform:        account.Platform,
		PlatformVideoID: platformVideoID,
		URL:             url,
		Thumbnail:       thumbnail,
		Caption:         caption,
		UploadDate:      uploadDate,
		Metrics:         metrics,
		Status:          VideoStatusActive,
		LastRefreshed:   now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Refresh overwrites the video's metrics after a successful provider re-fetch.
func (v *Video) Refresh(metrics Metrics) {
	v.Metrics = metrics
	v.LastRefreshed = time.Now()
	v.UpdatedAt = time.Now()
}
