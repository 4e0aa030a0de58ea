package models

import (
	"database/sql"
	"time"
)

// Organization is the top-level tenant and quota boundary.
type Organization struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Plan        string         `db:"plan"`
	NotifyEmail sql.NullString `db:"notify_email"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Project is a sub-scope within a tenant containing tracked accounts and videos.
type Project struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Name           string    `db:"name"`
	CreatedAt      time.Time `db:"created_at"`
}

// UsageCounter tracks how many videos an organization currently has against
// its plan-derived limit. The persistence layer must never commit a batch
// that pushes TrackedVideos above VideoLimit.
type UsageCounter struct {
	OrganizationID string    `db:"organization_id"`
	TrackedVideos  int       `db:"tracked_videos"`
	VideoLimit     int       `db:"video_limit"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Remaining returns how many video slots the organization has left.
func (u *UsageCounter) Remaining() int {
	if r := u.VideoLimit - u.TrackedVideos; r > 0 {
		return r
	}
	return 0
}
