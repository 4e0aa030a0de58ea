package models

import (
	"database/sql"
	"time"
)

// DeletedVideo is a blacklist entry for a video a human has explicitly removed.
// A blacklisted platform id is never reinserted as a Video regardless of how
// many times it reappears in a fetch.
type DeletedVideo struct {
	ID              int64          `db:"id"`
	OrganizationID  string         `db:"organization_id"`
	ProjectID       string         `db:"project_id"`
	PlatformVideoID string         `db:"platform_video_id"`
	Reason          string         `db:"reason"`
	DeletedBy       sql.NullString `db:"deleted_by"`
	CreatedAt       time.Time      `db:"created_at"`
}
