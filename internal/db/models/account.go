package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Platform identifies one of the four supported content platforms.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
)

// ParsePlatform maps a stored platform value onto the closed Platform set.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(s)) {
	case PlatformInstagram:
		return PlatformInstagram, nil
	case PlatformTikTok:
		return PlatformTikTok, nil
	case PlatformYouTube:
		return PlatformYouTube, nil
	case PlatformTwitter:
		return PlatformTwitter, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// CreatorType controls whether new-video discovery runs for an account.
type CreatorType string

const (
	// CreatorAutomatic accounts get new-video discovery plus metric refresh.
	CreatorAutomatic CreatorType = "automatic"
	// CreatorStatic accounts only get their already-tracked videos refreshed.
	CreatorStatic CreatorType = "static"
)

// TrackedAccount represents a social account tracked on behalf of a project.
// Accounts are created and deleted by external account-management flows; the
// sync engine only stamps LastSynced and the verification flags.
type TrackedAccount struct {
	ID             int64        `db:"id"`
	OrganizationID string       `db:"organization_id"`
	ProjectID      string       `db:"project_id"`
	Platform       Platform     `db:"platform"`
	Username       string       `db:"username"`
	CreatorType    CreatorType  `db:"creator_type"`
	IsActive       bool         `db:"is_active"`
	IsVerified     sql.NullBool `db:"is_verified"`
	IsBlueVerified sql.NullBool `db:"is_blue_verified"`
	LastSynced     sql.NullTime `db:"last_synced"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}
