// Package platform adapts the four heterogeneous content platforms behind a
// uniform fetch/extract contract. instagram, tiktok and twitter run through a
// managed actor/scraping service; youtube runs through the YouTube Data API.
package platform

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// RawItem is one untyped provider record.
type RawItem map[string]any

// VideoRef identifies one persisted video for a bulk re-fetch.
type VideoRef struct {
	PlatformVideoID string
	URL             string
}

// FetchedVideo is a provider record normalized into the engine's vocabulary.
type FetchedVideo struct {
	ID           string
	URL          string
	ThumbnailURL string
	Caption      string
	UploadedAt   time.Time
	Metrics      models.Metrics
}

// Adapter is the per-platform fetch/extract contract.
//
// Fetch returns the account's most recent items, newest first. An empty slice
// means end of content; a provider error sentinel raises a *FetchError.
type Adapter interface {
	Platform() models.Platform

	// Fetch retrieves up to maxItems of the account's newest items, skipping
	// the first skip items.
	Fetch(ctx context.Context, username string, maxItems, skip int) ([]RawItem, error)

	// FetchByRefs bulk re-fetches the given already-tracked videos using the
	// platform's bulk capability.
	FetchByRefs(ctx context.Context, refs []VideoRef) ([]RawItem, error)

	// ExtractID returns the platform-native video id, or "" when the record
	// carries none.
	ExtractID(item RawItem) string

	// ExtractVerified returns the account verification flag when the record
	// carries one.
	ExtractVerified(item RawItem) *bool

	// ExtractBlueVerified returns the paid-verification flag. Only meaningful
	// for twitter; other adapters return nil.
	ExtractBlueVerified(item RawItem) *bool

	// Extract normalizes a record into a FetchedVideo.
	Extract(item RawItem) (*FetchedVideo, error)
}

// Registry is the closed dispatch table over the four adapters, selected once
// at account-processing start.
type Registry map[models.Platform]Adapter

// For returns the adapter for a platform.
func (r Registry) For(p models.Platform) (Adapter, bool) {
	adapter, ok := r[p]
	return adapter, ok
}

// lookup walks a dotted path ("author.isVerified", "media.0.url") through
// nested maps and arrays.
func lookup(item RawItem, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = map[string]any(item)
	for _, part := range parts {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// getString returns the first non-empty string found at the given paths.
func getString(item RawItem, paths ...string) string {
	for _, path := range paths {
		if v, ok := lookup(item, path); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// getInt64 returns the first numeric value found at the given paths. Providers
// deliver counters as JSON numbers or numeric strings interchangeably.
func getInt64(item RawItem, paths ...string) int64 {
	for _, path := range paths {
		v, ok := lookup(item, path)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int64:
			return n
		case int:
			return int64(n)
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// getBool returns the boolean at the first matching path, or nil.
func getBool(item RawItem, paths ...string) *bool {
	for _, path := range paths {
		if v, ok := lookup(item, path); ok {
			if b, ok := v.(bool); ok {
				return &b
			}
		}
	}
	return nil
}

// getTime parses the first RFC3339 (or unix-seconds) timestamp at the paths.
func getTime(item RawItem, paths ...string) time.Time {
	for _, path := range paths {
		v, ok := lookup(item, path)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed
			}
			// Twitter-style "Mon Jan 02 15:04:05 -0700 2006"
			if parsed, err := time.Parse(time.RubyDate, t); err == nil {
				return parsed
			}
		case float64:
			return time.Unix(int64(t), 0).UTC()
		}
	}
	return time.Time{}
}

// Metrics assembled by each adapter from its platform's counter names.
func metricsFrom(item RawItem, views, likes, comments, shares, saves []string) models.Metrics {
	return models.Metrics{
		Views:    getInt64(item, views...),
		Likes:    getInt64(item, likes...),
		Comments: getInt64(item, comments...),
		Shares:   getInt64(item, shares...),
		Saves:    getInt64(item, saves...),
	}
}
