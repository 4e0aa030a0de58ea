package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// DedupOracle answers whether a platform-native video id is already persisted
// for a project. Backed by the video repository; deliberately uncached, the
// discovery and persistence call sites each query independently.
type DedupOracle interface {
	Exists(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error)
}

const seedFetchCount = 10

// probeSizes is the ascending probe sequence for accounts that already have
// persisted videos. Providers return newest-first, so the first duplicate id
// means everything older is already known.
var probeSizes = []int{5, 10, 15, 20}

// StopReason records why discovery terminated.
type StopReason string

const (
	StopSkipped    StopReason = "skipped"     // static account, discovery never ran
	StopSeeded     StopReason = "seeded"      // empty account, single seed fetch
	StopDuplicate  StopReason = "duplicate"   // probe hit an already-persisted id
	StopShortPage  StopReason = "short_page"  // provider returned fewer than requested
	StopFetchError StopReason = "fetch_error" // probe fetch failed, kept accumulated candidates
	StopExhausted  StopReason = "exhausted"   // probe size sequence ran out
)

// DiscoveryResult carries the discovery candidates plus the freshest
// verification flags seen during fetching.
type DiscoveryResult struct {
	Candidates   []*platform.FetchedVideo
	Reason       StopReason
	Verified     *bool
	BlueVerified *bool
}

// DiscoverNew runs the incremental discovery state machine for one account.
//
// static accounts skip discovery entirely. automatic accounts with no
// persisted videos fetch exactly the seed count in one call. Accounts with
// history probe with the ascending size sequence and stop on the first
// duplicate, a short page, a fetch error, or sequence exhaustion; candidates
// accumulated before a fetch error are kept.
func DiscoverNew(ctx context.Context, adapter platform.Adapter, account *models.TrackedAccount, persistedCount int, oracle DedupOracle) (*DiscoveryResult, error) {
	if account.CreatorType == models.CreatorStatic {
		return &DiscoveryResult{Reason: StopSkipped}, nil
	}

	if persistedCount == 0 {
		return seedDiscovery(ctx, adapter, account)
	}

	return probeDiscovery(ctx, adapter, account, oracle)
}

// seedDiscovery fetches the fixed seed count in one call; every returned item
// is a candidate since nothing is persisted yet.
func seedDiscovery(ctx context.Context, adapter platform.Adapter, account *models.TrackedAccount) (*DiscoveryResult, error) {
	items, err := adapter.Fetch(ctx, account.Username, seedFetchCount, 0)
	if err != nil {
		return nil, err
	}

	result := &DiscoveryResult{Reason: StopSeeded}
	collectFlags(adapter, items, result)

	for _, item := range items {
		video, err := adapter.Extract(item)
		if err != nil {
			logger.Log.Warn("skipping unextractable record",
				zap.String("platform", string(account.Platform)),
				zap.String("username", account.Username),
				zap.Error(err),
			)
			continue
		}
		result.Candidates = append(result.Candidates, video)
	}

	return result, nil
}

func probeDiscovery(ctx context.Context, adapter platform.Adapter, account *models.TrackedAccount, oracle DedupOracle) (*DiscoveryResult, error) {
	result := &DiscoveryResult{Reason: StopExhausted}
	seen := make(map[string]bool)

	for _, size := range probeSizes {
		items, err := adapter.Fetch(ctx, account.Username, size, 0)
		if err != nil {
			// Keep whatever was accumulated; no retry at the same size.
			logger.Log.Warn("probe fetch failed, keeping accumulated candidates",
				zap.String("platform", string(account.Platform)),
				zap.String("username", account.Username),
				zap.Int("probeSize", size),
				zap.Int("candidates", len(result.Candidates)),
				zap.Error(err),
			)
			result.Reason = StopFetchError
			return result, nil
		}

		collectFlags(adapter, items, result)

		for _, item := range items {
			id := adapter.ExtractID(item)
			if id == "" || seen[id] {
				continue
			}

			exists, err := oracle.Exists(ctx, account.OrganizationID, account.ProjectID, id)
			if err != nil {
				return nil, err
			}
			if exists {
				// Newest-first ordering: everything older is already known.
				result.Reason = StopDuplicate
				return result, nil
			}

			video, err := adapter.Extract(item)
			if err != nil {
				logger.Log.Warn("skipping unextractable record",
					zap.String("platform", string(account.Platform)),
					zap.String("username", account.Username),
					zap.Error(err),
				)
				continue
			}
			seen[id] = true
			result.Candidates = append(result.Candidates, video)
		}

		if len(items) < size {
			result.Reason = StopShortPage
			return result, nil
		}
	}

	return result, nil
}

// collectFlags captures verification flags from the first record that carries
// them.
func collectFlags(adapter platform.Adapter, items []platform.RawItem, result *DiscoveryResult) {
	for _, item := range items {
		if result.Verified == nil {
			result.Verified = adapter.ExtractVerified(item)
		}
		if result.BlueVerified == nil {
			result.BlueVerified = adapter.ExtractBlueVerified(item)
		}
		if result.Verified != nil && result.BlueVerified != nil {
			return
		}
	}
}
