package sync

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/db/repository"
	"github.com/creator-tracker/video-sync-go/internal/metrics"
	"github.com/creator-tracker/video-sync-go/internal/notify"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

const defaultBatchSize = 50

// BlacklistWarmer preloads a project's blacklist before its accounts run.
// Satisfied by *service.BlacklistCache.
type BlacklistWarmer interface {
	WarmProject(ctx context.Context, orgID, projectID string)
}

// Notifier delivers a per-organization run report. Best-effort.
type Notifier interface {
	Send(to string, report notify.OrgReport)
}

// Engine walks the tenant hierarchy and drives discovery, refresh and
// persistence for every active account in scope.
//
// Organizations and projects are processed sequentially; accounts within a
// project run in concurrent batches with a barrier between batches. One
// account failing, or panicking, never affects its siblings.
type Engine struct {
	orgs      repository.OrganizationRepository
	accounts  repository.AccountRepository
	videos    repository.VideoRepository
	registry  platform.Registry
	persister *Persister
	warmer    BlacklistWarmer
	notifier  Notifier
	collector *metrics.SyncCollector
	batchSize int
}

// NewEngine creates an Engine. batchSize <= 0 selects the default of 50
// concurrent accounts per batch. warmer, notifier and collector may be nil.
func NewEngine(
	orgs repository.OrganizationRepository,
	accounts repository.AccountRepository,
	videos repository.VideoRepository,
	registry platform.Registry,
	persister *Persister,
	warmer BlacklistWarmer,
	notifier Notifier,
	collector *metrics.SyncCollector,
	batchSize int,
) *Engine {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Engine{
		orgs:      orgs,
		accounts:  accounts,
		videos:    videos,
		registry:  registry,
		persister: persister,
		warmer:    warmer,
		notifier:  notifier,
		collector: collector,
		batchSize: batchSize,
	}
}

// Run executes one sync pass over the scoped tenants.
//
// A non-nil error is returned only for pre-flight problems (unknown scope);
// once the walk starts, failures are recorded in the summary and the run
// continues. The summary is always non-nil.
func (e *Engine) Run(ctx context.Context, scope Scope, manual bool) (*RunSummary, error) {
	runID := uuid.NewString()
	summary := newRunSummary(runID)

	orgs, err := e.resolveScope(ctx, scope)
	if err != nil {
		return summary, err
	}

	logger.Log.Info("sync run started",
		zap.String("runId", runID),
		zap.Bool("manual", manual),
		zap.Int("organizations", len(orgs)),
	)

	for _, org := range orgs {
		e.runOrganization(ctx, summary, org, scope.ProjectID, manual)
		summary.Organizations++
	}

	summary.finish()
	e.collector.ObserveRun(manual, summary.elapsed())

	logger.Log.Info("sync run finished",
		zap.String("runId", runID),
		zap.String("duration", summary.Duration),
		zap.Int("accounts", summary.Accounts),
		zap.Int("videosAdded", summary.VideosAdded),
		zap.Int("videosRefreshed", summary.VideosRefreshed),
		zap.Int("accountsFailed", summary.AccountsFailed),
	)

	return summary, nil
}

// resolveScope expands the optional scope into the organizations to walk.
// An unknown organization or project yields a *ScopeNotFoundError before any
// account is touched.
func (e *Engine) resolveScope(ctx context.Context, scope Scope) ([]*models.Organization, error) {
	if scope.OrganizationID == "" {
		return e.orgs.ListOrganizations(ctx)
	}

	org, err := e.orgs.GetOrganization(ctx, scope.OrganizationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, &ScopeNotFoundError{OrganizationID: scope.OrganizationID}
		}
		return nil, err
	}

	if scope.ProjectID != "" {
		if _, err := e.orgs.GetProject(ctx, scope.OrganizationID, scope.ProjectID); err != nil {
			if db.IsNotFound(err) {
				return nil, &ScopeNotFoundError{OrganizationID: scope.OrganizationID, ProjectID: scope.ProjectID}
			}
			return nil, err
		}
	}

	return []*models.Organization{org}, nil
}

func (e *Engine) runOrganization(ctx context.Context, summary *RunSummary, org *models.Organization, projectID string, manual bool) {
	projects, err := e.listProjects(ctx, org.ID, projectID)
	if err != nil {
		logger.Log.Error("failed to list projects, skipping organization",
			zap.String("org", org.ID),
			zap.Error(err),
		)
		summary.AccountsFailed++
		summary.Failures = append(summary.Failures, AccountFailure{
			Org:   org.ID,
			Error: fmt.Sprintf("list projects: %v", err),
		})
		return
	}

	report := notify.OrgReport{RunID: summary.RunID, OrganizationID: org.ID}

	for _, project := range projects {
		if e.warmer != nil {
			e.warmer.WarmProject(ctx, org.ID, project.ID)
		}
		e.runProject(ctx, summary, &report, org.ID, project.ID, manual)
	}

	if e.notifier != nil && org.NotifyEmail.Valid {
		e.notifier.Send(org.NotifyEmail.String, report)
	}
}

func (e *Engine) listProjects(ctx context.Context, orgID, projectID string) ([]*models.Project, error) {
	if projectID == "" {
		return e.orgs.ListProjects(ctx, orgID)
	}
	project, err := e.orgs.GetProject(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	return []*models.Project{project}, nil
}

// accountOutcome carries one account's result back across the batch barrier.
type accountOutcome struct {
	account *models.TrackedAccount
	stats   AccountStats
	err     error
}

func (e *Engine) runProject(ctx context.Context, summary *RunSummary, report *notify.OrgReport, orgID, projectID string, manual bool) {
	accounts, err := e.accounts.ListActiveAccounts(ctx, orgID, projectID)
	if err != nil {
		logger.Log.Error("failed to list accounts, skipping project",
			zap.String("org", orgID),
			zap.String("project", projectID),
			zap.Error(err),
		)
		summary.AccountsFailed++
		summary.Failures = append(summary.Failures, AccountFailure{
			Org:     orgID,
			Project: projectID,
			Error:   fmt.Sprintf("list accounts: %v", err),
		})
		return
	}

	for start := 0; start < len(accounts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(accounts) {
			end = len(accounts)
		}
		batch := accounts[start:end]

		outcomes := make(chan accountOutcome, len(batch))
		for _, account := range batch {
			go func(account *models.TrackedAccount) {
				outcomes <- e.syncAccountGuarded(ctx, account, manual)
			}(account)
		}

		// Barrier: the next batch starts only after every goroutine reports.
		for range batch {
			outcome := <-outcomes
			e.foldOutcome(summary, report, outcome)
		}
	}
}

// syncAccountGuarded converts a panic in one account's sync into a regular
// account failure so the batch barrier always completes.
func (e *Engine) syncAccountGuarded(ctx context.Context, account *models.TrackedAccount, manual bool) (outcome accountOutcome) {
	outcome.account = account

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("panic while syncing account",
				zap.String("username", account.Username),
				zap.String("platform", string(account.Platform)),
				zap.Any("panic", r),
			)
			outcome.err = fmt.Errorf("panic: %v", r)
		}
	}()

	outcome.stats, outcome.err = e.syncAccount(ctx, account, manual)
	return outcome
}

// syncAccount runs the full per-account flow: discovery, persistence of new
// candidates, bulk refresh, persistence of updates, and the last-synced stamp.
// Counters in the returned stats reflect committed work even when a later
// phase fails.
func (e *Engine) syncAccount(ctx context.Context, account *models.TrackedAccount, manual bool) (AccountStats, error) {
	stats := AccountStats{}

	adapter, ok := e.registry.For(account.Platform)
	if !ok {
		return stats, fmt.Errorf("no adapter registered for platform %q", account.Platform)
	}

	persistedCount, err := e.videos.CountByAccount(ctx, account.ID)
	if err != nil {
		return stats, fmt.Errorf("count persisted videos: %w", err)
	}

	discovery, err := DiscoverNew(ctx, adapter, account, persistedCount, e.videos)
	if err != nil {
		return stats, fmt.Errorf("discovery: %w", err)
	}

	saved, err := e.persister.SaveNew(ctx, account, discovery.Candidates, manual)
	stats.Added = saved.Inserted
	if err != nil {
		return stats, fmt.Errorf("persist discovered videos: %w", err)
	}

	persisted, err := e.videos.ListByAccount(ctx, account.ID)
	if err != nil {
		return stats, fmt.Errorf("list persisted videos: %w", err)
	}

	updates, refreshStats, err := RefreshExisting(ctx, adapter, persisted)
	stats.Updated = refreshStats.Matched
	stats.Unmatched = refreshStats.Unmatched
	stats.NotFound = refreshStats.NotRefreshed
	if err != nil {
		return stats, fmt.Errorf("bulk refresh: %w", err)
	}

	refreshed, err := e.persister.SaveRefreshed(ctx, account, updates, manual)
	stats.Refreshed = refreshed
	if err != nil {
		return stats, fmt.Errorf("persist refreshed videos: %w", err)
	}

	if err := e.accounts.MarkSynced(ctx, account.ID, nullBool(discovery.Verified), nullBool(discovery.BlueVerified)); err != nil {
		return stats, fmt.Errorf("mark account synced: %w", err)
	}

	logger.Log.Debug("account synced",
		zap.String("username", account.Username),
		zap.String("platform", string(account.Platform)),
		zap.String("stopReason", string(discovery.Reason)),
		zap.Int("added", stats.Added),
		zap.Int("refreshed", stats.Refreshed),
	)

	return stats, nil
}

func (e *Engine) foldOutcome(summary *RunSummary, report *notify.OrgReport, outcome accountOutcome) {
	account := outcome.account
	platformName := string(account.Platform)

	summary.Accounts++
	report.Accounts++
	summary.VideosAdded += outcome.stats.Added
	summary.VideosRefreshed += outcome.stats.Refreshed
	summary.VideosUpdated += outcome.stats.Updated
	report.VideosAdded += outcome.stats.Added
	report.VideosRefreshed += outcome.stats.Refreshed

	e.collector.VideosWritten(platformName, "added", outcome.stats.Added)
	e.collector.VideosWritten(platformName, "refreshed", outcome.stats.Refreshed)
	e.collector.AccountSynced(platformName, outcome.err != nil)

	if outcome.err == nil {
		return
	}

	summary.AccountsFailed++
	summary.Failures = append(summary.Failures, AccountFailure{
		Org:     account.OrganizationID,
		Project: account.ProjectID,
		Account: account.Username,
		Error:   outcome.err.Error(),
	})
	report.FailedAccounts = append(report.FailedAccounts, account.Username)

	logger.Log.Warn("account sync failed",
		zap.String("org", account.OrganizationID),
		zap.String("project", account.ProjectID),
		zap.String("username", account.Username),
		zap.Error(outcome.err),
	)
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
