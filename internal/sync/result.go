// Package sync implements the video synchronization engine: per-account
// incremental discovery, bulk metric refresh, quota-aware persistence and the
// tenant/project/account orchestration around them.
package sync

import (
	"fmt"
	"time"
)

// Scope optionally narrows a run to one organization, or one project within it.
type Scope struct {
	OrganizationID string `json:"organizationId"`
	ProjectID      string `json:"projectId"`
}

// ScopeNotFoundError is raised during pre-flight validation when the named
// organization or project does not exist. No work is performed.
type ScopeNotFoundError struct {
	OrganizationID string
	ProjectID      string
}

func (e *ScopeNotFoundError) Error() string {
	if e.ProjectID != "" {
		return fmt.Sprintf("project %q not found in organization %q", e.ProjectID, e.OrganizationID)
	}
	return fmt.Sprintf("organization %q not found", e.OrganizationID)
}

// AccountFailure records one account whose sync failed. Sibling accounts are
// unaffected.
type AccountFailure struct {
	Org     string `json:"org"`
	Project string `json:"project"`
	Account string `json:"account"`
	Error   string `json:"error"`
}

// RunSummary is the aggregate result of one engine run.
type RunSummary struct {
	RunID           string           `json:"runId"`
	Success         bool             `json:"success"`
	Duration        string           `json:"duration"`
	Organizations   int              `json:"organizations"`
	Accounts        int              `json:"accounts"`
	VideosAdded     int              `json:"videosAdded"`
	VideosRefreshed int              `json:"videosRefreshed"`
	VideosUpdated   int              `json:"videosUpdated"`
	AccountsFailed  int              `json:"accountsFailed"`
	Failures        []AccountFailure `json:"failures"`

	startedAt time.Time
}

func newRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		Failures:  []AccountFailure{},
		startedAt: time.Now(),
	}
}

func (s *RunSummary) finish() {
	s.Duration = s.elapsed().Round(time.Millisecond).String()
	s.Success = true
}

func (s *RunSummary) elapsed() time.Duration {
	return time.Since(s.startedAt)
}

// AccountStats are the per-account counters folded into the run summary.
// Counters reflect committed work: a later phase failing does not undo them.
type AccountStats struct {
	Added     int
	Refreshed int
	Updated   int
	Unmatched int
	NotFound  int
}
