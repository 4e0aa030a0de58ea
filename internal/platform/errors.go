package platform

import (
	"errors"
	"fmt"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// ErrProviderSentinel marks a response that is a single error or no-results
// sentinel record. It is a transport failure, not an empty result: an empty
// real response means end of content, a sentinel means retry later.
var ErrProviderSentinel = errors.New("provider returned an error sentinel")

// FetchError is an adapter-level failure. The orchestrator records it per
// account; it never affects sibling accounts.
type FetchError struct {
	Platform models.Platform
	Username string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("%s fetch for %q: %v", e.Platform, e.Username, e.Err)
	}
	return fmt.Sprintf("%s fetch: %v", e.Platform, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func fetchErr(p models.Platform, username string, err error) error {
	return &FetchError{Platform: p, Username: username, Err: err}
}
