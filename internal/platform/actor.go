package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// ActorRunner executes one actor run and returns its dataset items. Satisfied
// by *ActorClient; the adapters depend on the interface so tests can stub the
// service.
type ActorRunner interface {
	RunSync(ctx context.Context, actorID string, input any) ([]RawItem, error)
}

// ActorClient runs actors on the managed scraping service synchronously and
// returns their dataset items.
type ActorClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewActorClient creates a client for the actor execution service.
func NewActorClient(baseURL, token string, timeout time.Duration) *ActorClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ActorClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
	}
}

// RunSync executes an actor with the given JSON input and waits for its
// dataset items.
func (c *ActorClient) RunSync(ctx context.Context, actorID string, input any) ([]RawItem, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build actor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run actor %s: %w", actorID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("actor %s returned status %d: %s", actorID, resp.StatusCode, snippet)
	}

	var items []RawItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode actor %s items: %w", actorID, err)
	}

	if isSentinel(items) {
		logger.Log.Warn("actor returned sentinel record",
			zap.String("actorId", actorID),
			zap.Any("item", items[0]),
		)
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrProviderSentinel)
	}

	return items, nil
}

// isSentinel reports whether the response is a single error/no-results marker
// rather than a real (possibly empty) item list.
func isSentinel(items []RawItem) bool {
	if len(items) != 1 {
		return false
	}
	item := items[0]

	for _, key := range []string{"error", "errorDescription"} {
		if v, ok := item[key]; ok && v != nil && v != "" {
			return true
		}
	}
	if v, ok := item["noResults"]; ok {
		if b, ok := v.(bool); ok && b {
			return true
		}
	}
	return false
}
