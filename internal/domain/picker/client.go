// Package picker provides a client for the external photo picker provider:
// session creation, session status reads, paginated media item listing and
// fixed-interval polling for selection.
//
// A picker flow is three steps:
//  1. Create a session and hand its pickerUri to the operator
//  2. Poll session status until mediaItemsSet turns true
//  3. List the selected media items (paginated)
//
// The client attaches the bearer credential supplied by the external OAuth
// layer to every provider call and nowhere else.
package picker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gallery-server/services/gallery-api/internal/config"
	"gallery-server/services/gallery-api/internal/infrastructure/metrics"
)

const (
	defaultPollInterval    = 1 * time.Second
	defaultPollMaxAttempts = 60
)

// Client calls the picker provider API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	log         zerolog.Logger
}

// NewClient creates a picker provider client from configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	timeout := cfg.PickerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(cfg.PickerBaseURL, "/"),
		accessToken: cfg.PickerAccessToken,
		log:         log.With().Str("component", "picker-client").Logger(),
	}
}

// CreateSession requests a new time-boxed picker session from the provider.
// The provider's session id and picker URI are returned verbatim.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/sessions", strings.NewReader("{}"), &session); err != nil {
		metrics.RecordPickerOperation("create_session", "error")
		return nil, fmt.Errorf("create picker session: %w", err)
	}
	metrics.RecordPickerOperation("create_session", "success")
	c.log.Info().Str("session_id", session.ID).Msg("picker session created")
	return &session, nil
}

// GetSession reads the current session status. A 404 or 410 from the
// provider maps to ErrSessionExpired.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &session)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) && (provErr.StatusCode == http.StatusNotFound || provErr.StatusCode == http.StatusGone) {
			metrics.RecordPickerOperation("get_session", "expired")
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionExpired)
		}
		metrics.RecordPickerOperation("get_session", "error")
		return nil, fmt.Errorf("get picker session: %w", err)
	}
	metrics.RecordPickerOperation("get_session", "success")
	return &session, nil
}

// ListMediaItems fetches one page of the session's selected media items.
func (c *Client) ListMediaItems(ctx context.Context, sessionID, pageToken string) (*MediaItemsPage, error) {
	params := url.Values{}
	params.Set("sessionId", sessionID)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var page MediaItemsPage
	if err := c.do(ctx, http.MethodGet, "/mediaItems?"+params.Encode(), nil, &page); err != nil {
		metrics.RecordPickerOperation("list_media_items", "error")
		return nil, fmt.Errorf("list media items: %w", err)
	}
	metrics.RecordPickerOperation("list_media_items", "success")
	return &page, nil
}

// GetAllMediaItems walks the pagination until no continuation token remains
// and returns all items in provider order. No upper bound is enforced; a
// human-curated selection is small.
func (c *Client) GetAllMediaItems(ctx context.Context, sessionID string) ([]MediaItem, error) {
	var items []MediaItem
	pageToken := ""
	for {
		page, err := c.ListMediaItems(ctx, sessionID, pageToken)
		if err != nil {
			return nil, err
		}
		items = append(items, page.MediaItems...)
		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}

// PollOptions bounds a PollUntilSelected call. Zero values fall back to
// one-second intervals and sixty attempts.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

// PollUntilSelected polls session status at a fixed interval until the
// operator finishes selecting. Fixed-interval rather than backoff polling:
// human selection latency is seconds to low minutes, and a fixed interval
// keeps worst-case latency bounded for the waiting UI.
//
// An expired session aborts immediately without consuming the remaining
// attempts; exhausting the budget returns ErrPollingTimeout.
func (c *Client) PollUntilSelected(ctx context.Context, sessionID string, opts PollOptions) (*Session, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultPollMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		session, err := c.GetSession(ctx, sessionID)
		if err != nil {
			// ErrSessionExpired and provider failures both end the poll.
			return nil, err
		}
		if session.MediaItemsSet {
			c.log.Debug().Str("session_id", sessionID).Int("attempts", attempt).Msg("selection finalized")
			return session, nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("session %s not finalized after %d attempts: %w", sessionID, maxAttempts, ErrPollingTimeout)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode provider response: %w", err)
		}
	}
	return nil
}
