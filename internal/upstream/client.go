package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/config"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listview"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// Client talks to the EV-service REST backend. It returns decoded but
// otherwise untouched envelopes; shaping them is the normalizer's job.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	logger  zerolog.Logger
}

// ClientOption customises a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a client for cfg.
func NewClient(cfg config.UpstreamConfig, logger zerolog.Logger, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		logger:  logger.With().Str("component", "upstream").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET for path and returns the decoded body. JSON numbers are
// kept as json.Number; a body that is not JSON is returned as a string.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug().
		Str("method", http.MethodGet).
		Str("url", endpoint).
		Msg("making HTTP request")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().
			Str("url", endpoint).
			Err(err).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Int("status_code", resp.StatusCode).
		Int("body_length", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("received HTTP response")

	decoded := decodeBody(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: messageOf(decoded)}
	}

	if record, ok := decoded.(map[string]any); ok {
		if success, ok := record["success"].(bool); ok && !success {
			msg := messageOf(record)
			if msg == "" {
				msg = "request was not successful"
			}
			return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
		}
	}

	return decoded, nil
}

// FetchPage fetches one page of resource.
func (c *Client) FetchPage(ctx context.Context, resource Resource, coords listquery.Coordinates) (any, error) {
	raw, err := c.Get(ctx, resource.Path, resource.Query(coords))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", resource.Name, err)
	}
	return raw, nil
}

// Fetcher binds the client to one resource for a list view.
func (c *Client) Fetcher(resource Resource) listview.Fetcher {
	return listview.FetcherFunc(func(ctx context.Context, coords listquery.Coordinates) (any, error) {
		return c.FetchPage(ctx, resource, coords)
	})
}

// View resolves a resource name to the fetcher and default coordinates of
// its list view.
func (c *Client) View(name string) (listview.Fetcher, listquery.Coordinates, error) {
	resource, ok := LookupResource(name)
	if !ok {
		return nil, listquery.Coordinates{}, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return c.Fetcher(resource), resource.Defaults(), nil
}

// Ping checks that the backend answers HTTP at all. Any status counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// BaseURL returns the configured backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func decodeBody(body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return string(body)
	}
	return out
}

// messageOf extracts a human readable message from an error body.
func messageOf(decoded any) string {
	switch v := decoded.(type) {
	case map[string]any:
		for _, field := range []string{"message", "Message", "title", "error"} {
			if s, ok := v[field].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	case string:
		if len(v) <= 200 {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// IsTemporary reports whether err is worth retrying: transport failures and
// 5xx or 429 answers.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return !errors.Is(err, ErrRejected) && !errors.Is(err, context.Canceled)
}
