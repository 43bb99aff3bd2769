package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mendhq/mend/pkg/api"
	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/types"
)

// DefaultTimeout bounds a single API request
const DefaultTimeout = 5 * time.Second

// Client is a typed HTTP client for the mend query API
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the daemon at base (e.g.
// "http://localhost:8400")
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// Healthz checks daemon liveness
func (c *Client) Healthz(ctx context.Context) (api.HealthzResponse, error) {
	var out api.HealthzResponse
	err := c.get(ctx, "/healthz", nil, &out)
	return out, err
}

// Services returns the per-service health listing
func (c *Client) Services(ctx context.Context) ([]api.ServiceHealth, error) {
	var out []api.ServiceHealth
	err := c.get(ctx, "/v1/health/services", nil, &out)
	return out, err
}

// HealthSummary returns the aggregate fleet health
func (c *Client) HealthSummary(ctx context.Context) (metrics.SystemHealth, error) {
	var out metrics.SystemHealth
	err := c.get(ctx, "/v1/health/summary", nil, &out)
	return out, err
}

// RecentErrors returns up to limit classified errors, most-recent-first
func (c *Client) RecentErrors(ctx context.Context, limit int) ([]*types.ClassifiedError, error) {
	var out []*types.ClassifiedError
	err := c.get(ctx, "/v1/errors/recent", limitQuery(limit), &out)
	return out, err
}

// ErrorStats returns the aggregate error counters
func (c *Client) ErrorStats(ctx context.Context) (history.ErrorStats, error) {
	var out history.ErrorStats
	err := c.get(ctx, "/v1/errors/stats", nil, &out)
	return out, err
}

// RecentRecoveries returns up to limit recovery actions, most-recent-first
func (c *Client) RecentRecoveries(ctx context.Context, limit int) ([]*types.RecoveryAction, error) {
	var out []*types.RecoveryAction
	err := c.get(ctx, "/v1/recovery/recent", limitQuery(limit), &out)
	return out, err
}

// RecoveryStats returns the aggregate recovery counters
func (c *Client) RecoveryStats(ctx context.Context) (history.RecoveryStats, error) {
	var out history.RecoveryStats
	err := c.get(ctx, "/v1/recovery/stats", nil, &out)
	return out, err
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
