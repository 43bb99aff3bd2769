package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker reports healthy when a GET to URL returns a status in the
// expected range
type HTTPChecker struct {
	// URL is the full HTTP URL to check (e.g., "http://localhost:3000/api/health")
	URL string

	// ExpectedStatusMin / ExpectedStatusMax bound acceptable status codes
	ExpectedStatusMin int
	ExpectedStatusMax int

	// Client is the HTTP client to use
	Client *http.Client
}

// NewHTTPChecker creates a new HTTP health checker
func NewHTTPChecker(url string) *HTTPChecker {
	return &HTTPChecker{
		URL:               url,
		ExpectedStatusMin: 200,
		ExpectedStatusMax: 399,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Check performs the HTTP health check
func (h *HTTPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return failure(start, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return failure(start, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode >= h.ExpectedStatusMin && resp.StatusCode <= h.ExpectedStatusMax
	message := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if !healthy {
		return failure(start, fmt.Sprintf("%s (expected %d-%d)", message, h.ExpectedStatusMin, h.ExpectedStatusMax))
	}

	return success(start, message)
}

// Type returns the health check type
func (h *HTTPChecker) Type() CheckType {
	return CheckTypeHTTP
}

// WithTimeout sets the HTTP client timeout
func (h *HTTPChecker) WithTimeout(timeout time.Duration) *HTTPChecker {
	h.Client.Timeout = timeout
	return h
}
