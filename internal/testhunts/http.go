package testhunts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/questpace/internal/adapters/http/api"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/types"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// getJSON fetches url and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedStatus, url, resp.StatusCode, body)
	}
	return json.Unmarshal(body, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// fetchReport asks the service for the pace report of f.
func fetchReport(ctx context.Context, config *Config, f model.Filter) (types.Report, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/pace?" + api.EncodeQuery(f, config.Mode).Encode()

	var report types.Report
	if err := client.getJSON(ctx, url, &report); err != nil {
		return types.Report{}, err
	}
	return report, nil
}

// waitForService polls /healthz until it answers 200 or the wait times out.
func waitForService(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	ctx, cancel := context.WithTimeout(ctx, defaultWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		resp, err := client.Get(ctx, url)
		if err == nil {
			_, _ = readResponseBody(resp)
			if resp.StatusCode == StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service not healthy at %s: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}
