package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout and request accounting
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration

	requests       atomic.Int64
	rateLimited    atomic.Int64
	totalLatencyNs atomic.Int64
	maxLatencyNs   atomic.Int64
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

// Get performs a GET request honoring ctx
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.record(time.Since(start))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == StatusTooManyRequests {
		c.rateLimited.Add(1)
	}
	return resp, nil
}

// record updates the request counters
func (c *HTTPClient) record(elapsed time.Duration) {
	c.requests.Add(1)
	c.totalLatencyNs.Add(int64(elapsed))
	for {
		cur := c.maxLatencyNs.Load()
		if int64(elapsed) <= cur || c.maxLatencyNs.CompareAndSwap(cur, int64(elapsed)) {
			return
		}
	}
}

// getJSON fetches url and decodes the body into out, sleeping out the
// Retry-After delay when the server answers 429. The returned status is
// the final status observed.
func getJSON(ctx context.Context, client *HTTPClient, url string, out interface{}) (int, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return 0, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == StatusTooManyRequests && attempt < RateLimitMaxRetries {
			_, _ = readResponseBody(resp)
			if err := sleepCtx(ctx, retryAfter(resp)); err != nil {
				return resp.StatusCode, err
			}
			continue
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != StatusOK {
			var apiErr ErrorBody
			if err := unmarshalJSON(body, &apiErr); err == nil && apiErr.Code != "" {
				return resp.StatusCode, fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
			}
			return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		if out != nil {
			if err := unmarshalJSON(body, out); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return resp.StatusCode, nil
	}
}

// retryAfter reads the Retry-After header, defaulting to one second
func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Second
}

// sleepCtx sleeps for d unless ctx is cancelled first
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
