package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/metrics"
)

// transport is the shared HTTP layer under the three source clients.
// It owns rate limiting, retry with exponential backoff, and
// status-code handling; each client owns its own response shapes.
type transport struct {
	name        string
	baseURL     string
	headers     map[string]string
	queryParams map[string]string
	httpClient  *http.Client
	rateLimiter chan struct{}
	maxRetries  int
	retryDelay  time.Duration
}

func newTransport(name, baseURL string, timeout time.Duration) *transport {
	// Rate limiter: max 10 concurrent requests per provider
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &transport{
		name:        name,
		baseURL:     baseURL,
		headers:     make(map[string]string),
		queryParams: make(map[string]string),
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry logic and rate limiting.
// operation is the fixed metric label for the call; the path may carry
// entity IDs and must never reach a label.
func (t *transport) get(ctx context.Context, operation, path string, params map[string]string) ([]byte, error) {
	return t.do(ctx, http.MethodGet, operation, path, params, nil)
}

// postJSON performs a POST request with a JSON body
func (t *transport) postJSON(ctx context.Context, operation, path string, body []byte) ([]byte, error) {
	return t.do(ctx, http.MethodPost, operation, path, nil, body)
}

func (t *transport) do(ctx context.Context, method, operation, path string, params map[string]string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", t.baseURL, path)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := t.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("provider", t.name).
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Rate limiting: acquire semaphore
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.rateLimiter:
		}

		respBody, retryable, err := t.attempt(ctx, method, url, path, params, body)
		t.rateLimiter <- struct{}{}

		if err == nil {
			metrics.RecordProviderCall(t.name, operation, "ok", time.Since(start).Seconds())
			return respBody, nil
		}

		lastErr = err
		if !retryable || attempt == t.maxRetries {
			metrics.RecordProviderCall(t.name, operation, "error", time.Since(start).Seconds())
			return nil, lastErr
		}
	}

	metrics.RecordProviderCall(t.name, operation, "error", time.Since(start).Seconds())
	return nil, lastErr
}

// attempt performs a single request. The bool result reports whether
// the failure is worth retrying.
func (t *transport) attempt(ctx context.Context, method, url, path string, params map[string]string, body []byte) ([]byte, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "mlbpicks-pipeline/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	if len(params) > 0 || len(t.queryParams) > 0 {
		q := req.URL.Query()
		for key, value := range t.queryParams {
			q.Add(key, value)
		}
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("provider", t.name).
		Str("url", url).
		Str("method", method).
		Msg("Making API request")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// Network errors are retryable
		return nil, true, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("provider", t.name).
			Str("path", path).
			Int("size", len(respBody)).
			Msg("API request successful")
		return respBody, false, nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		log.Warn().
			Str("provider", t.name).
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("Received retryable error")
		return nil, true, fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(respBody))

	case http.StatusUnauthorized, http.StatusForbidden:
		// Don't retry auth errors
		return nil, false, fmt.Errorf("API authentication failed (status %d): %s", resp.StatusCode, string(respBody))

	default:
		return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}
}
