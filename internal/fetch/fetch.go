package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fleetline/rosterwatch/internal/logger"
	"github.com/fleetline/rosterwatch/internal/utils"
)

const (
	// DefaultRetries is the number of retries after the first failed attempt.
	DefaultRetries = 3

	backoffBase = 1000 * time.Millisecond
	backoffCap  = 5000 * time.Millisecond
)

// ErrTimeout marks an attempt that was aborted because no response arrived
// within the configured timeout.
var ErrTimeout = errors.New("fetch: request timed out")

// StatusError is returned when the upstream answered with a non-2xx status.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned %s", e.URL, e.Status)
}

// Client issues HTTP GETs with per-attempt timeout and exponential-backoff
// retries. It returns the raw body; degradation on exhausted retries is the
// caller's job.
type Client struct {
	http    *http.Client
	logger  logger.Logger
	timeout time.Duration
	retries int
	token   string // optional bearer token sent to upstreams

	sleep func(time.Duration) // test seam, defaults to time.Sleep
}

func New(timeout time.Duration, retries int, token string, log logger.Logger) *Client {
	if retries < 0 {
		retries = DefaultRetries
	}
	return &Client{
		// Per-attempt cancellation is driven by context, not the
		// client-level timeout.
		http:    &http.Client{},
		logger:  log,
		timeout: timeout,
		retries: retries,
		token:   token,
		sleep:   time.Sleep,
	}
}

// Get fetches url, retrying failed attempts with exponential backoff.
// The last attempt's error is surfaced once retries are exhausted.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		c.logger.Debug("fetch attempt",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.retries+1))

		body, err := c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		c.logger.Warn("fetch attempt failed",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Error(err))

		// Parent cancelled: retrying cannot help.
		if ctx.Err() != nil {
			break
		}

		// No delay after the final attempt.
		if attempt < c.retries {
			c.sleep(backoffDelay(attempt))
		}
	}

	return nil, fmt.Errorf("fetch: %s failed after %d attempts: %w", url, c.retries+1, lastErr)
}

// GetJSON fetches url and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("fetch: %s returned malformed JSON: %w", url, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/csv, text/plain")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v: %s", ErrTimeout, c.timeout, url)
		}
		return nil, fmt.Errorf("fetch: transport error: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w while reading body: %s", ErrTimeout, url)
		}
		return nil, fmt.Errorf("fetch: failed to read body: %w", err)
	}
	return body, nil
}

// backoffDelay returns the wait before retry n+1: min(1000ms * 2^n, 5000ms).
func backoffDelay(attempt int) time.Duration {
	d := backoffBase << attempt
	if d > backoffCap || d <= 0 {
		return backoffCap
	}
	return d
}
