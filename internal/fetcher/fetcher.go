package fetcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"infohub/pkg/errors"
	"infohub/pkg/logger"
)

// Fetcher performs single download attempts over a shared, connection-pooled
// transport. It never retries internally: retry policy belongs to the
// coordinator, which keeps this component stateless and testable with a fake
// server.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	headers map[string]string
	logger  logger.Logger
}

// New creates a Fetcher with one pooled transport shared by every attempt of
// the run. timeout bounds a single attempt, not the run.
func New(timeout time.Duration, userAgent string, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if userAgent == "" {
		userAgent = "infohub/1.0"
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		client:  &http.Client{Transport: transport},
		timeout: timeout,
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		logger: log,
	}
}

// Fetch downloads url in full and returns its bytes. Errors are classified:
// timeouts, resets, 5xx and 429 come back transient; other 4xx and malformed
// URLs come back permanent. Context cancellation is returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Permanent(fmt.Sprintf("malformed URL %q", url), err)
	}
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	f.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"url": url,
	})

	resp, err := f.client.Do(req)
	if err != nil {
		if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, &errors.Error{
				Class:   errors.ClassTransient,
				Message: fmt.Sprintf("attempt timed out after %s", f.timeout),
				Err:     err,
			}
		}
		return nil, errors.Transient("network error", err)
	}
	defer resp.Body.Close()

	f.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Transient("connection interrupted while reading body", err)
		}
		return body, nil
	}

	e := &errors.Error{
		Class:   errors.ClassForStatusCode(resp.StatusCode),
		Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return nil, e
}

// parseRetryAfter interprets a Retry-After header as either delta-seconds or
// an HTTP date. Unparseable values yield 0 (fall back to computed backoff).
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
