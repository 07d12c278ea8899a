package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPConfig configures the remote source. Zero values get defaults:
// 30s timeout, 3 retries, 200ms initial backoff capped at 5s.
type HTTPConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Transport      http.RoundTripper
}

// HTTP fetches tables relative to a base URL, retrying transient failures
// with exponential backoff.
type HTTP struct {
	base           *url.URL
	client         *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep waits between attempts; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHTTP creates a remote source
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &HTTP{
		base:           base,
		client:         &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          sleepContext,
	}, nil
}

// Open implements Source. The caller must close the returned body.
func (h *HTTP) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	ref, err := url.Parse(url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("invalid table name %q: %w", name, err)
	}
	target := h.base.ResolveReference(ref).String()

	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			if err := h.sleep(ctx, backoff(h.initialBackoff, attempt-1, h.maxBackoff)); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("build request for %s: %w", name, err)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("fetch %s: %w", name, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		case isRetryableStatus(resp.StatusCode):
			resp.Body.Close()
			lastErr = fmt.Errorf("fetch %s: retryable status %d", name, resp.StatusCode)
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode)
		}
	}
	return nil, lastErr
}

// String describes the source for log lines
func (h *HTTP) String() string {
	return h.base.String()
}

// isRetryableStatus treats 429 and 5xx as transient
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoff returns initial * 2^retry clamped to max
func backoff(initial time.Duration, retry int, max time.Duration) time.Duration {
	d := initial << retry
	if d <= 0 || d > max {
		return max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
