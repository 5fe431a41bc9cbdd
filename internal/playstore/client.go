package playstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Options controls how every upstream call is issued.
type Options struct {
	Timeout        time.Duration // per attempt
	Retries        int           // extra attempts after the first
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	RatePerSecond  float64 // <= 0 disables pacing
	UserAgent      string
}

func DefaultOptions() Options {
	return Options{
		Timeout:        15 * time.Second,
		Retries:        2,
		BackoffInitial: 500 * time.Millisecond,
		BackoffMax:     4 * time.Second,
		RatePerSecond:  2,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) playscout/0.1",
	}
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d from %s: %s", e.Code, e.URL, e.Body)
}

// Client issues paced GET requests with a per-attempt timeout and a capped
// retry on transient failures. It is safe for concurrent use, but the pipeline
// calls it sequentially.
type Client struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
	opts    Options
}

func NewClient(opts Options) *Client {
	c := &Client{
		HTTP: &http.Client{},
		opts: opts,
	}
	if opts.RatePerSecond > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return c
}

// Get fetches url and returns the body of the first successful attempt.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, retry, err := c.once(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.opts.Retries {
			break
		}
		if err := c.sleepBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, url, accept string) ([]byte, bool, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// a cancelled caller is final; an expired attempt is worth another try
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retryable(resp.StatusCode), &StatusError{
			URL:  url,
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	d := c.opts.BackoffInitial * time.Duration(1<<attempt)
	if c.opts.BackoffMax > 0 && d > c.opts.BackoffMax {
		d = c.opts.BackoffMax
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		(status >= 500 && status <= 599)
}
