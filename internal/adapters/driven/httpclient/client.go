// Package httpclient provides the JSON-over-HTTP client shared by the AI
// and vector store adapters.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default configuration values.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 250 * time.Millisecond

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4096
)

// Config holds configuration for a Client.
type Config struct {
	// Timeout bounds each non-streaming request (default: 60s).
	// Streaming requests rely on the caller's context instead.
	Timeout time.Duration

	// MaxRetries is the number of retries after a transient failure.
	// Negative disables retries; zero uses DefaultMaxRetries.
	MaxRetries int

	// Backoff is the first Fibonacci backoff interval (default: 250ms).
	Backoff time.Duration

	// Headers are sent with every request.
	Headers map[string]string
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client sends JSON requests and retries transient failures with
// Fibonacci backoff. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	stream     *http.Client
	maxRetries uint64
	backoff    time.Duration
	headers    map[string]string
}

// New creates a new Client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = DefaultBackoff
	}

	var maxRetries uint64
	switch {
	case cfg.MaxRetries == 0:
		maxRetries = DefaultMaxRetries
	case cfg.MaxRetries > 0:
		maxRetries = uint64(cfg.MaxRetries)
	}

	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		stream:     &http.Client{},
		maxRetries: maxRetries,
		backoff:    cfg.Backoff,
		headers:    cfg.Headers,
	}
}

// DoJSON sends in as a JSON body (nil sends none) and decodes a 2xx
// response into out (nil discards it). Network errors, 429 and 5xx
// responses are retried.
func (c *Client) DoJSON(ctx context.Context, method, endpoint string, headers map[string]string, in, out any) error {
	body, err := encode(in)
	if err != nil {
		return err
	}

	return c.retry(ctx, func(ctx context.Context) error {
		resp, err := c.send(ctx, c.http, method, endpoint, headers, body)
		if err != nil {
			return retryable(err)
		}
		defer resp.Body.Close()

		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// Stream sends the request and returns the open response body for
// incremental reading. Only failures before the first byte of the body
// are retried. The caller must close the returned body; cancelling ctx
// aborts the transfer.
func (c *Client) Stream(ctx context.Context, method, endpoint string, headers map[string]string, in any) (io.ReadCloser, error) {
	body, err := encode(in)
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	err = c.retry(ctx, func(ctx context.Context) error {
		resp, err := c.send(ctx, c.stream, method, endpoint, headers, body)
		if err != nil {
			return retryable(err)
		}
		rc = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Get performs a GET and discards the body. It does not retry, which suits
// liveness checks.
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) error {
	resp, err := c.send(ctx, c.http, http.MethodGet, endpoint, headers, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) retry(ctx context.Context, f retry.RetryFunc) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(c.backoff))
	return retry.Do(ctx, backoff, f)
}

// send performs one attempt.
func (c *Client) send(
	ctx context.Context,
	client *http.Client,
	method, endpoint string,
	headers map[string]string,
	body []byte,
) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	return resp, nil
}

// retryable marks transport failures and temporary statuses for retry.
func retryable(err error) error {
	var (
		statusErr *StatusError
		urlErr    *url.Error
	)
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Temporary() {
			return retry.RetryableError(err)
		}
		return err
	case errors.As(err, &urlErr):
		return retry.RetryableError(err)
	default:
		return err
	}
}

func encode(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return b, nil
}
