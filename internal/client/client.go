// Package client is the request layer used to call the Lens Atelier API.
// It owns per-attempt timeouts, retry of mutating requests and a stale-time
// cache for reads. Every failure comes back as a *client.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTimeout   = 60 * time.Second
	defaultCacheSize = 128
	maxErrorBodySize = 64 * 1024
)

// RetryPolicy decides how mutating requests are retried
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries twice, waiting 1s then 2s
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 2,
	BaseDelay:  time.Second,
	MaxDelay:   3 * time.Second,
}

// Delay returns the wait before retry n (1-based): min(base * 2^(n-1), max)
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	delay := p.BaseDelay
	for i := 1; i < n && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// shouldRetry reports whether the failed attempt may be repeated
func (p RetryPolicy) shouldRetry(method string, err *Error, retriesSoFar int) bool {
	if retriesSoFar >= p.MaxRetries || !isMutating(method) {
		return false
	}
	return err.Kind == KindTimedOut || err.Kind == KindTransport
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type sleepFunc func(ctx context.Context, d time.Duration) error

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

// Client calls the API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryPolicy
	staleTime  time.Duration
	cache      *expirable.LRU[string, []byte]
	sleep      sleepFunc
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithStaleTime caches GET responses for d. Zero disables caching.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		retry:      DefaultRetryPolicy,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.staleTime > 0 {
		c.cache = expirable.NewLRU[string, []byte](defaultCacheSize, nil, c.staleTime)
	}
	return c
}

// Send performs method on path with an optional JSON body and decodes the
// response into out (when non-nil).
func (c *Client) Send(ctx context.Context, method, path string, body, out any) error {
	useCache := method == http.MethodGet && c.cache != nil
	if useCache {
		if cached, ok := c.cache.Get(path); ok {
			return decodeInto(cached, out)
		}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindEncode, Message: "failed to encode request", Err: err}
		}
	}

	for retries := 0; ; retries++ {
		data, err := c.attempt(ctx, method, path, payload)
		if err == nil {
			if useCache {
				c.cache.Add(path, data)
			}
			return decodeInto(data, out)
		}

		if !c.retry.shouldRetry(method, err, retries) {
			return err
		}

		delay := c.retry.Delay(retries + 1)
		logger.Warn("Retrying API request", logger.Fields{
			"method":  method,
			"path":    path,
			"kind":    string(err.Kind),
			"retry":   retries + 1,
			"delay":   delay.String(),
			"message": err.Message,
		})
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return &Error{Kind: KindCanceled, Message: "request canceled", Err: sleepErr}
		}
	}
}

// attempt performs one request under the per-attempt timeout
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) ([]byte, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindEncode, Message: "failed to build request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpError(resp.StatusCode, data)
	}
	return data, nil
}

// classify separates caller cancellation, attempt timeout and transport failures
func (c *Client) classify(ctx, attemptCtx context.Context, err error) *Error {
	switch {
	case ctx.Err() != nil:
		return &Error{Kind: KindCanceled, Message: "request canceled", Err: err}
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return &Error{Kind: KindTimedOut, Message: fmt.Sprintf("request timed out after %s", c.timeout), Err: err}
	default:
		return &Error{Kind: KindTransport, Message: "could not reach the server", Err: err}
	}
}

func httpError(status int, data []byte) *Error {
	e := &Error{Kind: KindHTTP, Status: status, Message: http.StatusText(status)}

	var body models.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		e.Message = body.Error
		e.ServerKind = body.Kind
		e.Field = body.Field
		e.Rule = body.Rule
		e.RequestID = body.RequestID
		return e
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		if len(text) > maxErrorBodySize {
			text = text[:maxErrorBodySize]
		}
		e.Message = text
	}
	return e
}

func decodeInto(data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Message: "unexpected response from server", Err: err}
	}
	return nil
}
