// Package transport sends built request URIs to Google and classifies failures.
//
// Cancellation by the caller and expiry of a deadline are reported as distinct
// error kinds. The transport never retries.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

const defaultMaxBody = 10 << 20

// Response is a completed 2xx exchange.
type Response struct {
	API        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Result is delivered once on the channel returned by SendAsync.
type Result struct {
	Response *Response
	Err      error
}

// Client sends GET requests. The zero value is not usable; use NewClient.
type Client struct {
	http    *http.Client
	health  *HealthTracker
	maxBody int64
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

// WithHealthTracker enables per-API circuit breaking.
func WithHealthTracker(ht *HealthTracker) Option { return func(cl *Client) { cl.health = ht } }

func WithMaxBodyBytes(n int64) Option { return func(cl *Client) { cl.maxBody = n } }

func WithLogger(l *slog.Logger) Option { return func(cl *Client) { cl.logger = l } }

func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		maxBody: defaultMaxBody,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health returns the tracker in use, or nil.
func (c *Client) Health() *HealthTracker { return c.health }

// Send blocks until u answers or ctx is done.
func (c *Client) Send(ctx context.Context, api string, u *url.URL) (*Response, error) {
	return c.send(ctx, ctx, api, u)
}

// SendAsync starts the exchange and returns immediately. The channel receives
// exactly one Result and is then closed. A timeout <= 0 adds no deadline of its own.
func (c *Client) SendAsync(ctx context.Context, api string, u *url.URL, timeout time.Duration) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)

		reqCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		resp, err := c.send(ctx, reqCtx, api, u)
		out <- Result{Response: resp, Err: err}
	}()
	return out
}

func (c *Client) send(parent, ctx context.Context, api string, u *url.URL) (*Response, error) {
	if u == nil {
		return nil, &Error{Kind: KindNetwork, API: api, Err: errors.New("nil url")}
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(parent, ctx, api, err)
	}

	var cb *CircuitBreaker
	if c.health != nil {
		cb = c.health.Breaker(api)
		if !cb.Allow() {
			return nil, &Error{Kind: KindCircuitOpen, API: api, Err: ErrCircuitOpen}
		}
	}

	start := time.Now()
	resp, err := c.do(ctx, api, u)
	elapsed := time.Since(start)

	if err != nil {
		err = classify(parent, ctx, api, err)
		record(cb, KindOf(err))
		c.logger.Debug("google request failed", "api", api, "path", u.Path, "kind", KindOf(err), "duration", elapsed)
		return nil, err
	}
	resp.Duration = elapsed

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode >= 500 {
			record(cb, KindStatus)
		} else {
			record(cb, "")
		}
		c.logger.Debug("google request rejected", "api", api, "path", u.Path, "status", resp.StatusCode, "duration", elapsed)
		return nil, &Error{
			Kind:       KindStatus,
			API:        api,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	record(cb, "")
	c.logger.Debug("google request completed", "api", api, "path", u.Path, "status", resp.StatusCode, "duration", elapsed)
	return resp, nil
}

func (c *Client) do(ctx context.Context, api string, u *url.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", api, err)
	}
	return &Response{API: api, StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// classify separates caller cancellation from deadline expiry. parent is the
// caller's context; ctx may carry an extra per-request deadline.
func classify(parent, ctx context.Context, api string, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &Error{Kind: KindCancelled, API: api, Err: err}
	case errors.Is(parent.Err(), context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Error{Kind: KindTimedOut, API: api, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCancelled, API: api, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimedOut, API: api, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimedOut, API: api, Err: err}
	}
	return &Error{Kind: KindNetwork, API: api, Err: err}
}

func record(cb *CircuitBreaker, kind Kind) {
	if cb == nil {
		return
	}
	switch kind {
	case "":
		cb.RecordSuccess()
	case KindCancelled:
		cb.Abandon()
	default:
		cb.RecordFailure()
	}
}
