// Package api provides the JSON HTTP request client of the transport layer.
// Every call is a bounded attempt loop: transient failures (5xx, 408, 429,
// network errors, timeouts) are retried with capped exponential backoff,
// everything else fails fast with a classified error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"verigate.github.io/pulse/internal/metrics"
	"verigate.github.io/pulse/xlog"
)

// Client issues requests against one API base URL. A Client is safe for
// concurrent use; independent calls share nothing but configuration.
type Client struct {
	base  string
	opts  *Options
	stats *metrics.Transport
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client for the given base URL.
func New(base string, options ...Option) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		opts:  newOptions(options...),
		stats: &metrics.Transport{},
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Response is the successful outcome of a request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Decode unmarshals a JSON response body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Stats returns a snapshot of the client's transport counters.
func (c *Client) Stats() map[string]uint64 {
	return c.stats.Snapshot()
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...ReqOption) (*Response, error) {
	return c.Request(ctx, path, opts...)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...ReqOption) (*Response, error) {
	return c.Request(ctx, path, append([]ReqOption{WithJSON(body)}, opts...)...)
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any, opts ...ReqOption) error {
	resp, err := c.Request(ctx, path, opts...)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Request performs one logical call: at most retries+1 sequential attempts,
// each bounded by the per-attempt timeout, with backoff between them.
func (c *Client) Request(ctx context.Context, path string, opts ...ReqOption) (*Response, error) {
	ro := &reqOptions{
		timeout: c.opts.timeout,
		retries: c.opts.retries,
		backoff: c.opts.backoff,
	}
	for _, o := range opts {
		if err := o.f(ro); err != nil {
			return nil, &Error{Kind: KindClient, cause: err}
		}
	}
	// the method stays empty while options apply so WithJSON can default
	// a body-carrying call to POST
	if ro.method == "" {
		ro.method = http.MethodGet
	}
	logger := c.opts.logger.With("callId", uuid.NewString())

	var creds http.Header
	if c.opts.headers != nil {
		creds = c.opts.headers()
	}
	if ro.requiresAuth && len(creds) == 0 {
		logger.Warn("request requires auth but no credential is stored", xlog.Path(path))
		return nil, &Error{Kind: KindUnauthorized}
	}

	url := c.base + "/" + strings.TrimLeft(path, "/")
	var lastErr *Error
	for attempt := 0; attempt <= ro.retries; attempt++ {
		if attempt > 0 {
			delay := ro.backoff.Next(int64(attempt - 1))
			logger.Debug("retrying", xlog.Attempt(attempt), xlog.Duration("delay", delay))
			c.stats.Retries.Inc()
			if err := c.sleep(ctx, delay); err != nil {
				return nil, &Error{Kind: KindNetwork, cause: err}
			}
		}
		if c.opts.limiter != nil {
			if err := c.opts.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: KindNetwork, cause: err}
			}
		}
		resp, aerr := c.attempt(ctx, url, creds, ro)
		if aerr == nil {
			logger.Debug("request ok", xlog.Path(path), xlog.Status(resp.Status), xlog.Attempt(attempt))
			return resp, nil
		}
		lastErr = aerr
		if aerr.Kind == KindUnauthorized {
			logger.Warn("unauthorized", xlog.Path(path), xlog.Status(aerr.Status))
			if c.opts.unauthorized != nil {
				c.opts.unauthorized()
			}
			return nil, aerr
		}
		if !aerr.Kind.Retryable() {
			logger.Warn("request failed", xlog.Path(path), xlog.Err(aerr))
			return nil, aerr
		}
		logger.Debug("attempt failed", xlog.Path(path), xlog.Attempt(attempt), xlog.Err(aerr))
	}
	c.stats.Failures.Inc()
	logger.Warn("retry budget exhausted", xlog.Path(path), xlog.Err(lastErr))
	return nil, lastErr
}

// attempt performs one network attempt. It owns its own timeout; aborting
// it never affects other calls on the same client.
func (c *Client) attempt(ctx context.Context, url string, creds http.Header, ro *reqOptions) (*Response, *Error) {
	c.stats.Attempts.Inc()
	actx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()
	var body io.Reader
	if ro.body != nil {
		body = bytes.NewReader(ro.body)
	}
	req, err := http.NewRequestWithContext(actx, ro.method, url, body)
	if err != nil {
		return nil, &Error{Kind: KindClient, cause: err}
	}
	if ro.contentType != "" {
		req.Header.Set("Content-Type", ro.contentType)
	}
	if c.opts.userAgent != "" {
		req.Header.Set("User-Agent", c.opts.userAgent)
	}
	for k, vs := range creds {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range ro.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &Error{Kind: KindTimeout, cause: err}
		}
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	if kind := classify(resp.StatusCode); kind != KindUnknown {
		return nil, &Error{Kind: kind, Status: resp.StatusCode, Body: data}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
