package api

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"verigate.github.io/pulse/backoff"
	"verigate.github.io/pulse/xlog"
)

// HeaderProvider supplies the credential headers injected into every
// authenticated request. Returning an empty header set means no credential
// is currently stored.
type HeaderProvider func() http.Header

type Options struct {
	httpClient   *http.Client
	logger       *xlog.Logger
	headers      HeaderProvider
	unauthorized func()
	limiter      *rate.Limiter
	timeout      time.Duration
	retries      int
	backoff      backoff.Backoff
	userAgent    string
}

type Option struct {
	f func(*Options)
}

func newOptions(options ...Option) *Options {
	opts := &Options{
		httpClient: &http.Client{},
		logger:     xlog.With("component", "api"),
		timeout:    time.Second * 10,
		retries:    3,
		backoff:    backoff.Exponential(time.Second, time.Second*10),
	}
	for _, o := range options {
		o.f(opts)
	}
	return opts
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return Option{f: func(o *Options) {
		o.httpClient = hc
	}}
}

// WithLogger sets the logger used for attempt and outcome events.
func WithLogger(l *xlog.Logger) Option {
	return Option{f: func(o *Options) {
		o.logger = l
	}}
}

// WithHeaders sets the credential header provider.
func WithHeaders(p HeaderProvider) Option {
	return Option{f: func(o *Options) {
		o.headers = p
	}}
}

// WithUnauthorized sets the callback invoked on a 401 response, typically
// to clear stored credentials and send the user back to a login surface.
func WithUnauthorized(f func()) Option {
	return Option{f: func(o *Options) {
		o.unauthorized = f
	}}
}

// WithLimiter rate-limits outgoing attempts, retries included.
func WithLimiter(l *rate.Limiter) Option {
	return Option{f: func(o *Options) {
		o.limiter = l
	}}
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return Option{f: func(o *Options) {
		o.timeout = d
	}}
}

// WithRetries sets the default retry budget. A budget of n allows n+1
// attempts in total.
func WithRetries(n int) Option {
	return Option{f: func(o *Options) {
		o.retries = n
	}}
}

// WithBackoff sets the default delay strategy between attempts.
func WithBackoff(b backoff.Backoff) Option {
	return Option{f: func(o *Options) {
		o.backoff = b
	}}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return Option{f: func(o *Options) {
		o.userAgent = ua
	}}
}

// reqOptions are the per-call overrides.
type reqOptions struct {
	method       string
	body         []byte
	contentType  string
	header       http.Header
	timeout      time.Duration
	retries      int
	backoff      backoff.Backoff
	requiresAuth bool
}

// ReqOption adjusts a single call.
type ReqOption struct {
	f func(*reqOptions) error
}

// WithMethod sets the HTTP method. GET is the default.
func WithMethod(method string) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		o.method = method
		return nil
	}}
}

// WithJSON sets a JSON request body. The method defaults to POST when no
// method was chosen.
func WithJSON(v any) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		o.body = data
		o.contentType = "application/json"
		if o.method == "" {
			o.method = http.MethodPost
		}
		return nil
	}}
}

// WithRawBody sets a preencoded request body.
func WithRawBody(data []byte, contentType string) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		o.body = data
		o.contentType = contentType
		return nil
	}}
}

// WithHeader adds one header to this call.
func WithHeader(key, value string) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Add(key, value)
		return nil
	}}
}

// WithReqTimeout overrides the per-attempt timeout for this call.
func WithReqTimeout(d time.Duration) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		o.timeout = d
		return nil
	}}
}

// WithReqRetries overrides the retry budget for this call.
func WithReqRetries(n int) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		o.retries = n
		return nil
	}}
}

// WithReqBackoff overrides the delay strategy for this call.
func WithReqBackoff(b backoff.Backoff) ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		o.backoff = b
		return nil
	}}
}

// WithAuth marks the call as requiring a stored credential. The call fails
// with Unauthorized before any network attempt when none is present.
func WithAuth() ReqOption {
	return ReqOption{f: func(o *reqOptions) error {
		o.requiresAuth = true
		return nil
	}}
}
