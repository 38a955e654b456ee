package socket

import (
	"net/http"
	"time"

	"verigate.github.io/pulse/backoff"
	"verigate.github.io/pulse/xlog"
)

// SendPolicy decides what happens to an outbound envelope while the socket
// is not connected.
type SendPolicy uint8

const (
	// DropWhenDisconnected discards the envelope and reports SendDropped.
	// Stale sends are usually worse than lost ones for realtime data.
	DropWhenDisconnected SendPolicy = iota
	// QueueWhenDisconnected holds envelopes in a bounded queue and flushes
	// them on the next successful connection.
	QueueWhenDisconnected
)

type Options struct {
	logger         *xlog.Logger
	header         func() http.Header
	dialer         Dialer
	poller         Poller
	pollInterval   time.Duration
	reconnectLimit int
	reconnectWait  backoff.Backoff
	pingInterval   time.Duration
	pongTimeout    time.Duration
	sendPolicy     SendPolicy
	sendQueueSize  int
	dispatchSize   int
}

type Option struct {
	f func(*Options)
}

func newOptions(options ...Option) *Options {
	opts := &Options{
		logger:         xlog.With("component", "socket"),
		dialer:         newWSConn,
		pollInterval:   time.Second * 15,
		reconnectLimit: 10,
		reconnectWait:  backoff.Exponential(time.Second, time.Second*30),
		pingInterval:   time.Second * 30,
		pongTimeout:    time.Second * 5,
		sendPolicy:     DropWhenDisconnected,
		sendQueueSize:  64,
		dispatchSize:   256,
	}
	for _, o := range options {
		o.f(opts)
	}
	return opts
}

// WithLogger sets the logger for state transitions and channel events.
func WithLogger(l *xlog.Logger) Option {
	return Option{f: func(o *Options) {
		o.logger = l
	}}
}

// WithHeader sets the provider of handshake headers, typically carrying
// the credential.
func WithHeader(h func() http.Header) Option {
	return Option{f: func(o *Options) {
		o.header = h
	}}
}

// WithDialer replaces the connection factory. Tests use this to run the
// socket against a fake channel.
func WithDialer(d Dialer) Option {
	return Option{f: func(o *Options) {
		o.dialer = d
	}}
}

// WithFallback sets the poller consulted while in fallback and the
// interval between polls.
func WithFallback(p Poller, interval time.Duration) Option {
	return Option{f: func(o *Options) {
		o.poller = p
		o.pollInterval = interval
	}}
}

// WithReconnect sets the reconnect attempt ceiling and the delay strategy
// between attempts.
func WithReconnect(limit int, wait backoff.Backoff) Option {
	return Option{f: func(o *Options) {
		o.reconnectLimit = limit
		o.reconnectWait = wait
	}}
}

// WithHeartbeat sets the ping interval and how long a pong may take before
// the connection is considered dead.
func WithHeartbeat(interval, timeout time.Duration) Option {
	return Option{f: func(o *Options) {
		o.pingInterval = interval
		o.pongTimeout = timeout
	}}
}

// WithSendPolicy sets the disconnected-send policy. The queue size only
// applies to QueueWhenDisconnected.
func WithSendPolicy(p SendPolicy, queueSize int) Option {
	return Option{f: func(o *Options) {
		o.sendPolicy = p
		if queueSize > 0 {
			o.sendQueueSize = queueSize
		}
	}}
}
