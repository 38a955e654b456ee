// Package keepalive schedules the heartbeat of a live connection: a ping on
// a fixed interval, and an expiry callback when the matching pong does not
// arrive in time. A missed pong is treated as a dead connection, it is not
// just a log line.
package keepalive

import (
	"sync"
	"time"
)

type KeepAlive struct {
	mu       sync.Mutex
	stop     chan struct{}
	pong     chan struct{}
	interval time.Duration
	timeout  time.Duration
	pingFn   func()
	expireFn func()
	last     time.Time
}

// New creates an idle keepalive. OnPing and OnExpire must be set before
// Start.
func New(interval, timeout time.Duration) *KeepAlive {
	return &KeepAlive{
		interval: interval,
		timeout:  timeout,
		last:     time.Now(),
	}
}

// OnPing sets the function that sends a ping on the wire.
func (k *KeepAlive) OnPing(f func()) {
	k.pingFn = f
}

// OnExpire sets the function called when a pong does not arrive within the
// timeout.
func (k *KeepAlive) OnExpire(f func()) {
	k.expireFn = f
}

// Start arms the heartbeat. Calling Start on a running keepalive is a no-op.
func (k *KeepAlive) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stop != nil {
		return
	}
	k.last = time.Now()
	stop := make(chan struct{})
	k.stop = stop
	go func() {
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				go k.probe(stop)
			}
		}
	}()
}

// Stop disarms the heartbeat and any probe waiting for a pong.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stop != nil {
		close(k.stop)
		k.stop = nil
	}
}

// Touch records traffic on the connection. A connection that carried a
// packet within the last interval is not probed.
func (k *KeepAlive) Touch() {
	k.mu.Lock()
	k.last = time.Now()
	k.mu.Unlock()
}

// Pong resolves the probe currently waiting for a pong, if any.
func (k *KeepAlive) Pong() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.pong != nil {
		close(k.pong)
		k.pong = nil
	}
}

func (k *KeepAlive) probe(stop chan struct{}) {
	k.mu.Lock()
	if k.last.Add(k.interval).After(time.Now()) {
		k.mu.Unlock()
		return
	}
	pong := make(chan struct{})
	k.pong = pong
	k.mu.Unlock()
	k.pingFn()
	timer := time.NewTimer(k.timeout)
	defer timer.Stop()
	select {
	case <-stop:
	case <-pong:
	case <-timer.C:
		select {
		case <-stop:
		default:
			k.expireFn()
		}
	}
}
