package socket

import (
	"sync"
	"time"

	"verigate.github.io/pulse/backoff"
)

// retrier tracks the reconnect budget of a socket. A retrier schedules at
// most one pending wait at a time; cancel aborts it before it fires.
type retrier struct {
	mu      sync.Mutex
	limit   int
	count   int
	backoff backoff.Backoff
	stop    chan struct{}
}

func newRetrier(limit int, b backoff.Backoff) *retrier {
	return &retrier{limit: limit, backoff: b}
}

// next records one failed connection attempt and returns the delay to wait
// before the next one. ok is false once the attempt count reaches the
// limit: the caller must stop reconnecting and degrade instead.
func (r *retrier) next() (delay time.Duration, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if r.count >= r.limit {
		return 0, false
	}
	return r.backoff.Next(int64(r.count - 1)), true
}

// attempts returns the number of attempts consumed so far.
func (r *retrier) attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// reset restores the full budget after a successful connection.
func (r *retrier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = 0
}

// schedule runs fn after delay unless cancel is called first. A second
// schedule while one wait is pending is ignored.
func (r *retrier) schedule(delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	stop := make(chan struct{})
	r.stop = stop
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			r.mu.Lock()
			if r.stop == stop {
				r.stop = nil
			}
			r.mu.Unlock()
			fn()
		case <-stop:
		}
	}()
}

// cancel aborts the pending wait, if any.
func (r *retrier) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}
