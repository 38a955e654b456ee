// Package backoff provides retry delay strategies for the transport clients.
// The request client and the socket both compute their wait-before-retry
// delays through the Backoff interface, so tests and embedders can swap the
// growth curve without touching retry bookkeeping.
package backoff

import (
	"math/rand/v2"
	"time"
)

// Backoff computes the delay to wait before a retry attempt.
// Count is the number of retries already performed: the first retry asks
// for Next(0), the second for Next(1), and so on.
type Backoff interface {
	Next(count int64) time.Duration
}

// Default returns the strategy used when no override is configured:
// exponential growth from 1 second, capped at 30 seconds.
func Default() Backoff {
	return Exponential(time.Second, time.Second*30)
}

// Exponential doubles the delay on every retry: min(base * 2^count, cap).
func Exponential(base, cap time.Duration) Backoff {
	return exponentialBackoff{base: base, cap: cap}
}

// Linear grows the delay by step on every retry, starting at base,
// capped at cap.
func Linear(base, step, cap time.Duration) Backoff {
	return linearBackoff{base: base, step: step, cap: cap}
}

// Constant waits the same duration before every retry.
func Constant(dur time.Duration) Backoff {
	return constantBackoff{duration: dur}
}

// Jitter spreads the delays of next by up to frac (0..1) in either
// direction, so a fleet of clients does not reconnect in lockstep.
func Jitter(next Backoff, frac float64) Backoff {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return jitterBackoff{next: next, frac: frac}
}

type constantBackoff struct {
	duration time.Duration
}

func (b constantBackoff) Next(count int64) time.Duration {
	return b.duration
}

type exponentialBackoff struct {
	base time.Duration
	cap  time.Duration
}

func (b exponentialBackoff) Next(count int64) time.Duration {
	if count >= 62 {
		return b.cap
	}
	d := b.base << uint(count)
	if d <= 0 || d > b.cap {
		return b.cap
	}
	return d
}

type linearBackoff struct {
	base time.Duration
	step time.Duration
	cap  time.Duration
}

func (b linearBackoff) Next(count int64) time.Duration {
	d := b.base + time.Duration(count)*b.step
	if d > b.cap {
		return b.cap
	}
	return d
}

type jitterBackoff struct {
	next Backoff
	frac float64
}

func (b jitterBackoff) Next(count int64) time.Duration {
	d := float64(b.next.Next(count))
	spread := d * b.frac
	return time.Duration(d - spread + 2*spread*rand.Float64())
}
