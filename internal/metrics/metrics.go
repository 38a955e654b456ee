// Package metrics counts transport events. Counters are cheap atomic
// increments; clients expose a snapshot for diagnostics.
package metrics

import "sync/atomic"

type Counter struct {
	count atomic.Uint64
}

func (c *Counter) Inc() {
	c.count.Add(1)
}

func (c *Counter) Add(n uint64) {
	c.count.Add(n)
}

func (c *Counter) Count() uint64 {
	return c.count.Load()
}

// Transport groups the counters kept by one client instance.
type Transport struct {
	Attempts   Counter // network attempts, first tries included
	Retries    Counter // attempts after the first within one call
	Failures   Counter // calls that exhausted their budget
	Reconnects Counter // socket reconnect attempts
	Polls      Counter // fallback polls issued
	Dropped    Counter // sends dropped while disconnected
	Malformed  Counter // envelopes rejected at the channel boundary
}

// Snapshot returns the current counter values keyed by name.
func (t *Transport) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"attempts":   t.Attempts.Count(),
		"retries":    t.Retries.Count(),
		"failures":   t.Failures.Count(),
		"reconnects": t.Reconnects.Count(),
		"polls":      t.Polls.Count(),
		"dropped":    t.Dropped.Count(),
		"malformed":  t.Malformed.Count(),
	}
}
