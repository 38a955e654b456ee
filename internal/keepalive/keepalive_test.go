package keepalive

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPingThenPong(t *testing.T) {
	k := New(20*time.Millisecond, 50*time.Millisecond)
	var pings, expires atomic.Int32
	k.OnPing(func() {
		pings.Add(1)
		k.Pong()
	})
	k.OnExpire(func() { expires.Add(1) })
	k.Start()
	defer k.Stop()
	time.Sleep(120 * time.Millisecond)
	if pings.Load() == 0 {
		t.Error("no pings sent")
	}
	if expires.Load() != 0 {
		t.Errorf("expired %d times despite pongs", expires.Load())
	}
}

func TestMissedPongExpires(t *testing.T) {
	k := New(20*time.Millisecond, 20*time.Millisecond)
	var expires atomic.Int32
	k.OnPing(func() {}) // never answered
	k.OnExpire(func() { expires.Add(1) })
	k.Start()
	defer k.Stop()
	time.Sleep(120 * time.Millisecond)
	if expires.Load() == 0 {
		t.Error("missed pong did not expire")
	}
}

func TestRecentTrafficSuppressesPing(t *testing.T) {
	k := New(40*time.Millisecond, 40*time.Millisecond)
	var pings atomic.Int32
	k.OnPing(func() { pings.Add(1) })
	k.OnExpire(func() {})
	k.Start()
	defer k.Stop()
	for range 10 {
		k.Touch()
		time.Sleep(15 * time.Millisecond)
	}
	if pings.Load() != 0 {
		t.Errorf("%d pings sent while traffic was flowing", pings.Load())
	}
}

func TestStopSilencesProbes(t *testing.T) {
	k := New(10*time.Millisecond, 10*time.Millisecond)
	var expires atomic.Int32
	k.OnPing(func() {})
	k.OnExpire(func() { expires.Add(1) })
	k.Start()
	time.Sleep(25 * time.Millisecond)
	k.Stop()
	base := expires.Load()
	time.Sleep(60 * time.Millisecond)
	if expires.Load() > base {
		t.Error("expire fired after Stop")
	}
}
