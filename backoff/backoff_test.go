package backoff

import (
	"testing"
	"time"
)

func TestExponential(t *testing.T) {
	b := Exponential(time.Second, time.Second*8)
	expect := []time.Duration{
		time.Second,
		time.Second * 2,
		time.Second * 4,
		time.Second * 8,
		time.Second * 8,
		time.Second * 8,
	}
	for i, want := range expect {
		if got := b.Next(int64(i)); got != want {
			t.Errorf("Next(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestExponentialOverflow(t *testing.T) {
	b := Exponential(time.Second, time.Minute)
	for _, count := range []int64{62, 63, 100, 1 << 30} {
		if got := b.Next(count); got != time.Minute {
			t.Errorf("Next(%d) = %v, want cap", count, got)
		}
	}
}

func TestLinear(t *testing.T) {
	b := Linear(time.Second, time.Second*2, time.Second*6)
	expect := []time.Duration{
		time.Second,
		time.Second * 3,
		time.Second * 5,
		time.Second * 6,
		time.Second * 6,
	}
	for i, want := range expect {
		if got := b.Next(int64(i)); got != want {
			t.Errorf("Next(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestConstant(t *testing.T) {
	b := Constant(time.Second * 3)
	for i := range 5 {
		if got := b.Next(int64(i)); got != time.Second*3 {
			t.Errorf("Next(%d) = %v, want 3s", i, got)
		}
	}
}

func TestJitter(t *testing.T) {
	b := Jitter(Constant(time.Second), 0.5)
	for i := range 100 {
		d := b.Next(int64(i))
		if d < time.Millisecond*500 || d > time.Millisecond*1500 {
			t.Fatalf("Next(%d) = %v, outside jitter bounds", i, d)
		}
	}
}

func TestJitterClampsFraction(t *testing.T) {
	b := Jitter(Constant(time.Second), 2)
	for i := range 100 {
		d := b.Next(int64(i))
		if d < 0 || d > time.Second*2 {
			t.Fatalf("Next(%d) = %v, outside clamped bounds", i, d)
		}
	}
}
