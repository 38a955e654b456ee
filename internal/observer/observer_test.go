package observer

import (
	"testing"
)

func TestDeliveryOrder(t *testing.T) {
	var l List[int]
	var got []string
	l.Register(func(v int) { got = append(got, "a") })
	l.Register(func(v int) { got = append(got, "b") })
	l.Register(func(v int) { got = append(got, "c") })
	l.Notify(1)
	l.Notify(2)
	want := "abcabc"
	var s string
	for _, g := range got {
		s += g
	}
	if s != want {
		t.Errorf("delivery order %q, want %q", s, want)
	}
}

func TestUnregister(t *testing.T) {
	var l List[string]
	var got []string
	l.Register(func(v string) { got = append(got, "first:"+v) })
	id := l.Register(func(v string) { got = append(got, "second:"+v) })
	l.Unregister(id)
	l.Unregister(id) // second removal is a no-op
	l.Notify("x")
	if len(got) != 1 || got[0] != "first:x" {
		t.Errorf("got %v, want [first:x]", got)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestUnregisterDuringNotify(t *testing.T) {
	var l List[int]
	count := 0
	var id int
	id = l.Register(func(v int) {
		count++
		l.Unregister(id)
	})
	l.Notify(1)
	l.Notify(2)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
