package queue

import (
	"sync"
	"testing"
	"time"
)

func TestPushOrder(t *testing.T) {
	q := New(16)
	defer q.Close()
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := range 10 {
		err := q.Push(func() {
			mu.Lock()
			got = append(got, i)
			if len(got) == 10 {
				close(done)
			}
			mu.Unlock()
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not finish")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task order %v", got)
		}
	}
}

func TestPushAfterClose(t *testing.T) {
	q := New(1)
	q.Close()
	if err := q.Push(func() {}); err != ErrQueueIsStopped {
		t.Errorf("err = %v, want ErrQueueIsStopped", err)
	}
}

func TestPushFull(t *testing.T) {
	q := New(1)
	defer q.Close()
	block := make(chan struct{})
	defer close(block)
	q.Push(func() { <-block }) // occupies the worker
	// wait for the worker to pick up the first task, then fill the buffer
	time.Sleep(10 * time.Millisecond)
	if err := q.Push(func() {}); err != nil {
		t.Fatalf("buffered push failed: %v", err)
	}
	if err := q.Push(func() {}); err != ErrQueueIsFull {
		t.Errorf("err = %v, want ErrQueueIsFull", err)
	}
}
