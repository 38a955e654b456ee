// Package queue provides a serialized task queue. Tasks run one at a time
// on a single worker goroutine, in push order, which is how the socket
// keeps observer delivery ordered with arrival.
package queue

import (
	"sync"
)

type Error uint8

const (
	ErrQueueIsFull    Error = 0
	ErrQueueIsStopped Error = 1
)

func (e Error) Error() string {
	switch e {
	case ErrQueueIsStopped:
		return "queue is stopped"
	case ErrQueueIsFull:
		return "queue is full"
	default:
		return "unknown error"
	}
}

type Queue struct {
	mu    sync.Mutex
	tasks chan func()
}

// New creates a queue holding at most size pending tasks and starts its
// worker goroutine.
func New(size int) *Queue {
	if size < 1 {
		panic("queue size must be at least 1")
	}
	q := &Queue{tasks: make(chan func(), size)}
	go q.run()
	return q
}

func (q *Queue) run() {
	for task := range q.tasks {
		task()
	}
}

// Push enqueues a task. It never blocks: a full queue fails with
// ErrQueueIsFull, a closed queue with ErrQueueIsStopped.
func (q *Queue) Push(task func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tasks == nil {
		return ErrQueueIsStopped
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueIsFull
	}
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops the worker after it drains the pending tasks.
// Push fails afterwards.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tasks != nil {
		close(q.tasks)
		q.tasks = nil
	}
}
