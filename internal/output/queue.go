package output

import (
	"sync"
	"time"
)

// Queue is a bounded byte FIFO between a writer that blocks for space and a
// real-time reader that never blocks.
//
// Design:
// - Write blocks while the queue is full, providing backpressure
// - Read takes what is queued and zero-fills the rest (silence on underrun)
// - Flush discards queued bytes and releases blocked writers
// - Close releases everyone; later writes fail with ErrClosed
type Queue struct {
	mu      sync.Mutex
	buf     []byte
	r, n    int
	closed  bool
	epoch   uint64 // bumped by Flush
	changed chan struct{}
}

// NewQueue creates a queue holding up to capacity bytes.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:     make([]byte, capacity),
		changed: make(chan struct{}),
	}
}

// broadcast wakes every waiter. Must hold q.mu.
func (q *Queue) broadcast() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// Write appends p, blocking while the queue is full. A Flush during the
// write returns early with the bytes accepted so far and a nil error.
func (q *Queue) Write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	epoch := q.epoch
	written := 0
	for written < len(p) {
		if q.closed {
			return written, ErrClosed
		}
		if q.epoch != epoch {
			return written, nil
		}

		free := len(q.buf) - q.n
		if free == 0 {
			wait := q.changed
			q.mu.Unlock()
			<-wait
			q.mu.Lock()
			continue
		}

		chunk := min(free, len(p)-written)
		w := (q.r + q.n) % len(q.buf)
		c := copy(q.buf[w:], p[written:written+chunk])
		copy(q.buf, p[written+c:written+chunk])
		q.n += chunk
		written += chunk
		q.broadcast()
	}
	return written, nil
}

// Read fills p from the queue without blocking. Bytes beyond what was
// queued are zeroed. It returns the number of queued bytes delivered, and
// ErrClosed once the queue is closed.
func (q *Queue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		clear(p)
		return 0, ErrClosed
	}

	n := min(len(p), q.n)
	c := copy(p[:n], q.buf[q.r:])
	copy(p[c:n], q.buf)
	clear(p[n:])

	if n > 0 {
		q.r = (q.r + n) % len(q.buf)
		q.n -= n
		q.broadcast()
	}
	return n, nil
}

// Flush discards queued bytes and releases blocked writers.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.r, q.n = 0, 0
	q.epoch++
	q.broadcast()
}

// Close discards queued bytes and releases all waiters.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.r, q.n = 0, 0
	q.broadcast()
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Cap returns the queue capacity in bytes.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// WaitEmpty blocks until the queue is empty or closed, or timeout elapses.
// It reports whether the queue emptied.
func (q *Queue) WaitEmpty(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if q.n == 0 || q.closed {
			q.mu.Unlock()
			return true
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-wait:
		case <-timer.C:
			return false
		}
	}
}
