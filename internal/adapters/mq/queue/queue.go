// Package queue provides the bounded title queue drained by one metadata
// resolution. A queue is owned by a single resolution and never shared.
package queue

import (
	"context"
	"sync"
)

const defaultQueueCapacity = 4096

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a title. It returns false if the queue is full or closed.
	Enqueue(ctx context.Context, title string) bool

	// Dequeue returns the channel titles are claimed from. It is closed once
	// the queue is closed and drained.
	Dequeue() <-chan string

	// Len returns the number of unclaimed titles.
	Len() int

	// Close stops accepting titles.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	titles   chan string
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates an empty queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.titles = make(chan string, q.capacity)
	return q
}

// FromTitles returns a closed queue holding each distinct title once, in
// first-seen order. Titles are compared exactly.
func FromTitles(titles []string) *InMemoryQueue {
	seen := make(map[string]struct{}, len(titles))
	distinct := make([]string, 0, len(titles))
	for _, t := range titles {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}
	q := NewInMemoryQueue(WithCapacity(len(distinct)))
	for _, t := range distinct {
		q.titles <- t
	}
	_ = q.Close()
	return q
}

// Enqueue adds a title to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, title string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.titles <- title:
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// Dequeue returns the claim channel.
func (q *InMemoryQueue) Dequeue() <-chan string {
	return q.titles
}

// Len returns the number of unclaimed titles.
func (q *InMemoryQueue) Len() int {
	return len(q.titles)
}

// Close stops accepting titles. Already queued titles can still be claimed.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.titles)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Claim takes the next title unless ctx is done or the queue is drained.
// Cancellation is checked before claiming so no title is taken after it.
func Claim(ctx context.Context, q Queue) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	default:
	}
	select {
	case <-ctx.Done():
		return "", false
	case t, ok := <-q.Dequeue():
		return t, ok
	}
}
