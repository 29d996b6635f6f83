package queue

import (
	"context"
	"sync"
	"testing"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, "Oshama Scramble!") {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}
	if title := <-q.Dequeue(); title != "Oshama Scramble!" {
		t.Errorf("expected Oshama Scramble!, got %q", title)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, "a") || !q.Enqueue(ctx, "b") {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, "c") {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()
	q.Enqueue(ctx, "a")

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, "b") {
		t.Error("expected enqueue after close to fail")
	}
	if title, ok := <-q.Dequeue(); !ok || title != "a" {
		t.Errorf("expected queued title to survive close, got %q %v", title, ok)
	}
	if _, ok := <-q.Dequeue(); ok {
		t.Error("expected drained queue to report closed")
	}
}

func TestFromTitles(t *testing.T) {
	q := FromTitles([]string{"a", "b", "a", "A", "b", "c"})

	if !q.IsClosed() {
		t.Error("expected prefilled queue to be closed")
	}
	if l := q.Len(); l != 4 {
		t.Fatalf("expected 4 distinct titles, got %d", l)
	}
	var got []string
	for title := range q.Dequeue() {
		got = append(got, title)
	}
	want := []string{"a", "b", "A", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestFromTitles_Empty(t *testing.T) {
	q := FromTitles(nil)
	if l := q.Len(); l != 0 {
		t.Errorf("expected empty queue, got %d", l)
	}
	if _, ok := Claim(context.Background(), q); ok {
		t.Error("expected no claim from an empty queue")
	}
}

func TestClaim_Cancelled(t *testing.T) {
	q := FromTitles([]string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := Claim(ctx, q); ok {
		t.Error("expected claim to fail after cancellation")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected nothing claimed, got length %d", l)
	}
}

func TestClaim_ConcurrentDrain(t *testing.T) {
	titles := make([]string, 200)
	for i := range titles {
		titles[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	q := FromTitles(titles)
	ctx := context.Background()

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				title, ok := Claim(ctx, q)
				if !ok {
					return
				}
				mu.Lock()
				seen[title]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != len(titles) {
		t.Errorf("expected %d titles, got %d", len(titles), len(seen))
	}
	for title, n := range seen {
		if n != 1 {
			t.Errorf("title %q claimed %d times", title, n)
		}
	}
}
