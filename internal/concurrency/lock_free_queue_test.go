package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLockFreeQueue_FIFO(t *testing.T) {
	q := NewLockFreeQueue[int](3)
	if q.Cap() != 4 {
		t.Fatalf("Cap = %d, want 4", q.Cap())
	}
	for i := 0; i < 4; i++ {
		if !q.Enqueue(i) {
			t.Fatalf("Enqueue %d failed", i)
		}
	}
	if q.Enqueue(4) {
		t.Fatal("Enqueue on full queue succeeded")
	}
	if q.Len() != 4 {
		t.Fatalf("Len = %d", q.Len())
	}
	for i := 0; i < 4; i++ {
		v, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("Dequeue = %d,%v want %d", v, ok, i)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue on empty queue succeeded")
	}
}

// TestLockFreeQueue_ManyProducersOneConsumer matches the reactor usage: several
// acceptor/worker goroutines feeding a single loop.
func TestLockFreeQueue_ManyProducersOneConsumer(t *testing.T) {
	q := NewLockFreeQueue[int](64)
	const producers, items = 8, 5000
	var wg sync.WaitGroup
	var sent int64
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < items; i++ {
				v := base*items + i + 1
				for !q.Enqueue(v) {
					runtime.Gosched()
				}
				atomic.AddInt64(&sent, int64(v))
			}
		}(p)
	}

	var received int64
	lastPerProducer := make([]int, producers)
	for count := 0; count < producers*items; {
		v, ok := q.Dequeue()
		if !ok {
			runtime.Gosched()
			continue
		}
		p := (v - 1) / items
		if v <= lastPerProducer[p] {
			t.Fatalf("producer %d order broken: %d after %d", p, v, lastPerProducer[p])
		}
		lastPerProducer[p] = v
		received += int64(v)
		count++
	}
	wg.Wait()
	if received != atomic.LoadInt64(&sent) {
		t.Fatalf("sum mismatch: sent %d received %d", sent, received)
	}
}
