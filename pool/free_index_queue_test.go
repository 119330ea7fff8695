package pool_test

import (
	"math/rand"
	"testing"

	"github.com/momentics/hioload-nio/pool"
)

func checkInvariant(t *testing.T, q *pool.FreeIndexQueue) {
	t.Helper()
	if got := q.Available() + q.RemainingCapacity(); got != q.Capacity() {
		t.Fatalf("available %d + remaining %d != capacity %d",
			q.Available(), q.RemainingCapacity(), q.Capacity())
	}
}

func TestFreeIndexQueue_PutTake(t *testing.T) {
	q := pool.NewFreeIndexQueue(4)
	if q.Take() != -1 {
		t.Fatal("expected -1 from empty queue")
	}
	for i := 0; i < 4; i++ {
		if !q.Put(i) {
			t.Fatalf("Put(%d) failed", i)
		}
		checkInvariant(t, q)
	}
	if q.Put(99) {
		t.Fatal("Put succeeded on full queue")
	}
	if q.Available() != 4 || q.RemainingCapacity() != 0 {
		t.Fatalf("state changed by rejected put: available=%d remaining=%d",
			q.Available(), q.RemainingCapacity())
	}
	for i := 0; i < 4; i++ {
		if v := q.Take(); v != i {
			t.Fatalf("Take = %d, want %d", v, i)
		}
	}
	if q.Take() != -1 {
		t.Fatal("expected -1 after draining")
	}
}

func TestFreeIndexQueue_Wraparound(t *testing.T) {
	q := pool.NewFreeIndexQueue(4)
	q.Put(0)
	q.Put(1)
	q.Put(2)
	q.Take()
	q.Take()
	// readPos=2, writePos=3; next puts wrap.
	for _, v := range []int{3, 4, 5} {
		if !q.Put(v) {
			t.Fatalf("Put(%d) failed", v)
		}
		checkInvariant(t, q)
	}
	if q.Put(6) {
		t.Fatal("Put succeeded on full wrapped queue")
	}
	for _, want := range []int{2, 3, 4, 5} {
		if v := q.Take(); v != want {
			t.Fatalf("Take = %d, want %d", v, want)
		}
		checkInvariant(t, q)
	}
}

func TestFreeIndexQueue_PutNSplitsAtBoundary(t *testing.T) {
	q := pool.NewFreeIndexQueue(5)
	if n := q.PutN([]int{0, 1, 2, 3}); n != 4 {
		t.Fatalf("PutN = %d, want 4", n)
	}
	dst := make([]int, 3)
	if n := q.TakeN(dst); n != 3 {
		t.Fatalf("TakeN = %d, want 3", n)
	}
	// readPos=3, writePos=4: one slot at the top, three at the bottom.
	if n := q.PutN([]int{10, 11, 12, 13, 14}); n != 4 {
		t.Fatalf("PutN across wrap = %d, want 4", n)
	}
	checkInvariant(t, q)
	if q.RemainingCapacity() != 0 {
		t.Fatalf("expected full queue, remaining %d", q.RemainingCapacity())
	}
	out := make([]int, 10)
	n := q.TakeN(out)
	want := []int{3, 10, 11, 12, 13}
	if n != len(want) {
		t.Fatalf("TakeN = %d, want %d", n, len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (got %v)", i, out[i], want[i], out[:n])
		}
	}
	checkInvariant(t, q)
}

func TestFreeIndexQueue_TakeNPartial(t *testing.T) {
	q := pool.NewFreeIndexQueue(4)
	q.PutN([]int{1, 2, 3, 4})
	q.TakeN(make([]int, 3))
	q.PutN([]int{5, 6})
	// readPos=3, writePos=2, flipped.
	dst := make([]int, 2)
	if n := q.TakeN(dst); n != 2 || dst[0] != 4 || dst[1] != 5 {
		t.Fatalf("TakeN = %d %v, want 2 [4 5]", n, dst)
	}
	if v := q.Take(); v != 6 {
		t.Fatalf("Take = %d, want 6", v)
	}
	if q.Available() != 0 {
		t.Fatalf("available = %d, want 0", q.Available())
	}
}

func TestFreeIndexQueue_ResetIdempotent(t *testing.T) {
	q := pool.NewFreeIndexQueue(8)
	q.PutN([]int{1, 2, 3, 4, 5, 6})
	q.TakeN(make([]int, 5))
	q.PutN([]int{7, 8, 9, 10})

	q.Reset()
	a1, r1 := q.Available(), q.RemainingCapacity()
	q.Reset()
	a2, r2 := q.Available(), q.RemainingCapacity()
	if a1 != a2 || r1 != r2 || a1 != 0 || r1 != 8 {
		t.Fatalf("reset not idempotent: (%d,%d) vs (%d,%d)", a1, r1, a2, r2)
	}
	if q.Take() != -1 {
		t.Fatal("reset queue not empty")
	}
	if !q.Put(42) || q.Take() != 42 {
		t.Fatal("queue unusable after reset")
	}
}

// TestFreeIndexQueue_RandomizedFIFO drives random single and bulk operations
// against a slice model and checks order and the capacity invariant throughout.
func TestFreeIndexQueue_RandomizedFIFO(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		capacity := 1 + rng.Intn(16)
		q := pool.NewFreeIndexQueue(capacity)
		var model []int
		next := 0

		for step := 0; step < 2000; step++ {
			switch rng.Intn(4) {
			case 0:
				ok := q.Put(next)
				if ok != (len(model) < capacity) {
					t.Fatalf("seed %d step %d: Put ok=%v with %d/%d", seed, step, ok, len(model), capacity)
				}
				if ok {
					model = append(model, next)
					next++
				}
			case 1:
				batch := make([]int, rng.Intn(capacity+3))
				for i := range batch {
					batch[i] = next + i
				}
				n := q.PutN(batch)
				want := capacity - len(model)
				if want > len(batch) {
					want = len(batch)
				}
				if n != want {
					t.Fatalf("seed %d step %d: PutN = %d, want %d", seed, step, n, want)
				}
				model = append(model, batch[:n]...)
				next += n
			case 2:
				v := q.Take()
				if len(model) == 0 {
					if v != -1 {
						t.Fatalf("seed %d step %d: Take on empty = %d", seed, step, v)
					}
					continue
				}
				if v != model[0] {
					t.Fatalf("seed %d step %d: Take = %d, want %d", seed, step, v, model[0])
				}
				model = model[1:]
			case 3:
				dst := make([]int, rng.Intn(capacity+3))
				n := q.TakeN(dst)
				want := len(model)
				if want > len(dst) {
					want = len(dst)
				}
				if n != want {
					t.Fatalf("seed %d step %d: TakeN = %d, want %d", seed, step, n, want)
				}
				for i := 0; i < n; i++ {
					if dst[i] != model[i] {
						t.Fatalf("seed %d step %d: TakeN[%d] = %d, want %d", seed, step, i, dst[i], model[i])
					}
				}
				model = model[n:]
			}
			checkInvariant(t, q)
			if q.Available() != len(model) {
				t.Fatalf("seed %d step %d: available %d, model %d", seed, step, q.Available(), len(model))
			}
		}
	}
}
