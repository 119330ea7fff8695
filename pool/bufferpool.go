// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
//
// Tiered segment allocator. Each size class owns one contiguous byte arena sliced
// into fixed blocks; free blocks are tracked by index in a FreeIndexQueue.
// Segments borrow a block (arena + index handle) and must be released explicitly.

package pool

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-nio/api"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
)

// SizeClass describes one tier of the pool.
type SizeClass struct {
	Capacity int // bytes per block
	Blocks   int // number of blocks in the arena
}

// DefaultSizeClasses returns small 4 KiB x 1024, medium 128 KiB x 128 and large 1 MiB x 16.
func DefaultSizeClasses() []SizeClass {
	return []SizeClass{
		{Capacity: 4 * KiB, Blocks: 1024},
		{Capacity: 128 * KiB, Blocks: 128},
		{Capacity: 1 * MiB, Blocks: 16},
	}
}

type sizeClass struct {
	SizeClass
	arena []byte
	free  *FreeIndexQueue
}

// Option customizes pool construction.
type Option func(*BufferPool)

// WithLocking makes every pool operation take an internal mutex. Needed only when
// segments are acquired or released outside the reactor goroutine.
func WithLocking() Option {
	return func(p *BufferPool) { p.locking = true }
}

// BufferPool hands out Segments over fixed-size blocks of its size classes.
// Without WithLocking it must only be used from a single goroutine.
type BufferPool struct {
	classes []sizeClass

	// Segment headers are preallocated so Acquire never touches the heap.
	headers     []Segment
	freeHeaders *FreeIndexQueue

	locking bool
	mu      sync.Mutex

	acquired  uint64
	grown     uint64
	released  uint64
	exhausted uint64
}

// NewBufferPool builds the arenas and seeds every free list with all block indices.
// Classes must be non-empty and strictly increasing in capacity.
func NewBufferPool(classes []SizeClass, opts ...Option) (*BufferPool, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("buffer pool: no size classes: %w", api.ErrInvalidArgument)
	}
	p := &BufferPool{classes: make([]sizeClass, len(classes))}
	total := 0
	for i, c := range classes {
		if c.Capacity <= 0 || c.Blocks <= 0 {
			return nil, fmt.Errorf("buffer pool: class %d has capacity %d, blocks %d: %w",
				i, c.Capacity, c.Blocks, api.ErrInvalidArgument)
		}
		if i > 0 && c.Capacity <= classes[i-1].Capacity {
			return nil, fmt.Errorf("buffer pool: class %d capacity %d not above %d: %w",
				i, c.Capacity, classes[i-1].Capacity, api.ErrInvalidArgument)
		}
		sc := sizeClass{
			SizeClass: c,
			arena:     make([]byte, c.Capacity*c.Blocks),
			free:      NewFreeIndexQueue(c.Blocks),
		}
		seed(sc.free, c.Blocks)
		p.classes[i] = sc
		total += c.Blocks
	}
	p.headers = make([]Segment, total)
	p.freeHeaders = NewFreeIndexQueue(total)
	seed(p.freeHeaders, total)
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func seed(q *FreeIndexQueue, n int) {
	for i := 0; i < n; i++ {
		q.Put(i)
	}
}

func (p *BufferPool) lock() {
	if p.locking {
		p.mu.Lock()
	}
}

func (p *BufferPool) unlock() {
	if p.locking {
		p.mu.Unlock()
	}
}

// NumClasses returns the number of size classes.
func (p *BufferPool) NumClasses() int { return len(p.classes) }

// ClassCapacity returns the block size of class i.
func (p *BufferPool) ClassCapacity(i int) int { return p.classes[i].Capacity }

// MaxCapacity returns the block size of the largest class.
func (p *BufferPool) MaxCapacity() int { return p.classes[len(p.classes)-1].Capacity }

// Acquire returns an empty segment over a block of the smallest class, or nil when
// that class is exhausted. It never falls back to a larger class.
func (p *BufferPool) Acquire() *Segment {
	p.lock()
	defer p.unlock()

	small := &p.classes[0]
	if small.free.Available() == 0 || p.freeHeaders.Available() == 0 {
		p.exhausted++
		return nil
	}
	block := small.free.Take()
	h := p.freeHeaders.Take()
	s := &p.headers[h]
	*s = Segment{
		pool:     p,
		header:   h,
		class:    0,
		block:    block,
		buf:      small.arena,
		Offset:   block * small.Capacity,
		Capacity: small.Capacity,
	}
	p.acquired++
	return s
}

// Grow moves s one class up: the live bytes are copied into a block of the next
// class and the old block goes back to its free list. It returns false without
// touching s when s is already in the largest class or the next class is exhausted.
func (p *BufferPool) Grow(s *Segment) bool {
	if p == nil || s == nil || s.pool != p {
		return false
	}
	p.lock()
	defer p.unlock()

	next := s.class + 1
	if next >= len(p.classes) {
		p.exhausted++
		return false
	}
	to := &p.classes[next]
	block := to.free.Take()
	if block < 0 {
		p.exhausted++
		return false
	}
	offset := block * to.Capacity
	copy(to.arena[offset:offset+s.Length], s.buf[s.Offset:s.Offset+s.Length])

	p.classes[s.class].free.Put(s.block)

	s.class = next
	s.block = block
	s.buf = to.arena
	s.Offset = offset
	s.Capacity = to.Capacity
	p.grown++
	return true
}

// Release returns the block and header of s to the pool. Releasing nil or an
// already released segment does nothing. s must not be used afterwards.
func (p *BufferPool) Release(s *Segment) {
	if p == nil || s == nil || s.pool != p {
		return
	}
	p.lock()
	defer p.unlock()

	p.classes[s.class].free.Put(s.block)
	p.freeHeaders.Put(s.header)
	*s = Segment{header: s.header}
	p.released++
}

// ClassStats reports the occupancy of one size class.
type ClassStats struct {
	Capacity int
	Blocks   int
	Free     int
	InUse    int
}

// Stats aggregates pool occupancy and allocation counters.
type Stats struct {
	Classes   []ClassStats
	Acquired  uint64
	Grown     uint64
	Released  uint64
	Exhausted uint64
}

// Stats returns a snapshot of the pool state.
func (p *BufferPool) Stats() Stats {
	p.lock()
	defer p.unlock()

	st := Stats{
		Classes:   make([]ClassStats, len(p.classes)),
		Acquired:  p.acquired,
		Grown:     p.grown,
		Released:  p.released,
		Exhausted: p.exhausted,
	}
	for i := range p.classes {
		c := &p.classes[i]
		free := c.free.Available()
		st.Classes[i] = ClassStats{
			Capacity: c.Capacity,
			Blocks:   c.Blocks,
			Free:     free,
			InUse:    c.Blocks - free,
		}
	}
	return st
}
