// File: pool/segment.go
// Author: momentics <momentics@gmail.com>
//
// Segment is a view over one pool block. It is the unit exchanged between the
// framer, the message handler and the outbound queue.

package pool

import (
	"fmt"

	"github.com/momentics/hioload-nio/api"
)

// Segment borrows a block from a BufferPool. The block is identified by its size
// class and index; buf is the class arena shared with every other segment of that
// class. Invariants: 0 <= Length <= Capacity and Offset+Capacity <= len(buf).
type Segment struct {
	pool   *BufferPool
	header int
	class  int
	block  int
	buf    []byte

	Offset   int // start of this block inside the shared arena
	Capacity int // block size
	Length   int // bytes in use

	// SocketID is the source connection for inbound segments and the
	// destination connection for outbound ones.
	SocketID uint64
	Metadata any
}

// Pool returns the owning pool, or nil once released.
func (s *Segment) Pool() *BufferPool { return s.pool }

// Class returns the size class index currently backing s.
func (s *Segment) Class() int { return s.class }

// Bytes returns the live bytes. The slice aliases pool memory and is only valid
// until the segment grows or is released.
func (s *Segment) Bytes() []byte {
	return s.buf[s.Offset : s.Offset+s.Length : s.Offset+s.Capacity]
}

// Remaining returns the free space left in the current block.
func (s *Segment) Remaining() int { return s.Capacity - s.Length }

// Append copies p after the live bytes, growing one size class at a time until it
// fits. It returns the number of bytes copied, or -1 when a growth step fails; in
// that case nothing from p is copied but bytes from earlier calls remain.
func (s *Segment) Append(p []byte) int {
	remaining := len(p)
	for s.Length+remaining > s.Capacity {
		if !s.pool.Grow(s) {
			return -1
		}
	}
	n := copy(s.buf[s.Offset+s.Length:s.Offset+s.Capacity], p)
	s.Length += n
	return n
}

// AppendString is Append for strings.
func (s *Segment) AppendString(str string) int {
	remaining := len(str)
	for s.Length+remaining > s.Capacity {
		if !s.pool.Grow(s) {
			return -1
		}
	}
	n := copy(s.buf[s.Offset+s.Length:s.Offset+s.Capacity], str)
	s.Length += n
	return n
}

// SplitTailInto copies the bytes in [boundary, Length) to the start of other and
// sets other.Length to the copied count, growing other when needed. The length of
// s is left alone; callers truncate the completed message themselves.
func (s *Segment) SplitTailInto(other *Segment, boundary int) error {
	if boundary < 0 || boundary > s.Length {
		return fmt.Errorf("split at %d of %d: %w", boundary, s.Length, api.ErrInvalidArgument)
	}
	tail := s.Length - boundary
	for tail > other.Capacity {
		if !other.pool.Grow(other) {
			return fmt.Errorf("split tail of %d bytes: %w", tail, api.ErrPoolExhausted)
		}
	}
	start := s.Offset + boundary
	copy(other.buf[other.Offset:other.Offset+tail], s.buf[start:start+tail])
	other.Length = tail
	return nil
}

// TrimFront drops the first n live bytes, moving the rest to the block start.
// n is clamped to [0, Length].
func (s *Segment) TrimFront(n int) {
	if n <= 0 {
		return
	}
	if n >= s.Length {
		s.Length = 0
		return
	}
	b := s.buf[s.Offset : s.Offset+s.Length]
	s.Length = copy(b, b[n:])
}

// Truncate shrinks the live length to n, clamped to [0, Length].
func (s *Segment) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < s.Length {
		s.Length = n
	}
}

// Release hands the block back to its pool. s must not be used afterwards.
func (s *Segment) Release() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Release(s)
}
