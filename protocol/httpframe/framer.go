// File: protocol/httpframe/framer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// transport.Framer that cuts an HTTP/1.x byte stream into one pooled segment
// per request, carrying pipelined leftovers into the next segment.

package httpframe

import (
	"fmt"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/pool"
	"github.com/momentics/hioload-nio/transport"
)

// Option configures a Framer.
type Option func(*Framer)

// WithMaxMessage rejects requests whose buffered size exceeds n bytes.
func WithMaxMessage(n int) Option {
	return func(f *Framer) {
		f.maxMessage = n
	}
}

// Framer is bound to one connection and used by the reactor goroutine only.
type Framer struct {
	pool       *pool.BufferPool
	next       *pool.Segment
	completed  []*pool.Segment
	headers    Headers
	maxMessage int
}

// New returns an uninitialised framer.
func New(opts ...Option) *Framer {
	f := &Framer{}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Factory returns a transport.FramerFactory producing framers with opts.
func Factory(opts ...Option) transport.FramerFactory {
	return func() transport.Framer { return New(opts...) }
}

// Init binds the framer to p and reserves the first in-flight segment.
func (f *Framer) Init(p *pool.BufferPool) error {
	f.pool = p
	f.next = p.Acquire()
	if f.next == nil {
		return fmt.Errorf("httpframe: init: %w", api.ErrPoolExhausted)
	}
	return nil
}

// Consume appends raw to the in-flight segment and cuts every complete
// request off it. Requests that fit the smallest class are copied into a fresh
// small segment; the in-flight block keeps the remainder and is compacted once
// per call. Each finished segment carries its Headers in Metadata.
func (f *Framer) Consume(c *transport.Connection, raw []byte) error {
	if f.next == nil {
		if f.next = f.pool.Acquire(); f.next == nil {
			return fmt.Errorf("httpframe: %w", api.ErrPoolExhausted)
		}
	}
	if f.next.Append(raw) < 0 {
		if f.next.Length+len(raw) > f.pool.MaxCapacity() {
			return fmt.Errorf("httpframe: %d buffered bytes: %w", f.next.Length+len(raw), api.ErrMessageTooLarge)
		}
		return fmt.Errorf("httpframe: grow to %d bytes: %w", f.next.Length+len(raw), api.ErrPoolExhausted)
	}

	small := f.pool.ClassCapacity(0)
	start := 0
	for {
		end, err := ParseRequest(f.next.Bytes()[start:], &f.headers)
		if err != nil {
			return err
		}
		if end < 0 {
			break
		}
		from := start + f.headers.RequestStart
		if start+end-from <= small {
			msg := f.pool.Acquire()
			if msg == nil {
				f.next.TrimFront(start)
				return fmt.Errorf("httpframe: next request: %w", api.ErrPoolExhausted)
			}
			msg.Append(f.next.Bytes()[from : start+end])
			f.finish(c, msg, f.headers.rebase(f.headers.RequestStart))
			start += end
			continue
		}

		// The request itself needs a larger block: it keeps the in-flight one.
		f.next.TrimFront(from)
		size := start + end - from
		tail := f.pool.Acquire()
		if tail == nil {
			return fmt.Errorf("httpframe: next request: %w", api.ErrPoolExhausted)
		}
		if err := f.next.SplitTailInto(tail, size); err != nil {
			tail.Release()
			return err
		}
		f.next.Truncate(size)
		f.finish(c, f.next, f.headers.rebase(f.headers.RequestStart))
		f.next = tail
		start = 0
	}
	f.next.TrimFront(start)

	if f.maxMessage > 0 && f.next.Length > f.maxMessage {
		return fmt.Errorf("httpframe: %d bytes without a complete request: %w", f.next.Length, api.ErrMessageTooLarge)
	}
	return nil
}

func (f *Framer) finish(c *transport.Connection, msg *pool.Segment, h Headers) {
	msg.SocketID = c.ID()
	msg.Metadata = h
	f.completed = append(f.completed, msg)
}

// TakeCompleted returns requests completed since the last call. The slice is
// reused by the next Consume.
func (f *Framer) TakeCompleted() []*pool.Segment {
	out := f.completed
	f.completed = f.completed[:0]
	return out
}

// Pending returns the number of buffered bytes of the unfinished request.
func (f *Framer) Pending() int {
	if f.next == nil {
		return 0
	}
	return f.next.Length
}

// Release returns every segment the framer still holds.
func (f *Framer) Release() {
	if f.next != nil {
		f.next.Release()
		f.next = nil
	}
	for i, s := range f.completed {
		s.Release()
		f.completed[i] = nil
	}
	f.completed = f.completed[:0]
}
