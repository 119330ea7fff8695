// File: transport/framer.go
// Author: momentics <momentics@gmail.com>
//
// Framer is the pluggable byte-stream to message reassembler.

package transport

import "github.com/momentics/hioload-nio/pool"

// Framer turns raw reads of one connection into complete message segments.
// It owns its in-flight partial segment across calls and must not assume that
// read boundaries align with message boundaries.
type Framer interface {
	// Init binds the framer to the pool it allocates inbound segments from.
	Init(p *pool.BufferPool) error
	// Consume accumulates raw bytes read from c. A returned error is fatal for
	// the connection (pool exhaustion, oversize or malformed input).
	Consume(c *Connection, raw []byte) error
	// TakeCompleted returns the messages completed since the last call, each
	// carrying c.ID() as SocketID. The returned slice is only valid until the
	// next Consume.
	TakeCompleted() []*pool.Segment
}

// Releaser is implemented by framers holding pool segments that must be
// returned when the connection is torn down.
type Releaser interface {
	Release()
}

// FramerFactory creates a fresh Framer for every accepted connection.
type FramerFactory func() Framer

// PendingReporter is implemented by framers that can report how many bytes of
// an unfinished message they currently hold.
type PendingReporter interface {
	Pending() int
}
