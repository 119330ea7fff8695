// File: reactor/handler.go
// Author: momentics <momentics@gmail.com>
//
// Application handler seam.

package reactor

import "github.com/momentics/hioload-nio/pool"

// Responder lets a handler build and queue responses. It is scoped to the
// reactor, responses are routed by Segment.SocketID.
type Responder interface {
	// NewOutboundSegment acquires a response segment from the write pool,
	// or nil when the pool is exhausted.
	NewOutboundSegment() *pool.Segment
	// Enqueue hands seg to the outbound queue of connection seg.SocketID.
	// Segments for connections that are gone are released.
	Enqueue(seg *pool.Segment)
}

// MessageHandler processes one complete inbound message. seg is released by
// the reactor after Handle returns and must not be retained.
type MessageHandler interface {
	Handle(seg *pool.Segment, r Responder)
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(seg *pool.Segment, r Responder)

// Handle calls f(seg, r).
func (f HandlerFunc) Handle(seg *pool.Segment, r Responder) { f(seg, r) }
