// File: transport/outbound_queue.go
// Author: momentics <momentics@gmail.com>
//
// Per-connection FIFO of pending response segments plus the write cursor of the
// segment currently being flushed.

package transport

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-nio/pool"
)

// OutboundQueue is not safe for concurrent use; only the reactor goroutine may
// enqueue into or drain a live queue.
type OutboundQueue struct {
	pending      *queue.Queue
	inProgress   *pool.Segment
	bytesWritten int
}

// NewOutboundQueue returns an empty queue.
func NewOutboundQueue() *OutboundQueue {
	return &OutboundQueue{pending: queue.New()}
}

// Enqueue schedules s. With nothing in flight s becomes the in-progress segment.
func (q *OutboundQueue) Enqueue(s *pool.Segment) {
	if q.inProgress == nil {
		q.inProgress = s
		return
	}
	q.pending.Add(s)
}

// IsEmpty reports whether nothing is in flight or pending.
func (q *OutboundQueue) IsEmpty() bool {
	return q.inProgress == nil && q.pending.Length() == 0
}

// Len returns the number of queued segments including the one in flight.
func (q *OutboundQueue) Len() int {
	n := q.pending.Length()
	if q.inProgress != nil {
		n++
	}
	return n
}

// BytesWritten returns the write cursor inside the in-progress segment.
func (q *OutboundQueue) BytesWritten() int { return q.bytesWritten }

// Drain copies as much of the in-progress segment as fits into scratch and
// writes it once through c. Bytes the socket did not take stay in the segment
// for the next call. A fully written segment is released to its pool and the
// next pending one is promoted.
func (q *OutboundQueue) Drain(c *Connection, scratch []byte) (int, error) {
	seg := q.inProgress
	if seg == nil {
		return 0, nil
	}
	n := copy(scratch, seg.Bytes()[q.bytesWritten:])
	written, err := c.Write(scratch[:n])
	q.bytesWritten += written
	if q.bytesWritten >= seg.Length {
		q.bytesWritten = 0
		seg.Release()
		q.inProgress = nil
		if q.pending.Length() > 0 {
			q.inProgress = q.pending.Remove().(*pool.Segment)
		}
	}
	return written, err
}

// Discard releases every held segment without writing it.
func (q *OutboundQueue) Discard() {
	if q.inProgress != nil {
		q.inProgress.Release()
		q.inProgress = nil
	}
	for q.pending.Length() > 0 {
		q.pending.Remove().(*pool.Segment).Release()
	}
	q.bytesWritten = 0
}
