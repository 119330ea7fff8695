// File: transport/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection wraps a non-blocking Channel with accumulate-until-blocked reads
// and drain-until-blocked writes. Owned by a single reactor goroutine.

package transport

import (
	"errors"
	"io"
)

// Connection is one accepted stream plus its per-connection protocol state.
type Connection struct {
	id          uint64
	ch          Channel
	endOfStream bool
	closed      bool

	// Framer reassembles inbound messages for this connection.
	Framer Framer
	// Outbound holds responses waiting to be written.
	Outbound *OutboundQueue
}

// NewConnection binds ch to id with an empty outbound queue.
func NewConnection(id uint64, ch Channel) *Connection {
	return &Connection{
		id:       id,
		ch:       ch,
		Outbound: NewOutboundQueue(),
	}
}

// ID returns the connection id assigned by the reactor.
func (c *Connection) ID() uint64 { return c.id }

// Fd returns the underlying descriptor.
func (c *Connection) Fd() int { return c.ch.Fd() }

// Channel returns the underlying channel.
func (c *Connection) Channel() Channel { return c.ch }

// EndOfStream reports whether a read observed the peer closing.
func (c *Connection) EndOfStream() bool { return c.endOfStream }

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool { return c.closed }

// Read fills buf with everything the socket has ready. It stops when a round
// returns no data, when the peer closes (EndOfStream becomes true; the sentinel
// is not counted) or when buf is full. The returned total is never negative.
func (c *Connection) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.ch.Read(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.endOfStream = true
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Write pushes buf until it is empty or a round writes nothing because the
// send buffer is full. It never spins on a full socket.
func (c *Connection) Write(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.ch.Write(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			return total, err
		}
		if n <= 0 {
			break
		}
	}
	return total, nil
}

// Close closes the channel once.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ch.Close()
}
