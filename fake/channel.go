// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the transport and poller seams.

package fake

import (
	"bytes"
	"io"
	"sync"

	"github.com/momentics/hioload-nio/api"
)

// Unlimited disables the write budget of a Channel.
const Unlimited = -1

// Channel is a scripted non-blocking transport.Channel. Inbound bytes are
// queued with Feed and returned in arrival order; the write budget caps how
// many bytes the "socket" accepts before reporting a full send buffer.
type Channel struct {
	mu          sync.Mutex
	fd          int
	inbound     [][]byte
	remoteEOF   bool
	eofSeen     bool
	written     bytes.Buffer
	budget      int
	writeCalls  int
	readErr     error
	writeErr    error
	closed      bool
	nonblocking bool
	maxRead     int
}

// NewChannel returns an open channel with an unlimited write budget.
func NewChannel(fd int) *Channel {
	return &Channel{fd: fd, budget: Unlimited}
}

// Feed queues bytes that the next reads will return.
func (c *Channel) Feed(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inbound = append(c.inbound, append([]byte(nil), p...))
}

// FeedString queues s.
func (c *Channel) FeedString(s string) { c.Feed([]byte(s)) }

// CloseRemote makes reads report io.EOF once the queued bytes are consumed.
func (c *Channel) CloseRemote() {
	c.mu.Lock()
	c.remoteEOF = true
	c.mu.Unlock()
}

// SetMaxRead caps the bytes returned by one Read call; zero removes the cap.
func (c *Channel) SetMaxRead(n int) {
	c.mu.Lock()
	c.maxRead = n
	c.mu.Unlock()
}

// SetWriteBudget sets how many more bytes Write accepts. Unlimited disables it.
func (c *Channel) SetWriteBudget(n int) {
	c.mu.Lock()
	c.budget = n
	c.mu.Unlock()
}

// FailRead makes subsequent reads return err.
func (c *Channel) FailRead(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
}

// FailWrite makes subsequent writes return err.
func (c *Channel) FailWrite(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

// Written returns a copy of everything accepted by Write.
func (c *Channel) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.written.Bytes()...)
}

// WriteCalls returns the number of Write calls that accepted bytes.
func (c *Channel) WriteCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeCalls
}

// Closed reports whether Close was called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Nonblocking reports whether SetNonblock was called.
func (c *Channel) Nonblocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonblocking
}

// Pending reports whether a read would return data or EOF.
func (c *Channel) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inbound) > 0 || (c.remoteEOF && !c.eofSeen) || c.readErr != nil
}

// Writable reports whether a write would accept at least one byte.
func (c *Channel) Writable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget != 0
}

func (c *Channel) Fd() int { return c.fd }

func (c *Channel) SetNonblock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrConnectionClosed
	}
	c.nonblocking = true
	return nil
}

func (c *Channel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrConnectionClosed
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	if len(c.inbound) == 0 {
		if c.remoteEOF {
			c.eofSeen = true
			return 0, io.EOF
		}
		return 0, nil
	}
	limit := len(p)
	if c.maxRead > 0 && c.maxRead < limit {
		limit = c.maxRead
	}
	n := copy(p[:limit], c.inbound[0])
	if n == len(c.inbound[0]) {
		c.inbound[0] = nil
		c.inbound = c.inbound[1:]
	} else {
		c.inbound[0] = c.inbound[0][n:]
	}
	return n, nil
}

func (c *Channel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrConnectionClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	n := len(p)
	if c.budget != Unlimited {
		if n > c.budget {
			n = c.budget
		}
		c.budget -= n
	}
	if n > 0 {
		c.written.Write(p[:n])
		c.writeCalls++
	}
	return n, nil
}

// Close will be executed only once.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
