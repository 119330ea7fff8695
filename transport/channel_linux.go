//go:build linux
// +build linux

// File: transport/channel_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux Channel over a raw socket descriptor using golang.org/x/sys/unix.

package transport

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"

	"github.com/momentics/hioload-nio/api"
	"golang.org/x/sys/unix"
)

type fdChannel struct {
	fd     int
	file   *os.File // keeps a dup'ed descriptor alive; nil for WrapFD
	closed uint32
}

type filer interface {
	File() (*os.File, error)
}

// NewFDChannel detaches the descriptor from conn so the reactor can poll it
// directly. conn is closed; the returned channel owns a duplicate descriptor.
func NewFDChannel(conn net.Conn) (Channel, error) {
	f, ok := conn.(filer)
	if !ok {
		return nil, fmt.Errorf("fd channel from %T: %w", conn, api.ErrNotSupported)
	}
	file, err := f.File()
	if err != nil {
		return nil, fmt.Errorf("fd channel: %w", err)
	}
	_ = conn.Close()
	return &fdChannel{fd: int(file.Fd()), file: file}, nil
}

// WrapFD builds a Channel over an existing stream socket descriptor.
func WrapFD(fd int) Channel {
	return &fdChannel{fd: fd}
}

func (c *fdChannel) Fd() int { return c.fd }

func (c *fdChannel) SetNonblock() error {
	return unix.SetNonblock(c.fd, true)
}

func (c *fdChannel) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := unix.Read(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (c *fdChannel) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := unix.Write(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Close will be executed only once.
func (c *fdChannel) Close() error {
	if atomic.AddUint32(&c.closed, 1) != 1 {
		return nil
	}
	if c.file != nil {
		return c.file.Close()
	}
	return unix.Close(c.fd)
}
