//go:build !linux
// +build !linux

// File: transport/channel_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without the epoll-based fd channel.

package transport

import (
	"net"

	"github.com/momentics/hioload-nio/api"
)

// NewFDChannel is not supported on this platform.
func NewFDChannel(conn net.Conn) (Channel, error) {
	return nil, api.ErrNotSupported
}

// WrapFD is not supported on this platform; it returns nil.
func WrapFD(fd int) Channel { return nil }
