//go:build !linux
// +build !linux

// File: reactor/poller_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub poller for unsupported platforms.

package reactor

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-nio/api"
)

// NewPoller returns api.ErrNotSupported; use WithPoller to inject one.
func NewPoller() (Poller, error) {
	return nil, fmt.Errorf("reactor: poller on %s: %w", runtime.GOOS, api.ErrNotSupported)
}
