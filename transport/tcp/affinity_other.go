//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - CPU affinity stub.

package tcp

import "github.com/momentics/hioload-nio/api"

// PinThread is not supported on this platform.
func PinThread(cpu int) error { return api.ErrNotSupported }
