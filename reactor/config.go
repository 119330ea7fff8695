// File: reactor/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor configuration and defaults.

package reactor

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/pool"
)

// FirstConnectionID is the id given to the first accepted connection.
// Lower ids are reserved for application use.
const FirstConnectionID uint64 = 16 * 1024

// Config tunes a Reactor. Zero fields fall back to DefaultConfig values.
type Config struct {
	// ReadPool holds inbound message segments.
	ReadPool []pool.SizeClass
	// WritePool holds response segments built by handlers.
	WritePool []pool.SizeClass
	// ReadScratchSize bounds the bytes read from one connection per tick.
	ReadScratchSize int
	// WriteScratchSize bounds the bytes written to one connection per tick.
	WriteScratchSize int
	// PollTimeout bounds how long one tick may wait for readiness. Zero selects
	// the default; NoWait polls without blocking. Other negative values are
	// rejected.
	PollTimeout time.Duration
	// MaxEvents is the readiness batch size per poll.
	MaxEvents int
	// HandoffCapacity sizes the accepted-connection queue.
	HandoffCapacity int
	// ResponseCapacity sizes the worker-to-reactor response queue.
	ResponseCapacity int
	// MaxPendingMessage closes connections whose framer holds more unframed
	// bytes than this. Zero means bounded only by the largest size class.
	MaxPendingMessage int
	// MetricsInterval is the minimum time between metric publications.
	MetricsInterval time.Duration
}

// NoWait as Config.PollTimeout makes every tick poll without blocking.
const NoWait time.Duration = -1

// DefaultConfig returns the stock configuration: 1 MiB scratch buffers and
// the default three-tier pools for both directions.
func DefaultConfig() Config {
	return Config{
		ReadPool:         pool.DefaultSizeClasses(),
		WritePool:        pool.DefaultSizeClasses(),
		ReadScratchSize:  pool.MiB,
		WriteScratchSize: pool.MiB,
		PollTimeout:      50 * time.Millisecond,
		MaxEvents:        256,
		HandoffCapacity:  1024,
		ResponseCapacity: 4096,
		MetricsInterval:  time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.ReadPool) == 0 {
		c.ReadPool = d.ReadPool
	}
	if len(c.WritePool) == 0 {
		c.WritePool = d.WritePool
	}
	if c.ReadScratchSize == 0 {
		c.ReadScratchSize = d.ReadScratchSize
	}
	if c.WriteScratchSize == 0 {
		c.WriteScratchSize = d.WriteScratchSize
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.MaxEvents == 0 {
		c.MaxEvents = d.MaxEvents
	}
	if c.HandoffCapacity == 0 {
		c.HandoffCapacity = d.HandoffCapacity
	}
	if c.ResponseCapacity == 0 {
		c.ResponseCapacity = d.ResponseCapacity
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.ReadScratchSize < 0, c.WriteScratchSize < 0:
		return fmt.Errorf("scratch size: %w", api.ErrInvalidArgument)
	case c.MaxEvents < 0, c.HandoffCapacity < 0, c.ResponseCapacity < 0:
		return fmt.Errorf("queue sizing: %w", api.ErrInvalidArgument)
	case c.PollTimeout < 0 && c.PollTimeout != NoWait:
		return fmt.Errorf("poll timeout %v: %w", c.PollTimeout, api.ErrInvalidArgument)
	case c.MaxPendingMessage < 0:
		return fmt.Errorf("max pending message: %w", api.ErrInvalidArgument)
	}
	return nil
}
