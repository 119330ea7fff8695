// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-nio/control"
	"github.com/momentics/hioload-nio/reactor"
	"github.com/momentics/hioload-nio/transport"
	"github.com/momentics/hioload-nio/transport/tcp"
)

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr      string         // TCP bind address, e.g. ":9999"
	Reactor         reactor.Config // pools, scratch buffers, polling
	Workers         int            // handler worker goroutines; 0 runs handlers on the reactor
	AcceptCPU       int            // pin the accept thread (-1 = no pinning)
	ReactorCPU      int            // pin the reactor thread (-1 = no pinning)
	ShutdownTimeout time.Duration  // bound on Shutdown waiting for Serve to return
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:      ":9999",
		Reactor:         reactor.DefaultConfig(),
		Workers:         0,
		AcceptCPU:       -1,
		ReactorCPU:      -1,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server is the façade wiring a TCP acceptor to a single reactor.
type Server struct {
	cfg        *Config
	log        *zap.Logger
	framers    transport.FramerFactory
	metrics    *control.MetricsRegistry
	probes     *control.DebugProbes
	reactorOps []reactor.Option

	reactor  *reactor.Reactor
	acceptor *tcp.Acceptor

	running  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	shutdown sync.Once
}
