// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-nio/control"
	"github.com/momentics/hioload-nio/reactor"
	"github.com/momentics/hioload-nio/transport"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the logger shared by the acceptor and the reactor.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFramer overrides the default HTTP request framer.
func WithFramer(f transport.FramerFactory) ServerOption {
	return func(s *Server) {
		s.framers = f
	}
}

// WithMetrics publishes reactor and pool metrics into mr.
func WithMetrics(mr *control.MetricsRegistry) ServerOption {
	return func(s *Server) {
		s.metrics = mr
	}
}

// WithDebugProbes registers the server probes into dp instead of a private registry.
func WithDebugProbes(dp *control.DebugProbes) ServerOption {
	return func(s *Server) {
		s.probes = dp
	}
}

// WithWorkers sets the number of handler worker goroutines.
func WithWorkers(n int) ServerOption {
	return func(s *Server) {
		s.cfg.Workers = n
	}
}

// WithReactorOptions passes extra options to the reactor.
func WithReactorOptions(opts ...reactor.Option) ServerOption {
	return func(s *Server) {
		s.reactorOps = append(s.reactorOps, opts...)
	}
}
