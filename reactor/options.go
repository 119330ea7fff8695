// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Functional options for Reactor construction.

package reactor

import (
	"github.com/bytedance/gopkg/util/gopool"
	"go.uber.org/zap"

	"github.com/momentics/hioload-nio/control"
)

// Option customizes a Reactor.
type Option func(*Reactor)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reactor) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPoller injects a readiness poller instead of the platform one.
// The reactor takes ownership and closes it.
func WithPoller(p Poller) Option {
	return func(r *Reactor) {
		r.poller = p
	}
}

// WithWorkerPool runs handlers on wp instead of the reactor goroutine.
// Both pools are then created with locking and responses come back through
// the response queue.
func WithWorkerPool(wp gopool.Pool) Option {
	return func(r *Reactor) {
		r.workers = wp
	}
}

// WithMetrics publishes reactor snapshots into mr every MetricsInterval.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(r *Reactor) {
		r.metrics = mr
	}
}
