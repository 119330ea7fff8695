// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server lifecycle: construction, Serve over an errgroup, Shutdown.

package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-nio/control"
	"github.com/momentics/hioload-nio/protocol/httpframe"
	"github.com/momentics/hioload-nio/reactor"
	"github.com/momentics/hioload-nio/transport/tcp"
)

var (
	ErrAlreadyRunning  = errors.New("server already running")
	ErrShutdownTimeout = errors.New("server shutdown timed out")
)

// NewServer binds the listener and builds the reactor. Serve starts both.
func NewServer(cfg *Config, handler reactor.MessageHandler, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	s := &Server{
		cfg:     &c,
		log:     zap.NewNop(),
		framers: httpframe.Factory(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.probes == nil {
		s.probes = control.NewDebugProbes()
	}

	ropts := []reactor.Option{reactor.WithLogger(s.log)}
	if s.metrics != nil {
		ropts = append(ropts, reactor.WithMetrics(s.metrics))
	}
	if s.cfg.Workers > 0 {
		wp := gopool.NewPool("hioload-nio-handlers", int32(s.cfg.Workers), gopool.NewConfig())
		wp.SetPanicHandler(func(_ context.Context, v interface{}) {
			s.log.Error("worker panic", zap.Any("panic", v))
		})
		ropts = append(ropts, reactor.WithWorkerPool(wp))
	}
	ropts = append(ropts, s.reactorOps...)

	r, err := reactor.New(s.cfg.Reactor, s.framers, handler, ropts...)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.reactor = r

	acfg := tcp.AcceptorConfig{Addr: s.cfg.ListenAddr, CPU: s.cfg.AcceptCPU}
	a, err := tcp.Listen(acfg, r.Submit, s.log)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("server: %w", err), r.Close())
	}
	s.acceptor = a

	s.probes.RegisterProbe("reactor", func() any { return s.reactor.Snapshot() })
	s.probes.RegisterProbe("pool.read", func() any { return s.reactor.Snapshot().ReadPool })
	s.probes.RegisterProbe("pool.write", func() any { return s.reactor.Snapshot().WritePool })
	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.acceptor.Addr().String() }

// Reactor exposes the underlying reactor.
func (s *Server) Reactor() *reactor.Reactor { return s.reactor }

// Probes returns the debug probe registry.
func (s *Server) Probes() *control.DebugProbes { return s.probes }

// Serve runs the acceptor and the reactor until ctx is done, Shutdown is
// called or either of them fails. It may be called once.
func (s *Server) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-s.stop:
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		if s.cfg.ReactorCPU >= 0 {
			if err := tcp.PinThread(s.cfg.ReactorCPU); err != nil {
				s.log.Warn("reactor thread affinity", zap.Int("cpu", s.cfg.ReactorCPU), zap.Error(err))
			}
		}
		return s.reactor.Run(gctx)
	})
	g.Go(func() error {
		return s.acceptor.Serve(gctx)
	})
	s.log.Info("server started", zap.String("addr", s.Addr()), zap.String("reactor", s.reactor.ID()))
	err := g.Wait()
	s.log.Info("server stopped", zap.Error(err))
	return err
}

// Shutdown stops accepting, tears down every connection and waits for Serve
// to return. Calling it more than once is safe.
func (s *Server) Shutdown() error {
	var err error
	s.shutdown.Do(func() {
		close(s.stop)
		if s.running.CompareAndSwap(false, true) {
			close(s.done)
			err = multierr.Combine(s.acceptor.Close(), s.reactor.Close())
			return
		}
		select {
		case <-s.done:
		case <-time.After(s.cfg.ShutdownTimeout):
			err = ErrShutdownTimeout
		}
	})
	return err
}
