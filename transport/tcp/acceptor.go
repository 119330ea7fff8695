// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - accept loop feeding the reactor handoff queue.

package tcp

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/transport"
)

// SubmitFunc receives every accepted channel. A returned error closes it.
type SubmitFunc func(ch transport.Channel) error

// AcceptorConfig holds configuration for the TCP acceptor.
type AcceptorConfig struct {
	Addr string // TCP address to bind (e.g., ":9999")
	// CPU pins the accept thread when >= 0.
	CPU int
	// Backoff is the pause after a temporary accept error.
	Backoff time.Duration
}

// Acceptor owns the listening socket.
type Acceptor struct {
	cfg    AcceptorConfig
	ln     net.Listener
	submit SubmitFunc
	wrap   func(net.Conn) (transport.Channel, error)
	log    *zap.Logger
}

// Listen binds cfg.Addr. Accepting starts with Serve.
func Listen(cfg AcceptorConfig, submit SubmitFunc, log *zap.Logger) (*Acceptor, error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeIO, "tcp listen", err).WithContext("addr", cfg.Addr)
	}
	return NewAcceptor(cfg, ln, submit, log), nil
}

// NewAcceptor wraps an existing listener.
func NewAcceptor(cfg AcceptorConfig, ln net.Listener, submit SubmitFunc, log *zap.Logger) *Acceptor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Millisecond
	}
	return &Acceptor{
		cfg:    cfg,
		ln:     ln,
		submit: submit,
		wrap:   transport.NewFDChannel,
		log:    log,
	}
}

// Addr returns the bound address.
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Serve accepts until ctx is done or the listener is closed. It closes the
// listener on return and reports nil for an orderly shutdown.
func (a *Acceptor) Serve(ctx context.Context) error {
	if a.cfg.CPU >= 0 {
		if err := PinThread(a.cfg.CPU); err != nil {
			a.log.Warn("accept thread affinity", zap.Int("cpu", a.cfg.CPU), zap.Error(err))
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = a.ln.Close() })
	defer stop()
	defer a.ln.Close()

	a.log.Info("accepting", zap.String("addr", a.ln.Addr().String()))
	for {
		nc, err := a.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(a.cfg.Backoff)
				continue
			}
			a.log.Warn("accept error", zap.Error(err))
			time.Sleep(a.cfg.Backoff)
			continue
		}
		a.handoff(nc)
	}
}

func (a *Acceptor) handoff(nc net.Conn) {
	remote := nc.RemoteAddr().String()
	ch, err := a.wrap(nc)
	if err != nil {
		a.log.Warn("detach socket", zap.String("remote", remote), zap.Error(err))
		_ = nc.Close()
		return
	}
	if err := a.submit(ch); err != nil {
		a.log.Warn("handoff rejected", zap.String("remote", remote), zap.Error(err))
		_ = ch.Close()
		return
	}
	a.log.Debug("accepted", zap.String("remote", remote), zap.Int("fd", ch.Fd()))
}

// Close stops accepting.
func (a *Acceptor) Close() error { return a.ln.Close() }
