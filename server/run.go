// File: server/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"

	"github.com/momentics/hioload-nio/reactor"
)

// ListenAndServe builds a server on addr with default configuration and
// serves until ctx is done.
func ListenAndServe(ctx context.Context, addr string, handler reactor.MessageHandler, opts ...ServerOption) error {
	cfg := DefaultConfig()
	cfg.ListenAddr = addr
	s, err := NewServer(cfg, handler, opts...)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}
