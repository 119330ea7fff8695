//go:build linux
// +build linux

// File: server/server_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loopback lifecycle tests for the Server facade.

package server_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/control"
	"github.com/momentics/hioload-nio/pool"
	"github.com/momentics/hioload-nio/protocol/httpframe"
	"github.com/momentics/hioload-nio/reactor"
	"github.com/momentics/hioload-nio/server"
)

func hello(seg *pool.Segment, r reactor.Responder) {
	_, target, _, err := httpframe.RequestLine(seg.Bytes())
	if err != nil {
		return
	}
	out := r.NewOutboundSegment()
	if out == nil {
		return
	}
	out.SocketID = seg.SocketID
	if err := httpframe.AppendResponse(out, http.StatusOK, "text/plain", "hello "+httpframe.QueryParam(target, "name")); err != nil {
		out.Release()
		return
	}
	r.Enqueue(out)
}

func testConfig() *server.Config {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	classes := []pool.SizeClass{{Capacity: 4 * pool.KiB, Blocks: 64}, {Capacity: 64 * pool.KiB, Blocks: 4}}
	cfg.Reactor.ReadPool = classes
	cfg.Reactor.WritePool = classes
	cfg.Reactor.ReadScratchSize = 64 * pool.KiB
	cfg.Reactor.WriteScratchSize = 64 * pool.KiB
	cfg.Reactor.PollTimeout = 5 * time.Millisecond
	cfg.ShutdownTimeout = 5 * time.Second
	return cfg
}

func start(t *testing.T, cfg *server.Config, opts ...server.ServerOption) (*server.Server, <-chan error) {
	t.Helper()
	opts = append([]server.ServerOption{server.WithLogger(zaptest.NewLogger(t))}, opts...)
	s, err := server.NewServer(cfg, reactor.HandlerFunc(hello), opts...)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(context.Background()) }()
	return s, errc
}

func roundTrip(t *testing.T, addr string, names ...string) []string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	var raw []byte
	for _, n := range names {
		raw = append(raw, "GET /?name="+n+" HTTP/1.1\r\nHost: test\r\n\r\n"...)
	}
	if _, err := conn.Write(raw); err != nil {
		t.Fatal(err)
	}
	br := bufio.NewReader(conn)
	var bodies []string
	for range names {
		resp, err := http.ReadResponse(br, nil)
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		bodies = append(bodies, string(b))
	}
	return bodies
}

func TestServerLoopbackLifecycle(t *testing.T) {
	mr := control.NewMetricsRegistry()
	cfg := testConfig()
	cfg.Reactor.MetricsInterval = time.Millisecond
	s, errc := start(t, cfg, server.WithMetrics(mr))

	got := roundTrip(t, s.Addr(), "gopher", "nio")
	if len(got) != 2 || got[0] != "hello gopher" || got[1] != "hello nio" {
		t.Fatalf("bodies = %q", got)
	}

	names := s.Probes().Names()
	if len(names) != 3 {
		t.Fatalf("probes = %v", names)
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Serve() error: %v", err)
	}
	if err := s.Serve(context.Background()); !errors.Is(err, server.ErrAlreadyRunning) {
		t.Fatalf("second Serve() err = %v", err)
	}

	st := s.Reactor().Stats()
	if st.Accepted != 1 || st.Messages != 2 {
		t.Fatalf("reactor stats:\n%s", spew.Sdump(st))
	}
	for _, ps := range []pool.Stats{st.ReadPool, st.WritePool} {
		for _, c := range ps.Classes {
			if c.InUse != 0 {
				t.Fatalf("pool not drained after shutdown:\n%s", spew.Sdump(ps))
			}
		}
	}
	if _, ok := mr.Get("reactor.messages"); !ok {
		t.Fatalf("metrics not published: %v", mr.Keys())
	}
}

func TestServerWithWorkers(t *testing.T) {
	cfg := testConfig()
	s, errc := start(t, cfg, server.WithWorkers(4))

	for i := 0; i < 3; i++ {
		got := roundTrip(t, s.Addr(), "a", "b", "c")
		if len(got) != 3 || got[0] != "hello a" || got[2] != "hello c" {
			t.Fatalf("bodies = %q", got)
		}
	}
	if err := s.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestServerContextCancel(t *testing.T) {
	s, err := server.NewServer(testConfig(), reactor.HandlerFunc(hello))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx) }()
	if got := roundTrip(t, s.Addr(), "ctx"); got[0] != "hello ctx" {
		t.Fatalf("bodies = %q", got)
	}
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestShutdownBeforeServe(t *testing.T) {
	s, err := server.NewServer(testConfig(), reactor.HandlerFunc(hello))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := s.Serve(context.Background()); !errors.Is(err, server.ErrAlreadyRunning) {
		t.Fatalf("Serve after Shutdown err = %v", err)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mr := control.NewMetricsRegistry()
	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe(ctx, "127.0.0.1:0", reactor.HandlerFunc(hello),
			server.WithReactorOptions(reactor.WithMetrics(mr)))
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
	if _, ok := mr.Get("reactor.id"); !ok {
		t.Fatal("reactor options not applied")
	}
}

func TestListenFailureIsStructured(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "256.0.0.1:1"
	_, err := server.NewServer(cfg, reactor.HandlerFunc(hello))
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Code != api.ErrCodeIO {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Context["addr"] != cfg.ListenAddr {
		t.Fatalf("context = %v", apiErr.Context)
	}
}
