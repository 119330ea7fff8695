// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-goroutine reactor: accepts handed-off channels, polls readiness,
// frames inbound bytes into pooled segments, dispatches them to the handler
// and drains outbound queues.

package reactor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/bytedance/gopkg/util/gopool"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/control"
	"github.com/momentics/hioload-nio/internal/concurrency"
	"github.com/momentics/hioload-nio/pool"
	"github.com/momentics/hioload-nio/transport"
)

// conn carries reactor-private state next to a transport.Connection.
type conn struct {
	*transport.Connection
	writeInterest bool
	queued        bool
	dead          bool
}

// Reactor owns every accepted connection. Run, Step and the Responder
// methods reached from inline handlers execute on one goroutine; Submit,
// Snapshot and Close are safe from any goroutine.
type Reactor struct {
	id      string
	cfg     Config
	log     *zap.Logger
	poller  Poller
	metrics *control.MetricsRegistry
	workers gopool.Pool
	ctx     context.Context

	framers transport.FramerFactory
	handler MessageHandler

	readPool  *pool.BufferPool
	writePool *pool.BufferPool

	handoff   *concurrency.LockFreeQueue[transport.Channel]
	responses *concurrency.LockFreeQueue[*pool.Segment]
	remote    *offloadResponder

	conns  map[uint64]*conn
	byFd   map[int]*conn
	active []*conn
	nextID uint64
	events []Event

	readScratch  []byte
	writeScratch []byte

	tick        uint64
	lastMetrics time.Time
	counters    counters
	snapshot    atomic.Pointer[Stats]
	closed      atomic.Bool
	// enqueuing counts workers inside offloadResponder.Enqueue.
	enqueuing atomic.Int64
}

type counters struct {
	accepted     atomic.Uint64
	closed       atomic.Uint64
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	messages     atomic.Uint64
	responses    atomic.Uint64
	dropped      atomic.Uint64
	inflight     atomic.Int64
}

// New builds a reactor. framers creates one Framer per accepted connection.
func New(cfg Config, framers transport.FramerFactory, handler MessageHandler, opts ...Option) (*Reactor, error) {
	if framers == nil || handler == nil {
		return nil, fmt.Errorf("reactor: framer factory and handler are required: %w", api.ErrInvalidArgument)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("reactor: %w", err)
	}
	r := &Reactor{
		id:      uuid.NewString(),
		cfg:     cfg,
		log:     zap.NewNop(),
		ctx:     context.Background(),
		framers: framers,
		handler: handler,
		conns:   make(map[uint64]*conn),
		byFd:    make(map[int]*conn),
		nextID:  FirstConnectionID,
		events:  make([]Event, cfg.MaxEvents),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With(zap.String("reactor", r.id))

	var poolOpts []pool.Option
	if r.workers != nil {
		poolOpts = append(poolOpts, pool.WithLocking())
	}
	var err error
	if r.readPool, err = pool.NewBufferPool(cfg.ReadPool, poolOpts...); err != nil {
		return nil, fmt.Errorf("reactor: read pool: %w", err)
	}
	if r.writePool, err = pool.NewBufferPool(cfg.WritePool, poolOpts...); err != nil {
		return nil, fmt.Errorf("reactor: write pool: %w", err)
	}
	if r.poller == nil {
		if r.poller, err = NewPoller(); err != nil {
			return nil, fmt.Errorf("reactor: %w", err)
		}
	}

	r.handoff = concurrency.NewLockFreeQueue[transport.Channel](cfg.HandoffCapacity)
	if r.workers != nil {
		r.responses = concurrency.NewLockFreeQueue[*pool.Segment](cfg.ResponseCapacity)
		r.remote = &offloadResponder{r: r}
	}
	r.readScratch = mcache.Malloc(cfg.ReadScratchSize)
	r.writeScratch = mcache.Malloc(cfg.WriteScratchSize)
	r.publish(time.Now())
	return r, nil
}

// ID returns the reactor instance id used in logs and metrics.
func (r *Reactor) ID() string { return r.id }

// ReadPool returns the inbound segment pool.
func (r *Reactor) ReadPool() *pool.BufferPool { return r.readPool }

// WritePool returns the response segment pool.
func (r *Reactor) WritePool() *pool.BufferPool { return r.writePool }

// Handoff exposes the accepted-connection queue. Producers must call Wake on
// the poller (or use Submit) after enqueueing.
func (r *Reactor) Handoff() *concurrency.LockFreeQueue[transport.Channel] { return r.handoff }

// Submit hands an accepted channel to the reactor and wakes it.
func (r *Reactor) Submit(ch transport.Channel) error {
	if r.closed.Load() {
		return api.ErrConnectionClosed
	}
	if !r.handoff.Enqueue(ch) {
		return fmt.Errorf("reactor: handoff queue full: %w", api.ErrResourceExhausted)
	}
	return r.poller.Wake()
}

// Run drives ticks until ctx is done or the reactor is closed, then tears
// every connection down.
func (r *Reactor) Run(ctx context.Context) error {
	r.ctx = ctx
	stop := context.AfterFunc(ctx, func() { _ = r.poller.Wake() })
	defer stop()

	r.log.Info("reactor started")
	for ctx.Err() == nil && !r.closed.Load() {
		if err := r.Step(); err != nil {
			r.log.Error("reactor tick failed", zap.Error(err))
			return multierr.Append(err, r.Close())
		}
	}
	r.log.Info("reactor stopped", zap.Uint64("ticks", r.tick))
	return r.Close()
}

// Step runs one tick: accept, poll, read, collect responses, write.
func (r *Reactor) Step() error {
	if r.closed.Load() {
		return api.ErrConnectionClosed
	}
	r.tick++
	r.accept()
	n, err := r.poller.Wait(r.events, r.pollTimeout())
	if err != nil {
		return err
	}
	r.read(n)
	r.collect()
	r.write()

	if now := time.Now(); now.Sub(r.lastMetrics) >= r.cfg.MetricsInterval {
		r.publish(now)
	}
	return nil
}

// pollTimeout avoids sleeping while offloaded responses may be pending.
func (r *Reactor) pollTimeout() time.Duration {
	if r.responses != nil && r.responses.Len() > 0 {
		return 0
	}
	if r.handoff.Len() > 0 || r.cfg.PollTimeout == NoWait {
		return 0
	}
	return r.cfg.PollTimeout
}

func (r *Reactor) accept() {
	for {
		ch, ok := r.handoff.Dequeue()
		if !ok {
			return
		}
		if err := r.register(ch); err != nil {
			r.log.Warn("accept failed", zap.Int("fd", ch.Fd()), zap.Error(err))
			_ = ch.Close()
		}
	}
}

func (r *Reactor) register(ch transport.Channel) error {
	if err := ch.SetNonblock(); err != nil {
		return fmt.Errorf("set nonblock: %w", err)
	}
	fr := r.framers()
	if err := fr.Init(r.readPool); err != nil {
		return fmt.Errorf("framer init: %w", err)
	}
	c := &conn{Connection: transport.NewConnection(r.nextID, ch)}
	c.Framer = fr
	if err := r.poller.Add(ch.Fd(), InterestRead); err != nil {
		if rel, ok := fr.(transport.Releaser); ok {
			rel.Release()
		}
		return api.WrapError(api.ErrCodeIO, "register connection", err).WithContext("conn", c.ID())
	}
	r.nextID++
	r.conns[c.ID()] = c
	r.byFd[c.Fd()] = c
	r.counters.accepted.Add(1)
	r.log.Debug("connection accepted", zap.Uint64("conn", c.ID()), zap.Int("fd", c.Fd()))
	return nil
}

func (r *Reactor) read(n int) {
	for i := 0; i < n; i++ {
		ev := r.events[i]
		if !ev.Readable && !ev.Hangup {
			continue
		}
		c, ok := r.byFd[ev.Fd]
		if !ok || c.dead {
			continue
		}
		r.readConn(c)
	}
}

func (r *Reactor) readConn(c *conn) {
	n, err := c.Read(r.readScratch)
	if n > 0 {
		r.counters.bytesRead.Add(uint64(n))
		if ferr := c.Framer.Consume(c.Connection, r.readScratch[:n]); ferr != nil {
			r.closeConn(c, ferr)
			return
		}
		r.dispatch(c)
		if c.dead {
			return
		}
		if limit := r.cfg.MaxPendingMessage; limit > 0 {
			if pr, ok := c.Framer.(transport.PendingReporter); ok && pr.Pending() > limit {
				r.closeConn(c, api.ErrMessageTooLarge)
				return
			}
		}
	}
	if err != nil {
		r.closeConn(c, err)
		return
	}
	if c.EndOfStream() {
		r.closeConn(c, nil)
	}
}

func (r *Reactor) dispatch(c *conn) {
	for _, seg := range c.Framer.TakeCompleted() {
		r.counters.messages.Add(1)
		if r.workers == nil {
			r.handle(seg, r)
			continue
		}
		r.counters.inflight.Add(1)
		r.workers.CtxGo(r.ctx, func() {
			defer r.counters.inflight.Add(-1)
			r.handle(seg, r.remote)
		})
	}
}

func (r *Reactor) handle(seg *pool.Segment, rs Responder) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("handler panic", zap.Uint64("conn", seg.SocketID), zap.Any("panic", v))
		}
		seg.Release()
	}()
	r.handler.Handle(seg, rs)
}

func (r *Reactor) collect() {
	if r.responses == nil {
		return
	}
	for {
		seg, ok := r.responses.Dequeue()
		if !ok {
			return
		}
		r.route(seg)
	}
}

func (r *Reactor) route(seg *pool.Segment) {
	if seg == nil {
		return
	}
	c, ok := r.conns[seg.SocketID]
	if !ok || c.dead {
		r.counters.dropped.Add(1)
		seg.Release()
		return
	}
	r.counters.responses.Add(1)
	c.Outbound.Enqueue(seg)
	if !c.queued {
		c.queued = true
		r.active = append(r.active, c)
	}
}

func (r *Reactor) write() {
	kept := r.active[:0]
	for _, c := range r.active {
		if c.dead {
			continue
		}
		n, err := c.Outbound.Drain(c.Connection, r.writeScratch)
		r.counters.bytesWritten.Add(uint64(n))
		if err != nil {
			r.closeConn(c, err)
			continue
		}
		if c.Outbound.IsEmpty() {
			c.queued = false
			if c.writeInterest {
				r.setInterest(c, InterestRead)
			}
			continue
		}
		if !c.writeInterest {
			r.setInterest(c, InterestRead|InterestWrite)
		}
		if !c.dead {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(r.active); i++ {
		r.active[i] = nil
	}
	r.active = kept
}

func (r *Reactor) setInterest(c *conn, in Interest) {
	if err := r.poller.Modify(c.Fd(), in); err != nil {
		r.closeConn(c, err)
		return
	}
	c.writeInterest = in&InterestWrite != 0
}

// closeConn deregisters c, closes its channel and returns every pooled
// segment it holds without flushing.
func (r *Reactor) closeConn(c *conn, cause error) {
	if c.dead {
		return
	}
	c.dead = true
	c.queued = false
	delete(r.conns, c.ID())
	delete(r.byFd, c.Fd())

	err := multierr.Combine(r.poller.Remove(c.Fd()), c.Close())
	if rel, ok := c.Framer.(transport.Releaser); ok {
		rel.Release()
	}
	c.Outbound.Discard()
	r.counters.closed.Add(1)

	switch {
	case cause == nil:
		r.log.Debug("connection closed", zap.Uint64("conn", c.ID()))
	case errors.Is(cause, api.ErrPoolExhausted), errors.Is(cause, api.ErrMessageTooLarge),
		errors.Is(cause, api.ErrMalformedMessage):
		r.log.Warn("connection dropped", zap.Uint64("conn", c.ID()), zap.Error(cause))
	default:
		r.log.Warn("connection failed", zap.Uint64("conn", c.ID()), zap.Error(cause))
	}
	if err != nil {
		r.log.Debug("connection teardown", zap.Uint64("conn", c.ID()), zap.Error(err))
	}
}

// NewOutboundSegment acquires a response segment from the write pool.
func (r *Reactor) NewOutboundSegment() *pool.Segment {
	return r.writePool.Acquire()
}

// Enqueue routes seg to its connection. Only valid on the reactor goroutine.
func (r *Reactor) Enqueue(seg *pool.Segment) {
	r.route(seg)
}

// offloadResponder is handed to handlers running on the worker pool.
type offloadResponder struct {
	r *Reactor
}

func (o *offloadResponder) NewOutboundSegment() *pool.Segment {
	return o.r.writePool.Acquire()
}

func (o *offloadResponder) Enqueue(seg *pool.Segment) {
	if seg == nil {
		return
	}
	o.r.enqueuing.Add(1)
	defer o.r.enqueuing.Add(-1)
	if o.r.closed.Load() {
		seg.Release()
		return
	}
	for !o.r.responses.Enqueue(seg) {
		if o.r.closed.Load() {
			seg.Release()
			return
		}
		runtime.Gosched()
	}
	_ = o.r.poller.Wake()
}

// Connections returns the number of live connections. Reactor goroutine only.
func (r *Reactor) Connections() int { return len(r.conns) }

// Stats is a point-in-time view of reactor counters and pool occupancy.
type Stats struct {
	ID           string
	Tick         uint64
	Connections  int
	Accepted     uint64
	Closed       uint64
	BytesRead    uint64
	BytesWritten uint64
	Messages     uint64
	Responses    uint64
	Dropped      uint64
	Inflight     int64
	ReadPool     pool.Stats
	WritePool    pool.Stats
}

// Stats computes current statistics. Reactor goroutine only, or after Close.
func (r *Reactor) Stats() Stats {
	return Stats{
		ID:           r.id,
		Tick:         r.tick,
		Connections:  len(r.conns),
		Accepted:     r.counters.accepted.Load(),
		Closed:       r.counters.closed.Load(),
		BytesRead:    r.counters.bytesRead.Load(),
		BytesWritten: r.counters.bytesWritten.Load(),
		Messages:     r.counters.messages.Load(),
		Responses:    r.counters.responses.Load(),
		Dropped:      r.counters.dropped.Load(),
		Inflight:     r.counters.inflight.Load(),
		ReadPool:     r.readPool.Stats(),
		WritePool:    r.writePool.Stats(),
	}
}

// Snapshot returns the statistics published at the last metrics interval.
// Safe from any goroutine.
func (r *Reactor) Snapshot() Stats {
	if s := r.snapshot.Load(); s != nil {
		return *s
	}
	return Stats{ID: r.id}
}

func (r *Reactor) publish(now time.Time) {
	s := r.Stats()
	r.snapshot.Store(&s)
	r.lastMetrics = now
	if r.metrics == nil {
		return
	}
	r.metrics.Publish("reactor", map[string]any{
		"id":            s.ID,
		"connections":   s.Connections,
		"accepted":      s.Accepted,
		"closed":        s.Closed,
		"bytes_read":    s.BytesRead,
		"bytes_written": s.BytesWritten,
		"messages":      s.Messages,
		"responses":     s.Responses,
		"dropped":       s.Dropped,
		"inflight":      s.Inflight,
	})
	r.metrics.Publish("pool.read", poolMetrics(s.ReadPool))
	r.metrics.Publish("pool.write", poolMetrics(s.WritePool))
}

func poolMetrics(ps pool.Stats) map[string]any {
	m := map[string]any{
		"acquired":  ps.Acquired,
		"grown":     ps.Grown,
		"released":  ps.Released,
		"exhausted": ps.Exhausted,
	}
	for i, c := range ps.Classes {
		m[fmt.Sprintf("class%d.in_use", i)] = c.InUse
		m[fmt.Sprintf("class%d.free", i)] = c.Free
	}
	return m
}

// Close tears down every connection and releases the poller and scratch
// buffers. Call it from the reactor goroutine, or after Run has returned;
// other goroutines should cancel Run's context instead. Idempotent.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, c := range r.conns {
		r.closeConn(c, nil)
	}
	r.active = nil
	// A worker that saw the reactor open may still be pushing a response.
	for r.enqueuing.Load() > 0 {
		runtime.Gosched()
	}
	// Responses still queued by workers belong to closed connections.
	r.collect()
	r.publish(time.Now())

	var err error
	for {
		ch, ok := r.handoff.Dequeue()
		if !ok {
			break
		}
		err = multierr.Append(err, ch.Close())
	}
	err = multierr.Append(err, r.poller.Close())
	mcache.Free(r.readScratch)
	mcache.Free(r.writeScratch)
	r.readScratch, r.writeScratch = nil, nil
	return err
}
