// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor implements the single-goroutine event loop that multiplexes
// non-blocking connections over a readiness Poller (epoll on Linux).
//
// Each tick runs Accept, Poll, Read, response collection and Write in that
// order. Inbound bytes are framed into segments from a tiered read pool and
// passed to a MessageHandler; responses are built in segments from the write
// pool and drained back through per-connection outbound queues. Handlers may
// run inline or on a gopool worker pool (WithWorkerPool).
package reactor
