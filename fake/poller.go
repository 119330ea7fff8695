// File: fake/poller.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/reactor"
)

// Poller is an in-memory, level-triggered reactor.Poller. Attached channels
// are reported readable while they have pending input and writable while
// registered for write interest with budget left. Wait never blocks.
type Poller struct {
	mu       sync.Mutex
	interest map[int]reactor.Interest
	sources  map[int]*Channel
	injected map[int]reactor.Event
	wakes    int
	waits    int
	closed   bool
}

// NewPoller returns an empty poller.
func NewPoller() *Poller {
	return &Poller{
		interest: make(map[int]reactor.Interest),
		sources:  make(map[int]*Channel),
		injected: make(map[int]reactor.Event),
	}
}

// Attach links ch to its fd so readiness follows the channel state.
func (p *Poller) Attach(ch *Channel) {
	p.mu.Lock()
	p.sources[ch.Fd()] = ch
	p.mu.Unlock()
}

// Inject reports ev once on the next Wait.
func (p *Poller) Inject(ev reactor.Event) {
	p.mu.Lock()
	p.injected[ev.Fd] = ev
	p.mu.Unlock()
}

// Interest returns the registered interest of fd and whether fd is registered.
func (p *Poller) Interest(fd int) (reactor.Interest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.interest[fd]
	return in, ok
}

// Registered returns the number of registered descriptors.
func (p *Poller) Registered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.interest)
}

// Wakes returns how many times Wake was called.
func (p *Poller) Wakes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wakes
}

// Closed reports whether Close was called.
func (p *Poller) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Poller) Add(fd int, in reactor.Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.interest[fd]; ok {
		return fmt.Errorf("fake poller add %d: %w", fd, api.ErrInvalidArgument)
	}
	p.interest[fd] = in
	return nil
}

func (p *Poller) Modify(fd int, in reactor.Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.interest[fd]; !ok {
		return fmt.Errorf("fake poller modify %d: %w", fd, api.ErrNotFound)
	}
	p.interest[fd] = in
	return nil
}

func (p *Poller) Remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.interest[fd]; !ok {
		return fmt.Errorf("fake poller remove %d: %w", fd, api.ErrNotFound)
	}
	delete(p.interest, fd)
	delete(p.injected, fd)
	return nil
}

// Wait reports ready descriptors in ascending fd order.
func (p *Poller) Wait(events []reactor.Event, _ time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, api.ErrConnectionClosed
	}
	p.waits++
	fds := make([]int, 0, len(p.interest))
	for fd := range p.interest {
		fds = append(fds, fd)
	}
	sort.Ints(fds)

	n := 0
	for _, fd := range fds {
		if n == len(events) {
			break
		}
		in := p.interest[fd]
		ev, ok := p.injected[fd]
		if ok {
			delete(p.injected, fd)
		}
		ev.Fd = fd
		if ch := p.sources[fd]; ch != nil {
			if in&reactor.InterestRead != 0 && ch.Pending() {
				ev.Readable = true
			}
			if in&reactor.InterestWrite != 0 && ch.Writable() {
				ev.Writable = true
			}
		}
		if ev.Readable || ev.Writable || ev.Hangup {
			events[n] = ev
			n++
		}
	}
	return n, nil
}

func (p *Poller) Wake() error {
	p.mu.Lock()
	p.wakes++
	p.mu.Unlock()
	return nil
}

func (p *Poller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
