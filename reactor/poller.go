// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness poller used by the reactor loop.

package reactor

import "time"

// Interest selects the readiness kinds a descriptor is registered for.
type Interest uint8

const (
	InterestRead Interest = 1 << iota
	InterestWrite
)

// Event is one readiness notification returned by Wait.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	// Hangup covers peer close and socket errors; the reactor treats it as
	// readable so the next read observes the condition.
	Hangup bool
}

// Poller multiplexes readiness over many descriptors. Add, Modify, Remove
// and Wait are called only by the reactor goroutine; Wake may be called from
// any goroutine.
type Poller interface {
	// Add registers fd with the given interest.
	Add(fd int, in Interest) error
	// Modify replaces the interest set of a registered fd.
	Modify(fd int, in Interest) error
	// Remove deregisters fd.
	Remove(fd int) error
	// Wait blocks up to timeout (negative blocks indefinitely, zero polls)
	// and fills events. Interrupted waits return (0, nil).
	Wait(events []Event, timeout time.Duration) (int, error)
	// Wake interrupts a concurrent or the next Wait.
	Wake() error
	// Close releases the poller.
	Close() error
}

func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := int(d / time.Millisecond)
	if ms == 0 && d > 0 {
		ms = 1
	}
	return ms
}
