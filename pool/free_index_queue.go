// File: pool/free_index_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity circular queue of block indices used as the allocator free list.
// Not safe for concurrent use; the owning BufferPool serialises access.

package pool

// FreeIndexQueue is a circular int queue that tracks wraparound with a flip flag
// instead of a sequence counter. While flipped, writePos has wrapped past zero and
// readPos has not yet followed it onto the same lap.
type FreeIndexQueue struct {
	elements []int
	readPos  int
	writePos int
	flipped  bool
}

// NewFreeIndexQueue allocates an empty queue holding up to capacity indices.
func NewFreeIndexQueue(capacity int) *FreeIndexQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &FreeIndexQueue{elements: make([]int, capacity)}
}

// Reset empties the queue.
func (q *FreeIndexQueue) Reset() {
	q.readPos = 0
	q.writePos = 0
	q.flipped = false
}

// Capacity returns the fixed size of the backing array.
func (q *FreeIndexQueue) Capacity() int { return len(q.elements) }

// Available returns the number of queued indices.
func (q *FreeIndexQueue) Available() int {
	if !q.flipped {
		return q.writePos - q.readPos
	}
	return len(q.elements) - q.readPos + q.writePos
}

// RemainingCapacity returns how many more indices fit.
func (q *FreeIndexQueue) RemainingCapacity() int {
	if !q.flipped {
		return len(q.elements) - q.writePos + q.readPos
	}
	return q.readPos - q.writePos
}

// Put appends v; it returns false when the queue is full.
func (q *FreeIndexQueue) Put(v int) bool {
	if !q.flipped {
		if q.writePos == len(q.elements) {
			if q.readPos == 0 {
				return false
			}
			q.writePos = 0
			q.flipped = true
		}
		q.elements[q.writePos] = v
		q.writePos++
		return true
	}
	if q.writePos < q.readPos {
		q.elements[q.writePos] = v
		q.writePos++
		return true
	}
	return false
}

// PutN appends as many of values as fit and returns the count appended.
// The copy is split at the physical end of the array when the write cursor wraps.
func (q *FreeIndexQueue) PutN(values []int) int {
	capacity := len(q.elements)
	if !q.flipped {
		// Free sections: [writePos, capacity) then [0, readPos).
		if len(values) <= capacity-q.writePos {
			n := copy(q.elements[q.writePos:], values)
			q.writePos += n
			return n
		}
		n := copy(q.elements[q.writePos:capacity], values)
		if q.readPos == 0 {
			q.writePos = capacity
			return n
		}
		q.flipped = true
		m := copy(q.elements[:q.readPos], values[n:])
		q.writePos = m
		return n + m
	}
	// Free section: [writePos, readPos).
	n := copy(q.elements[q.writePos:q.readPos], values)
	q.writePos += n
	return n
}

// Take removes and returns the oldest index, or -1 when empty.
func (q *FreeIndexQueue) Take() int {
	if !q.flipped {
		if q.readPos < q.writePos {
			v := q.elements[q.readPos]
			q.readPos++
			return v
		}
		return -1
	}
	if q.readPos == len(q.elements) {
		q.readPos = 0
		q.flipped = false
		if q.readPos < q.writePos {
			v := q.elements[q.readPos]
			q.readPos++
			return v
		}
		return -1
	}
	v := q.elements[q.readPos]
	q.readPos++
	return v
}

// TakeN removes up to len(dest) of the oldest indices into dest in FIFO order
// and returns the count removed.
func (q *FreeIndexQueue) TakeN(dest []int) int {
	if !q.flipped {
		n := copy(dest, q.elements[q.readPos:q.writePos])
		q.readPos += n
		return n
	}
	capacity := len(q.elements)
	if len(dest) <= capacity-q.readPos {
		n := copy(dest, q.elements[q.readPos:capacity])
		q.readPos += n
		return n
	}
	n := copy(dest, q.elements[q.readPos:capacity])
	q.readPos = 0
	q.flipped = false
	m := copy(dest[n:], q.elements[:q.writePos])
	q.readPos = m
	return n + m
}
