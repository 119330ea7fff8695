// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for hioload-nio.
// BufferPool owns one contiguous arena per size class and tracks free blocks by
// index in a FreeIndexQueue; Segment is the borrowed view over one block.
// Growing a segment moves it one class up, copying live bytes and freeing the old block.
// See free_index_queue.go, bufferpool.go and segment.go for implementation details.
package pool
