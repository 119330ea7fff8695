// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives shared by the acceptor, the reactor and handler
// workers. The bounded lock-free queue is the only structure crossing
// goroutine boundaries in the data path.
package concurrency
