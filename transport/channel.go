// File: transport/channel.go
// Author: momentics <momentics@gmail.com>
//
// Channel is the non-blocking byte stream a Connection drives.

package transport

// Channel abstracts a non-blocking stream socket.
//
// Read returns (0, nil) when no data is ready and io.EOF once the peer has
// closed. Write returns (0, nil) when the send buffer is full. Any other error
// is fatal for the connection.
type Channel interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	// Fd returns the descriptor registered with the poller.
	Fd() int
	// SetNonblock switches the descriptor to non-blocking mode.
	SetNonblock() error
	Close() error
}
