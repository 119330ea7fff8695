// File: transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking socket layer for hioload-nio: the Channel contract, the Linux fd
// channel, Connection with accumulate-until-blocked read and drain-until-blocked
// write, the per-connection OutboundQueue and the Framer seam used by the reactor.
package transport
