// Package httpframe frames HTTP/1.x requests for the reactor.
//
// It detects request boundaries (request line, headers, Content-Length body)
// directly in pooled segments, so pipelined requests arriving in one read are
// split into separate messages and fragmented requests are reassembled.
// HTTP semantics beyond framing are left to the handler.
package httpframe
