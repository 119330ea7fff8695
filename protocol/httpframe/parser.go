// File: protocol/httpframe/parser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental HTTP/1.x request boundary detection over raw bytes.

package httpframe

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"

	"github.com/momentics/hioload-nio/api"
)

var (
	crlf             = []byte("\r\n")
	hdrContentLength = []byte("content-length")
	hdrTransferEnc   = []byte("transfer-encoding")
)

// Headers records the layout of a parsed request. Offsets are relative to the
// buffer handed to ParseRequest; the framer rebases them onto each finished
// segment and stores the result in Segment.Metadata.
type Headers struct {
	// RequestStart is the offset of the request line, past any empty lines.
	RequestStart int
	// HeaderEnd is the offset just past the blank line ending the headers.
	HeaderEnd     int
	ContentLength int
	BodyStart     int
	BodyEnd       int
}

// ParseRequest locates the end of the first complete request in src. Empty
// lines before the request line are skipped (RFC 9112 section 2.2). It returns the offset one past the request body, or -1 when src holds only
// a prefix of a request. Malformed framing headers yield api.ErrMalformedMessage;
// chunked transfer coding yields api.ErrNotSupported.
func ParseRequest(src []byte, h *Headers) (int, error) {
	*h = Headers{}
	start := 0
	for bytes.HasPrefix(src[start:], crlf) {
		start += 2
	}
	lineEnd := bytes.Index(src[start:], crlf)
	if lineEnd < 0 {
		return -1, nil
	}
	h.RequestStart = start
	pos := start + lineEnd + 2
	contentLength := 0
	for {
		rel := bytes.Index(src[pos:], crlf)
		if rel < 0 {
			return -1, nil
		}
		line := src[pos : pos+rel]
		pos += rel + 2
		if len(line) == 0 {
			break
		}
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return 0, fmt.Errorf("httpframe: header without name: %w", api.ErrMalformedMessage)
		}
		name := bytes.TrimSpace(line[:colon])
		value := bytes.TrimSpace(line[colon+1:])
		switch {
		case equalFold(name, hdrContentLength):
			n, err := strconv.Atoi(string(value))
			if err != nil || n < 0 {
				return 0, fmt.Errorf("httpframe: content-length %q: %w", value, api.ErrMalformedMessage)
			}
			contentLength = n
		case equalFold(name, hdrTransferEnc):
			if !bytes.EqualFold(value, []byte("identity")) {
				return 0, fmt.Errorf("httpframe: transfer-encoding %q: %w", value, api.ErrNotSupported)
			}
		}
	}
	h.HeaderEnd = pos
	h.ContentLength = contentLength
	h.BodyStart = pos
	h.BodyEnd = pos + contentLength
	if h.BodyEnd > len(src) {
		return -1, nil
	}
	return h.BodyEnd, nil
}

// rebase shifts every offset of h down by n.
func (h Headers) rebase(n int) Headers {
	return Headers{
		RequestStart:  h.RequestStart - n,
		HeaderEnd:     h.HeaderEnd - n,
		ContentLength: h.ContentLength,
		BodyStart:     h.BodyStart - n,
		BodyEnd:       h.BodyEnd - n,
	}
}

func equalFold(a, lower []byte) bool {
	return len(a) == len(lower) && bytes.EqualFold(a, lower)
}

// RequestLine splits the first line of a complete request.
func RequestLine(msg []byte) (method, target, proto string, err error) {
	end := bytes.Index(msg, crlf)
	if end < 0 {
		return "", "", "", fmt.Errorf("httpframe: no request line: %w", api.ErrMalformedMessage)
	}
	parts := bytes.Fields(msg[:end])
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("httpframe: request line %q: %w", msg[:end], api.ErrMalformedMessage)
	}
	return string(parts[0]), string(parts[1]), string(parts[2]), nil
}

// QueryParam returns the first value of name in the query of target.
func QueryParam(target, name string) string {
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}
