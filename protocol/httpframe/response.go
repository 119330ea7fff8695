// File: protocol/httpframe/response.go
// Author: momentics <momentics@gmail.com>
//
// Minimal HTTP/1.1 response serialisation into a pooled segment.

package httpframe

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/pool"
)

// AppendResponse writes a complete response with a Content-Length body to seg.
func AppendResponse(seg *pool.Segment, status int, contentType, body string) error {
	parts := [...]string{
		"HTTP/1.1 ", strconv.Itoa(status), " ", http.StatusText(status), "\r\n",
		"Content-Length: ", strconv.Itoa(len(body)), "\r\n",
		"Content-Type: ", contentType, "\r\n",
		"\r\n",
		body,
	}
	for _, p := range parts {
		if seg.AppendString(p) < 0 {
			return fmt.Errorf("httpframe: response of status %d: %w", status, api.ErrPoolExhausted)
		}
	}
	return nil
}
