package httpframe

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-nio/api"
	"github.com/momentics/hioload-nio/pool"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		length  int
		wantErr error
	}{
		{name: "get", raw: "GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n", want: 45},
		{name: "post with body", raw: "POST /submit HTTP/1.1\r\nContent-Length: 12\r\n\r\nname=jungbum", want: 57, length: 12},
		{name: "lower case header", raw: "POST / HTTP/1.1\r\ncontent-length:3\r\n\r\nabc", want: 40, length: 3},
		{name: "pipelined returns first", raw: "GET /1 HTTP/1.1\r\n\r\nGET /2 HTTP/1.1\r\n\r\n", want: 19},
		{name: "incomplete headers", raw: "GET /index.html HTTP/1.1\r\nHost: local", want: -1},
		{name: "incomplete request line", raw: "GET /index.ht", want: -1},
		{name: "incomplete body", raw: "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc", want: -1, length: 10},
		{name: "bad length", raw: "POST / HTTP/1.1\r\nContent-Length: x\r\n\r\n", wantErr: api.ErrMalformedMessage},
		{name: "negative length", raw: "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n", wantErr: api.ErrMalformedMessage},
		{name: "leading empty lines", raw: "\r\n\r\nGET / HTTP/1.1\r\n\r\n", want: 22},
		{name: "only empty lines", raw: "\r\n\r\n", want: -1},
		{name: "header without colon", raw: "GET / HTTP/1.1\r\nbroken\r\n\r\n", wantErr: api.ErrMalformedMessage},
		{name: "chunked", raw: "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n", wantErr: api.ErrNotSupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var h Headers
			got, err := ParseRequest([]byte(tc.raw), &h)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("end = %d, want %d", got, tc.want)
			}
			if got > 0 && h.ContentLength != tc.length {
				t.Fatalf("content length = %d, want %d", h.ContentLength, tc.length)
			}
		})
	}
}

func TestParseRequestBodyBounds(t *testing.T) {
	raw := []byte("POST /submit HTTP/1.1\r\nContent-Length: 12\r\n\r\nname=jungbum")
	var h Headers
	if _, err := ParseRequest(raw, &h); err != nil {
		t.Fatal(err)
	}
	if body := string(raw[h.BodyStart:h.BodyEnd]); body != "name=jungbum" {
		t.Fatalf("body = %q", body)
	}
}

func TestParseRequestSkipsEmptyLines(t *testing.T) {
	raw := []byte("\r\nPOST / HTTP/1.1\r\nContent-Length: 2\r\n\r\nok")
	var h Headers
	end, err := ParseRequest(raw, &h)
	if err != nil {
		t.Fatal(err)
	}
	if end != len(raw) || h.RequestStart != 2 {
		t.Fatalf("end = %d, request start = %d", end, h.RequestStart)
	}
	if body := string(raw[h.BodyStart:h.BodyEnd]); body != "ok" {
		t.Fatalf("body = %q", body)
	}
}

func TestRequestLineAndQuery(t *testing.T) {
	m, target, proto, err := RequestLine([]byte("GET /hello?name=gopher&x=1 HTTP/1.1\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if m != "GET" || target != "/hello?name=gopher&x=1" || proto != "HTTP/1.1" {
		t.Fatalf("got %q %q %q", m, target, proto)
	}
	if v := QueryParam(target, "name"); v != "gopher" {
		t.Fatalf("name = %q", v)
	}
	if v := QueryParam("/plain", "name"); v != "" {
		t.Fatalf("missing param = %q", v)
	}
	if _, _, _, err := RequestLine([]byte("GET /\r\n")); !errors.Is(err, api.ErrMalformedMessage) {
		t.Fatalf("short request line err = %v", err)
	}
}

func TestAppendResponse(t *testing.T) {
	p, err := pool.NewBufferPool([]pool.SizeClass{{Capacity: 32, Blocks: 1}, {Capacity: 128, Blocks: 1}})
	if err != nil {
		t.Fatal(err)
	}
	seg := p.Acquire()
	if err := AppendResponse(seg, 200, "text/plain", "hi"); err != nil {
		t.Fatal(err)
	}
	want := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nContent-Type: text/plain\r\n\r\nhi"
	if got := string(seg.Bytes()); got != want {
		t.Fatalf("got %q", got)
	}
	seg.Release()

	seg = p.Acquire()
	if err := AppendResponse(seg, 200, "text/plain", string(make([]byte, 200))); !errors.Is(err, api.ErrPoolExhausted) {
		t.Fatalf("oversized response err = %v", err)
	}
}
