package transport_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-nio/fake"
	"github.com/momentics/hioload-nio/transport"
)

func TestConnectionReadAccumulates(t *testing.T) {
	ch := fake.NewChannel(7)
	ch.FeedString("hel")
	ch.FeedString("lo")
	c := transport.NewConnection(16384, ch)

	buf := make([]byte, 64)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "hello" {
		t.Fatalf("read %q, want hello", got)
	}
	if c.EndOfStream() {
		t.Fatal("end of stream without EOF")
	}

	n, err = c.Read(buf)
	if n != 0 || err != nil {
		t.Fatalf("idle read = %d, %v", n, err)
	}
}

func TestConnectionReadEOFNotCounted(t *testing.T) {
	ch := fake.NewChannel(7)
	ch.FeedString("abc")
	ch.CloseRemote()
	c := transport.NewConnection(1, ch)

	buf := make([]byte, 64)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 3 {
		t.Fatalf("read %d bytes, want 3", n)
	}
	if !c.EndOfStream() {
		t.Fatal("EOF not recorded")
	}
}

func TestConnectionReadStopsWhenBufferFull(t *testing.T) {
	ch := fake.NewChannel(7)
	ch.FeedString("0123456789")
	c := transport.NewConnection(1, ch)

	buf := make([]byte, 4)
	n, _ := c.Read(buf)
	if n != 4 || string(buf) != "0123" {
		t.Fatalf("read %d %q", n, buf[:n])
	}
	if !ch.Pending() {
		t.Fatal("remaining bytes lost")
	}
}

func TestConnectionReadFatalError(t *testing.T) {
	boom := errors.New("reset")
	ch := fake.NewChannel(7)
	ch.FailRead(boom)
	c := transport.NewConnection(1, ch)

	n, err := c.Read(make([]byte, 8))
	if n != 0 || !errors.Is(err, boom) {
		t.Fatalf("read = %d, %v", n, err)
	}
}

func TestConnectionWriteStopsOnFullSendBuffer(t *testing.T) {
	ch := fake.NewChannel(7)
	ch.SetWriteBudget(3)
	c := transport.NewConnection(1, ch)

	n, err := c.Write([]byte("abcdef"))
	if err != nil || n != 3 {
		t.Fatalf("write = %d, %v", n, err)
	}
	if string(ch.Written()) != "abc" {
		t.Fatalf("written %q", ch.Written())
	}
}

func TestConnectionCloseOnce(t *testing.T) {
	ch := fake.NewChannel(7)
	c := transport.NewConnection(1, ch)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !ch.Closed() || !c.Closed() {
		t.Fatal("channel not closed")
	}
}
