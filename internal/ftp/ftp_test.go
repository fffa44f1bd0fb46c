package ftp

import (
	"fmt"
	"net"
	"time"
)

// fakeStream is an in-memory stream.Stream used to drive Session
// handlers in tests without opening real sockets.
type fakeStream struct {
	in   chan []byte
	out  chan []byte
	addr string
}

func newFakeStream(addr string) *fakeStream {
	return &fakeStream{
		in:   make(chan []byte, 32),
		out:  make(chan []byte, 32),
		addr: addr,
	}
}

func (f *fakeStream) Send(data []byte) error {
	cp := append([]byte(nil), data...)
	f.out <- cp
	return nil
}

func (f *fakeStream) Receive(max int) ([]byte, error) {
	select {
	case b, ok := <-f.in:
		if !ok {
			return nil, fmt.Errorf("fakeStream: closed")
		}
		if len(b) > max {
			b = b[:max]
		}
		return b, nil
	case <-time.After(time.Second):
		return nil, &timeoutError{}
	}
}

func (f *fakeStream) Close() error {
	return nil
}

func (f *fakeStream) SetTimeout(d time.Duration) error { return nil }

func (f *fakeStream) RemoteAddr() net.Addr {
	return fakeAddr(f.addr)
}

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "fakeStream: timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// sendLine feeds a CRLF-terminated command line to the session as if
// a client had typed it.
func (f *fakeStream) sendLine(line string) {
	f.in <- []byte(line + "\r\n")
}

// nextReply reads the next reply queued by the session, failing the
// test (via the returned ok=false) if none arrives promptly.
func (f *fakeStream) nextReply() (string, bool) {
	select {
	case b := <-f.out:
		return string(b), true
	case <-time.After(time.Second):
		return "", false
	}
}
