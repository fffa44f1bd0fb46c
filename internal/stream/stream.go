// Package stream defines a transport-agnostic byte-stream abstraction
// implemented by both the TCP and RUDP backends, so the FTP engine can
// run its control and data channels over either one interchangeably.
package stream

import (
	"net"
	"time"
)

// Stream is the uniform capability set both backends expose: connect,
// listen/accept, send, receive, close, a read/write deadline, and the
// remote peer's address.
type Stream interface {
	// Send transmits data as one logical message.
	Send(data []byte) error
	// Receive blocks for the next logical message. The TCP backend
	// returns at most max bytes; the RUDP backend returns the whole
	// message regardless of max.
	Receive(max int) ([]byte, error)
	// Close releases the underlying socket.
	Close() error
	// SetTimeout bounds how long Receive may block waiting for data.
	SetTimeout(d time.Duration) error
	// RemoteAddr returns the address of the connected peer.
	RemoteAddr() net.Addr
}

// Listener accepts incoming Streams.
type Listener interface {
	Accept() (Stream, error)
	Close() error
	Addr() net.Addr
}

// Dialer opens an outbound Stream to an address.
type Dialer interface {
	Dial(network, address string) (Stream, error)
}
