// Package rudp adapts internal/rudp's Conn and Listener to the
// stream.Stream and stream.Listener interfaces, so the FTP engine can
// select RUDP as a transport interchangeably with TCP.
package rudp

import (
	"net"
	"time"

	"github.com/rdnt/rudpftp/internal/rudp"
	"github.com/rdnt/rudpftp/internal/stream"
)

// Conn adapts *rudp.Conn to stream.Stream.
type Conn struct {
	c *rudp.Conn
}

// Dial opens an RUDP connection to addr using cfg's tunables.
func Dial(addr *net.UDPAddr, cfg rudp.Config) (*Conn, error) {
	c, err := rudp.Dial(addr, cfg)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

// Send transmits data as one logical RUDP message.
func (c *Conn) Send(data []byte) error {
	return c.c.Send(data)
}

// Receive blocks for the next logical RUDP message. RUDP always
// delivers whole messages; max is not applied, so the returned message
// may be longer than max.
func (c *Conn) Receive(max int) ([]byte, error) {
	return c.c.Receive(max)
}

// Close releases the underlying UDP socket.
func (c *Conn) Close() error {
	return c.c.Close()
}

// SetTimeout sets the idle timeout applied between datagrams.
func (c *Conn) SetTimeout(d time.Duration) error {
	return c.c.SetTimeout(d)
}

// RemoteAddr returns the peer's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.c.RemoteAddr()
}

// Listener adapts *rudp.Listener to stream.Listener.
type Listener struct {
	l *rudp.Listener
}

// Listen binds an RUDP listener at addr using cfg's tunables.
func Listen(addr *net.UDPAddr, cfg rudp.Config) (*Listener, error) {
	l, err := rudp.Listen(addr, cfg)
	if err != nil {
		return nil, err
	}
	return &Listener{l: l}, nil
}

// Accept blocks for the next incoming RUDP connection.
func (l *Listener) Accept() (stream.Stream, error) {
	c, err := l.l.Accept()
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

// Close stops the listener.
func (l *Listener) Close() error {
	return l.l.Close()
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}
