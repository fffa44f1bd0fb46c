// Package tcp implements the stream.Stream and stream.Listener
// interfaces over plain TCP, the simpler of the two transports the FTP
// engine can run its control and data channels on.
package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/rdnt/rudpftp/internal/stream"
)

// Backlog mirrors the reference implementation's listen() backlog of
// 5 pending connections. The stdlib net package does not expose a way
// to set the kernel accept backlog directly, so this constant is
// documentary only; see DESIGN.md.
const Backlog = 5

// Conn wraps a *net.TCPConn to satisfy stream.Stream.
type Conn struct {
	tcp *net.TCPConn
}

// Dial opens a TCP connection to addr.
func Dial(addr *net.TCPAddr) (*Conn, error) {
	c, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial: %w", err)
	}
	return &Conn{tcp: c}, nil
}

// Send writes data to the connection in full.
func (c *Conn) Send(data []byte) error {
	_, err := c.tcp.Write(data)
	return err
}

// Receive reads up to max bytes from the connection.
func (c *Conn) Receive(max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := c.tcp.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.tcp.Close()
}

// SetTimeout sets the read/write deadline d from now; d <= 0 clears it.
func (c *Conn) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return c.tcp.SetDeadline(time.Time{})
	}
	return c.tcp.SetDeadline(time.Now().Add(d))
}

// RemoteAddr returns the peer's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.tcp.RemoteAddr()
}

// Listener wraps a *net.TCPListener to satisfy stream.Listener.
type Listener struct {
	ln *net.TCPListener
}

// Listen binds a TCP listener at addr.
func Listen(addr *net.TCPAddr) (*Listener, error) {
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: listen: %w", err)
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks for the next incoming connection.
func (l *Listener) Accept() (stream.Stream, error) {
	c, err := l.ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	return &Conn{tcp: c}, nil
}

// Close stops the listener.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}
