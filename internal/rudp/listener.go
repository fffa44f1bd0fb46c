package rudp

import (
	"fmt"
	"net"
	"time"
)

// Listener accepts incoming RUDP connections on a bound UDP socket.
// Accept mirrors the reference implementation: the shared listening
// socket is only ever used to learn a new peer's address. Each
// accepted connection gets its own ephemeral UDP socket and performs
// its own SYN/ACK handshake with that peer, so the listening socket
// never collides with per-connection traffic.
type Listener struct {
	sock *net.UDPConn
	cfg  Config
}

// Listen binds a UDP socket at addr and returns a Listener ready to
// Accept connections.
func Listen(addr *net.UDPAddr, cfg Config) (*Listener, error) {
	sock, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("rudp: listen: %w", err)
	}
	return &Listener{sock: sock, cfg: cfg.withDefaults()}, nil
}

// Accept blocks for an incoming datagram from a new peer, then returns
// a fresh Conn bound to that peer which performs its own handshake
// (§4.2 "Handshake").
func (l *Listener) Accept() (*Conn, error) {
	buf := make([]byte, l.cfg.MTU)
	for {
		n, addr, err := l.sock.ReadFromUDP(buf)
		if err != nil {
			return nil, fmt.Errorf("rudp: accept: %w", err)
		}

		if _, err := Decode(buf[:n]); err != nil {
			// Malformed first datagram: keep waiting for a real peer.
			continue
		}

		sock, err := net.ListenUDP("udp", &net.UDPAddr{})
		if err != nil {
			return nil, fmt.Errorf("rudp: accept: %w", err)
		}

		c := newConn(sock, addr, l.cfg)
		c.start()

		if err := c.sendSYN(); err != nil {
			c.Close()
			return nil, err
		}

		select {
		case <-c.connectedCh:
			return c, nil
		case <-time.After(c.cfg.ConnectTimeout):
			c.Close()
			continue
		case <-c.closeCh:
			continue
		}
	}
}

// Close stops the listener from accepting further connections.
func (l *Listener) Close() error {
	return l.sock.Close()
}

// Addr returns the listener's bound local address.
func (l *Listener) Addr() net.Addr {
	return l.sock.LocalAddr()
}
