package stream

import (
	"fmt"
	"net"

	rudpconn "github.com/rdnt/rudpftp/internal/rudp"
	rudpstream "github.com/rdnt/rudpftp/internal/stream/rudp"
	tcpstream "github.com/rdnt/rudpftp/internal/stream/tcp"
)

// ListenOn binds a Listener for the named protocol ("tcp" or "rudp")
// at host:port.
func ListenOn(protocol, host string, port int, rudpCfg rudpconn.Config) (Listener, error) {
	switch protocol {
	case "tcp":
		addr := &net.TCPAddr{IP: net.ParseIP(host), Port: port}
		return tcpstream.Listen(addr)
	case "rudp":
		addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
		return rudpstream.Listen(addr, rudpCfg)
	default:
		return nil, fmt.Errorf("stream: unknown protocol %q", protocol)
	}
}

// DialTo opens a Stream to host:port over the named protocol.
func DialTo(protocol, host string, port int, rudpCfg rudpconn.Config) (Stream, error) {
	switch protocol {
	case "tcp":
		addr := &net.TCPAddr{IP: net.ParseIP(host), Port: port}
		return tcpstream.Dial(addr)
	case "rudp":
		addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
		return rudpstream.Dial(addr, rudpCfg)
	default:
		return nil, fmt.Errorf("stream: unknown protocol %q", protocol)
	}
}
