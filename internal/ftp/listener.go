package ftp

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rdnt/rudpftp/internal/config"
	"github.com/rdnt/rudpftp/internal/logging"
	"github.com/rdnt/rudpftp/internal/stream"
)

// Listener binds the configured host and port via the selected stream
// abstraction, accepts in a loop, and spawns a Session per accepted
// connection (§4.4).
type Listener struct {
	srv *Server
	ln  stream.Listener

	stopping atomic.Bool
	wg       sync.WaitGroup
}

// NewListener binds a Listener using cfg's transport, host, and port.
func NewListener(cfg *config.Config) (*Listener, error) {
	srv, err := NewServer(cfg)
	if err != nil {
		return nil, err
	}

	port, err := portNumber(cfg.Server.Port)
	if err != nil {
		return nil, &CommandError{Kind: KindFatal, Err: fmt.Errorf("invalid server port %q: %w", cfg.Server.Port, err)}
	}

	ln, err := stream.ListenOn(cfg.Transport.Protocol, cfg.Server.Host, port, cfg.RUDPEngineConfig())
	if err != nil {
		return nil, &CommandError{Kind: KindFatal, Err: fmt.Errorf("cannot bind listener: %w", err)}
	}

	return &Listener{srv: srv, ln: ln}, nil
}

// Serve accepts connections until Shutdown is called, spawning one
// Session goroutine per client and waiting for all of them to finish
// before returning.
func (l *Listener) Serve() {
	logging.Info("ftp: listening on %s", l.ln.Addr())

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.stopping.Load() {
				logging.Info("ftp: listener shutting down")
				break
			}
			logging.Warn("ftp: accept error: %v", err)
			continue
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			session := NewSession(l.srv, conn, l.stopping.Load)
			session.Serve()
		}()
	}

	l.wg.Wait()
}

// Shutdown causes Serve to stop accepting new connections once the
// current Accept call returns (or fails), and waits for in-flight
// sessions to finish.
func (l *Listener) Shutdown() {
	l.stopping.Store(true)
	_ = l.ln.Close()
	l.wg.Wait()
}

func portNumber(s string) (int, error) {
	var port int
	_, err := fmt.Sscanf(s, "%d", &port)
	return port, err
}
