// Package ftp implements the RFC 959 command/data session engine: a
// per-client state machine that parses command lines, dispatches to
// handlers, and manages a secondary data channel in active or passive
// mode, running over either of the stream.Stream backends.
package ftp

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rdnt/rudpftp/internal/config"
	"github.com/rdnt/rudpftp/internal/logging"
	"github.com/rdnt/rudpftp/internal/pool"
	"github.com/rdnt/rudpftp/internal/stream"
)

// commandReadTimeout bounds how long Session.Serve waits for the next
// command line before checking the shutdown flag again.
const commandReadTimeout = 5 * time.Second

// maxCommandLine is the maximum number of bytes read per command.
const maxCommandLine = 1024

// dataChunkSize is the read/write granularity for RETR/STOR transfers.
const dataChunkSize = 1024

// Server bundles the dependencies a Session needs that are shared
// across every client: the configured credential, the delete policy,
// the data-channel port pool, and the stream protocol to use for data
// channels.
type Server struct {
	Cfg          *config.Config
	Pool         *pool.Pool
	PasswordHash []byte
}

// NewServer derives a Server from cfg, hashing the configured password
// once at startup so PASS never compares plaintext.
func NewServer(cfg *config.Config) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ftp: hashing configured password: %w", err)
	}
	return &Server{Cfg: cfg, Pool: pool.New(), PasswordHash: hash}, nil
}

// Session is one client's FTP control connection and its associated
// transient data-channel state.
type Session struct {
	srv  *Server
	ctrl stream.Stream

	cwd              string
	authenticated    bool
	pendingUser      string
	mode             byte
	startingPosition int64
	isAppend         bool

	dataHost string
	dataPort int
	pasvMode bool

	passiveListener stream.Listener
	passivePort     int

	renameFrom string

	shouldStop func() bool
	label      string
}

// NewSession wraps an accepted control-channel stream in a Session.
// shouldStop is polled between idle reads so the listener's shutdown
// flag can end the session promptly.
func NewSession(srv *Server, ctrl stream.Stream, shouldStop func() bool) *Session {
	return &Session{
		srv:        srv,
		ctrl:       ctrl,
		cwd:        "/",
		mode:       'A',
		shouldStop: shouldStop,
		label:      ctrl.RemoteAddr().String(),
	}
}

// Serve sends the welcome banner and runs the command loop until QUIT,
// a transport error, or shutdown is requested. It never returns an
// error for ordinary protocol/filesystem/auth failures; those are
// reported to the client and the loop continues.
func (s *Session) Serve() {
	s.reply("220 Welcome.\r\n")

	for {
		if s.shouldStop != nil && s.shouldStop() {
			s.QUIT("")
			return
		}

		_ = s.ctrl.SetTimeout(commandReadTimeout)
		line, err := s.ctrl.Receive(maxCommandLine)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			logging.Debug("ftp[%s]: command channel closed: %v", s.label, err)
			s.cleanupDataChannel()
			return
		}

		line = trimCRLF(line)
		if len(line) == 0 {
			continue
		}

		cmdText := string(line)
		cmd, arg := splitCommand(cmdText)
		logging.Debug("ftp[%s]: %s %s", s.label, cmd, arg)

		if cmd == "" {
			s.reply("500 Syntax error, command unrecognized.\r\n")
			continue
		}

		if quit := s.dispatch(cmd, arg); quit {
			return
		}
	}
}

// dispatch runs one parsed command, returning true if the session
// should end (QUIT, or a KindFatal error from the handler).
func (s *Session) dispatch(cmd, arg string) (done bool) {
	handler, ok := commandTable[cmd]
	if !ok {
		s.reply("500 Syntax error, command unrecognized.\r\n")
		return false
	}

	err := handler(s, arg)
	if err == nil {
		return cmd == "QUIT"
	}

	ce, ok := err.(*CommandError)
	if !ok {
		s.reply("500 could not interpret your command, please try again.\r\n")
		return false
	}

	switch ce.Kind {
	case KindAuth:
		s.reply("530 Please log in with USER and PASS first.\r\n")
	case KindProtocol:
		s.reply("500 %s\r\n", ce.Err)
	case KindFilesystem:
		s.reply("550 %s\r\n", ce.Err)
	case KindTransport:
		// Every KindTransport error raised from a command handler is
		// scoped to the data channel; a command-channel failure is
		// handled directly in Serve's read loop, never through here.
		logging.Warn("ftp[%s]: transport error: %v", s.label, ce.Err)
		s.cleanupDataChannel()
		s.reply("500 Operation Failed.\r\n")
	case KindFatal:
		logging.Error("ftp[%s]: fatal error: %v", s.label, ce.Err)
		return true
	}

	return cmd == "QUIT"
}

var commandTable = map[string]func(*Session, string) error{
	"OPTS": (*Session).OPTS,
	"AUTH": (*Session).AUTH,
	"USER": (*Session).USER,
	"PASS": (*Session).PASS,
	"SYST": (*Session).SYST,
	"TYPE": (*Session).TYPE,
	"PWD":  (*Session).PWD,
	"XPWD": (*Session).PWD,
	"CWD":  (*Session).CWD,
	"XCWD": (*Session).CWD,
	"CDUP": (*Session).CDUP,
	"XCUP": (*Session).CDUP,
	"MKD":  (*Session).MKD,
	"XMKD": (*Session).MKD,
	"RMD":  (*Session).RMD,
	"XRMD": (*Session).RMD,
	"DELE": (*Session).DELE,
	"RNFR": (*Session).RNFR,
	"RNTO": (*Session).RNTO,
	"REST": (*Session).REST,
	"LIST": (*Session).LIST,
	"NLST": (*Session).LIST,
	"RETR": (*Session).RETR,
	"STOR": (*Session).STOR,
	"APPE": (*Session).APPE,
	"PASV": (*Session).PASV,
	"PORT": (*Session).PORT,
	"EPRT": (*Session).PORT,
	"HELP": (*Session).HELP,
	"QUIT": (*Session).QUIT,
}

func (s *Session) reply(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err := s.ctrl.Send([]byte(msg)); err != nil {
		logging.Warn("ftp[%s]: failed to send reply: %v", s.label, err)
	}
}

func (s *Session) requireAuthenticated() error {
	if !s.authenticated {
		return authError("%w", ErrNotAuthenticated)
	}
	return nil
}

// absolutePath resolves arg against cwd per §4.3's path resolution
// rule: absolute if it begins with the path separator, else joined
// with cwd and normalized.
func (s *Session) absolutePath(arg string) string {
	if strings.HasPrefix(arg, "/") {
		return filepath.Clean(arg)
	}
	return filepath.Clean(filepath.Join(s.cwd, arg))
}

func splitCommand(line string) (cmd, arg string) {
	if len(line) < 4 {
		return strings.ToUpper(strings.TrimSpace(line)), ""
	}
	cmd = strings.ToUpper(strings.TrimSpace(line[:4]))
	arg = strings.TrimSpace(line[4:])
	return cmd, arg
}

func trimCRLF(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\r' || b[len(b)-1] == '\n') {
		b = b[:len(b)-1]
	}
	return b
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// openDataChannel establishes the data channel per §4.3: accepts on
// the passive listener if pasv-mode, otherwise dials data-endpoint.
func (s *Session) openDataChannel(protocol string) (stream.Stream, error) {
	if err := s.requireAuthenticated(); err != nil {
		return nil, err
	}

	if s.pasvMode {
		if s.passiveListener == nil {
			return nil, transportError("no passive listener open")
		}
		conn, err := s.passiveListener.Accept()
		if err != nil {
			return nil, transportError("passive accept failed: %v", err)
		}
		return conn, nil
	}

	conn, err := stream.DialTo(protocol, s.dataHost, s.dataPort, s.srv.Cfg.RUDPEngineConfig())
	if err != nil {
		return nil, transportError("active dial failed: %v", err)
	}
	return conn, nil
}

// closeDataChannel closes the transient data stream and, in passive
// mode, the listener too, returning the pooled port.
func (s *Session) closeDataChannel(data stream.Stream) {
	if data != nil {
		_ = data.Close()
	}
	s.cleanupDataChannel()
}

func (s *Session) cleanupDataChannel() {
	if s.passiveListener != nil {
		_ = s.passiveListener.Close()
		s.passiveListener = nil
	}
	if s.passivePort != 0 {
		s.srv.Pool.Release(s.passivePort)
		s.passivePort = 0
	}
}

func hostOS() string {
	return runtime.GOOS
}

func parseOffset(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
