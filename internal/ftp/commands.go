package ftp

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rdnt/rudpftp/internal/stream"
)

// OPTS is always a no-op: the server only ever speaks UTF-8.
func (s *Session) OPTS(arg string) error {
	s.reply("202 UTF8 mode is always enabled.\r\n")
	return nil
}

// AUTH rejects every mechanism: this server never negotiates TLS/SSL.
func (s *Session) AUTH(arg string) error {
	s.reply("500 Insecure server, it does not support FTP over TLS/SSL.\r\n")
	return nil
}

// USER records the candidate username; the password is checked by
// the following PASS. A blank argument is a syntax error (§5).
func (s *Session) USER(arg string) error {
	if arg == "" {
		s.reply("501 Missing required argument.\r\n")
		return nil
	}

	if arg == s.srv.Cfg.Auth.DefaultUser {
		s.pendingUser = arg
	} else {
		s.pendingUser = ""
	}

	// Always ask for a password, win or lose, so a prober cannot
	// enumerate valid usernames from the USER reply alone.
	s.reply("331 Please, specify the password.\r\n")
	return nil
}

// PASS completes authentication against the bcrypt-hashed configured
// password.
func (s *Session) PASS(arg string) error {
	ok := arg != "" && s.pendingUser == s.srv.Cfg.Auth.DefaultUser &&
		bcrypt.CompareHashAndPassword(s.srv.PasswordHash, []byte(arg)) == nil

	if !ok {
		s.pendingUser = ""
		s.reply("530 Login incorrect.\r\n")
		return nil
	}

	s.authenticated = true
	s.reply("230 Login successful.\r\n")
	return nil
}

// SYST reports the host operating system identifier.
func (s *Session) SYST(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}
	s.reply("215 %s type.\r\n", hostOS())
	return nil
}

// TYPE selects binary or ascii transfer mode.
func (s *Session) TYPE(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	switch strings.ToUpper(arg) {
	case "I":
		s.mode = 'I'
		s.reply("200 Binary mode.\r\n")
	case "A":
		s.mode = 'A'
		s.reply("200 Ascii mode.\r\n")
	default:
		s.reply("%s: unknown mode.\r\n", arg)
	}
	return nil
}

// PWD reports the current working directory.
func (s *Session) PWD(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}
	s.reply("257 %q.\r\n", s.cwd)
	return nil
}

// CWD changes the current working directory.
func (s *Session) CWD(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	path := s.absolutePath(arg)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return filesystemError("CWD failed Directory not exists.")
	}

	s.cwd = toFTPPath(path)
	s.reply("250 CWD Command successful.\r\n")
	return nil
}

// CDUP moves cwd to its parent directory.
func (s *Session) CDUP(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}
	s.cwd = toFTPPath(filepath.Clean(filepath.Join(s.cwd, "..")))
	s.reply("250 CDUP command successful.\r\n")
	return nil
}

// MKD creates a directory.
func (s *Session) MKD(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	path := s.absolutePath(arg)
	if _, err := os.Stat(path); err == nil {
		return filesystemError("MKD failed, directory %q already exists.", path)
	}

	if err := os.Mkdir(path, 0o755); err != nil {
		return filesystemError("MKD failed: %v", err)
	}
	s.reply("257 Directory created.\r\n")
	return nil
}

// RMD recursively removes a directory, subject to the delete policy.
func (s *Session) RMD(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	path := s.absolutePath(arg)
	if _, err := os.Stat(path); err != nil {
		return filesystemError("RMD failed, directory %q does not exists.", path)
	}
	if !s.srv.Cfg.Server.AllowDelete {
		s.reply("450 Failed to delete folder: %s, server does not allow delete.\r\n", path)
		return nil
	}

	if err := os.RemoveAll(path); err != nil {
		return filesystemError("RMD failed: %v", err)
	}
	s.reply("250 Directory deleted.\r\n")
	return nil
}

// DELE removes a file, subject to the delete policy.
func (s *Session) DELE(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	path := s.absolutePath(arg)
	if _, err := os.Stat(path); err != nil {
		return filesystemError("Failed to delete file: %s, file does not exists.", path)
	}
	if !s.srv.Cfg.Server.AllowDelete {
		s.reply("450 Failed to delete file: %s, server does not allow delete.\r\n", path)
		return nil
	}

	if err := os.Remove(path); err != nil {
		return filesystemError("delete failed: %v", err)
	}
	s.reply("250 File deleted.\r\n")
	return nil
}

// RNFR remembers the rename source, if it exists.
func (s *Session) RNFR(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	path := s.absolutePath(arg)
	if _, err := os.Stat(path); err != nil {
		return filesystemError("RNFR failed, file/dir %q does not exists.", path)
	}

	s.renameFrom = path
	s.reply("350 File exists, ready for destination name.\r\n")
	return nil
}

// RNTO completes a rename started by RNFR.
func (s *Session) RNTO(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	if s.renameFrom == "" {
		s.reply("503 %v\r\n", ErrNoRenameSource)
		return nil
	}

	to := s.absolutePath(arg)
	if _, err := os.Stat(to); err == nil {
		return filesystemError("RNTO failed, file/dir %q already exists.", to)
	}

	if err := os.Rename(s.renameFrom, to); err != nil {
		s.renameFrom = ""
		return filesystemError("rename failed: %v", err)
	}

	s.renameFrom = ""
	s.reply("250 File or directory renamed successfully.\r\n")
	return nil
}

// REST sets the byte offset consumed by the following RETR.
func (s *Session) REST(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	off, err := parseOffset(arg)
	if err != nil {
		return protocolError("invalid restart offset %q", arg)
	}

	s.startingPosition = off
	s.reply("250 File position reseted.\r\n")
	return nil
}

// PORT records the client's active-mode data endpoint from a
// comma-separated six-octet argument: h1,h2,h3,h4,p1,p2.
func (s *Session) PORT(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	if s.pasvMode {
		if s.passiveListener != nil {
			_ = s.passiveListener.Close()
			s.passiveListener = nil
		}
		s.pasvMode = false
	}

	parts := strings.Split(arg, ",")
	if len(parts) != 6 {
		return protocolError("malformed PORT argument")
	}

	ip := strings.Join(parts[0:4], ".")
	p1, err1 := parseOffset(parts[4])
	p2, err2 := parseOffset(parts[5])
	if err1 != nil || err2 != nil {
		return protocolError("malformed PORT argument")
	}

	s.dataHost = ip
	s.dataPort = int(p1<<8 + p2)
	s.reply("200 PORT command successful.\r\n")
	return nil
}

// PASV opens a pool-assigned listener and advertises it to the
// client.
func (s *Session) PASV(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	port := s.srv.Pool.Acquire()
	protocol := s.srv.Cfg.Transport.Protocol
	ln, err := stream.ListenOn(protocol, s.srv.Cfg.Server.Host, port, s.srv.Cfg.RUDPEngineConfig())
	if err != nil {
		s.srv.Pool.Release(port)
		return transportError("could not open passive listener: %v", err)
	}

	s.passiveListener = ln
	s.passivePort = port
	s.pasvMode = true

	octets := strings.ReplaceAll(s.srv.Cfg.Server.Host, ".", ",")
	s.reply("227 Entering Passive Mode (%s,%d,%d).\r\n", octets, port>>8&0xFF, port&0xFF)
	return nil
}

// LIST writes one directory-listing line per entry (or a single line
// for a file target) to the data channel.
func (s *Session) LIST(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}

	path := s.absolutePath(arg)
	info, err := os.Stat(path)
	if err != nil {
		return filesystemError("Couldn't open the file or directory.")
	}

	s.reply("150 Starting data transfer.\r\n")
	data, err := s.openDataChannel(s.srv.Cfg.Transport.Protocol)
	if err != nil {
		return err
	}
	defer s.closeDataChannel(data)

	var lines []string
	if !info.IsDir() {
		line, err := formatEntry(path)
		if err != nil {
			return transportError("listing failed: %v", err)
		}
		lines = []string{line}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return transportError("listing failed: %v", err)
		}
		for _, e := range entries {
			line, err := formatEntry(filepath.Join(path, e.Name()))
			if err != nil {
				continue
			}
			lines = append(lines, line)
		}
	}

	for _, line := range lines {
		if err := data.Send([]byte(line + "\r\n")); err != nil {
			return transportError("listing send failed: %v", err)
		}
	}

	s.reply("226 Operation successful.\r\n")
	return nil
}

// RETR streams a file's contents to the data channel, honoring the
// transfer mode and any pending restart offset.
func (s *Session) RETR(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}
	if arg == "" {
		return protocolError("Please supply a filename to download.")
	}

	path := s.absolutePath(arg)
	f, err := os.Open(path)
	if err != nil {
		return filesystemError("The filename does not exist.")
	}
	defer f.Close()

	s.reply("150 Opening data connection.\r\n")
	data, err := s.openDataChannel(s.srv.Cfg.Transport.Protocol)
	if err != nil {
		return err
	}
	defer s.closeDataChannel(data)

	if _, err := f.Seek(s.startingPosition, io.SeekStart); err != nil {
		return transportError("seek failed: %v", err)
	}
	s.startingPosition = 0

	if err := s.streamOut(f, data); err != nil {
		return transportError("transfer failed: %v", err)
	}

	s.reply("226 Transfer completed.\r\n")
	return nil
}

// streamOut writes f to data in the session's current transfer mode:
// raw 1024-byte chunks in binary, CRLF-normalized lines in ASCII.
func (s *Session) streamOut(f *os.File, data stream.Stream) error {
	if s.mode == 'I' {
		buf := make([]byte, dataChunkSize)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				if sendErr := data.Send(buf[:n]); sendErr != nil {
					return sendErr
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			if sendErr := data.Send([]byte(line + "\r\n")); sendErr != nil {
				return sendErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// STOR writes the bytes received on the data channel to a file,
// truncating unless an APPE set is-append.
func (s *Session) STOR(arg string) error {
	if err := s.requireAuthenticated(); err != nil {
		return err
	}
	if arg == "" {
		return protocolError("Please supply a filename to upload.")
	}

	path := s.absolutePath(arg)
	flags := os.O_WRONLY | os.O_CREATE
	if s.isAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	s.isAppend = false

	if err := ensureDir(path); err != nil {
		return filesystemError("could not create destination directory: %v", err)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return filesystemError("could not open destination file: %v", err)
	}
	defer f.Close()

	s.reply("150 Opening data connection.\r\n")
	data, err := s.openDataChannel(s.srv.Cfg.Transport.Protocol)
	if err != nil {
		return err
	}
	defer s.closeDataChannel(data)

	for {
		// A receive error or an empty chunk both signal that the
		// client has finished sending and closed the data channel;
		// that is the normal end of an upload, not a fault.
		chunk, err := data.Receive(dataChunkSize)
		if err != nil || len(chunk) == 0 {
			break
		}
		if _, err := f.Write(chunk); err != nil {
			return transportError("write failed: %v", err)
		}
	}

	s.reply("226 Transfer completed.\r\n")
	return nil
}

// APPE sets is-append and delegates to STOR.
func (s *Session) APPE(arg string) error {
	s.isAppend = true
	return s.STOR(arg)
}

const helpText = `214-The following commands are recognized.
    USER PASS PASV PORT EPRT LIST NLST CWD  XCWD PWD  XPWD CDUP XCUP
    DELE MKD  XMKD RMD  XRMD RNFR RNTO REST RETR STOR APPE SYST HELP QUIT
214 Help OK.
`

// HELP prints the static command summary.
func (s *Session) HELP(arg string) error {
	s.reply(helpText)
	return nil
}

// QUIT says goodbye, releases the data channel, and ends the session.
func (s *Session) QUIT(arg string) error {
	s.reply("221 Goodbye.\r\n")
	s.cleanupDataChannel()
	return nil
}

func toFTPPath(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

