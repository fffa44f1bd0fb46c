package ftp

import (
	"bufio"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ftpClient is a minimal line-oriented FTP client used to drive an
// end-to-end test of the real TCP listener.
type ftpClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialFTP(t *testing.T, addr string) *ftpClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	return &ftpClient{conn: conn, r: bufio.NewReader(conn)}
}

func (c *ftpClient) readLine(t *testing.T) string {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	return line
}

func (c *ftpClient) send(t *testing.T, cmd string) string {
	t.Helper()
	_, err := c.conn.Write([]byte(cmd + "\r\n"))
	require.NoError(t, err)
	return c.readLine(t)
}

func startTestListener(t *testing.T) (*Listener, string) {
	t.Helper()

	cfg := testCfg()
	cfg.Server.Port = "0"
	cfg.Server.Host = "127.0.0.1"

	ln, err := NewListener(cfg)
	require.NoError(t, err)

	go ln.Serve()
	t.Cleanup(ln.Shutdown)

	return ln, ln.ln.Addr().String()
}

// parsePasvPort extracts the port number advertised in a
// "227 Entering Passive Mode (a,b,c,d,p1,p2)." reply.
func parsePasvPort(t *testing.T, reply string) int {
	t.Helper()
	open := strings.Index(reply, "(")
	shut := strings.Index(reply, ")")
	require.True(t, open >= 0 && shut > open)
	parts := strings.Split(reply[open+1:shut], ",")
	require.Len(t, parts, 6)
	p1, err := strconv.Atoi(parts[4])
	require.NoError(t, err)
	p2, err := strconv.Atoi(parts[5])
	require.NoError(t, err)
	return p1<<8 + p2
}

func TestEndToEndLoginAndListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/one.txt", []byte("x"), 0o644))

	_, addr := startTestListener(t)
	c := dialFTP(t, addr)
	defer c.conn.Close()

	assert.Contains(t, c.readLine(t), "220")
	assert.Contains(t, c.send(t, "USER user"), "331")
	assert.Contains(t, c.send(t, "PASS 1234"), "230")
	assert.Contains(t, c.send(t, "CWD "+dir), "250")

	pasvReply := c.send(t, "PASV")
	assert.Contains(t, pasvReply, "227")
	port := parsePasvPort(t, pasvReply)

	dataConn, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(port), 2*time.Second)
	require.NoError(t, err)
	defer dataConn.Close()

	assert.Contains(t, c.send(t, "LIST"), "150")

	dataConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	listing, err := bufio.NewReader(dataConn).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, listing, "one.txt")

	finalReply := c.readLine(t)
	assert.Contains(t, finalReply, "226")

	assert.Contains(t, c.send(t, "QUIT"), "221")
}

func TestEndToEndRejectsUnauthenticatedCommand(t *testing.T) {
	_, addr := startTestListener(t)
	c := dialFTP(t, addr)
	defer c.conn.Close()

	_ = c.readLine(t) // welcome
	assert.Contains(t, c.send(t, "PWD"), "530")
}
