package rudp

import "errors"

// Errors returned by Conn and Listener. Callers should compare with
// errors.Is rather than direct equality.
var (
	// ErrClosed is returned by any operation on a connection that has
	// already been closed.
	ErrClosed = errors.New("rudp: connection closed")

	// ErrTimeout is returned by Dial when the handshake does not
	// complete within the connect timeout.
	ErrTimeout = errors.New("rudp: operation timed out")

	// ErrTooManyRetries is returned when the send-window or
	// post-END-drain retry budget (§4.2 "Send") is exhausted.
	ErrTooManyRetries = errors.New("rudp: exceeded maximum send retries")

	// ErrReset names a reset by the peer. No Conn or Listener method
	// returns it: a Conn closed by a peer RST reports ErrClosed from
	// later operations.
	ErrReset = errors.New("rudp: connection reset by peer")
)
