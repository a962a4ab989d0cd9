package websock

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vango-dev/websock/pkg/wire"
)

// Connection errors.
var (
	// ErrAlreadyOpened is returned by Open when it has been called before.
	// A connection dials exactly once; create a new one to reconnect.
	ErrAlreadyOpened = errors.New("websock: connection already opened")

	// ErrNotOpen is returned when sending before the handshake completed.
	ErrNotOpen = errors.New("websock: connection not open")

	// ErrClosed is returned when sending on a closing or closed connection.
	ErrClosed = errors.New("websock: connection closed")

	// ErrSendQueueFull is returned when the outbound queue has no room.
	// The send is dropped; the connection stays usable.
	ErrSendQueueFull = errors.New("websock: send queue full")

	// ErrBadScheme is returned for URLs that are not ws, wss, http or https.
	ErrBadScheme = errors.New("websock: URL scheme must be ws, wss, http or https")

	// ErrNilHandler is returned by NewConn when no handler is given.
	ErrNilHandler = errors.New("websock: handler must not be nil")
)

// HandshakeError reports a failed upgrade handshake. StatusCode and Header
// hold what the server answered when a response was received at all.
type HandshakeError struct {
	URL        string
	StatusCode int
	Header     http.Header
	Err        error
}

func (e *HandshakeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("websock: handshake with %s failed (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("websock: handshake with %s failed: %v", e.URL, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// NewHandshakeError wraps a handshake failure, lifting the server's status
// and headers out of the result when one was parsed.
func NewHandshakeError(url string, res *wire.HandshakeResult, err error) *HandshakeError {
	he := &HandshakeError{URL: url, Err: err}
	if res != nil {
		he.StatusCode = res.StatusCode
		he.Header = res.Header
	}
	return he
}

// ProtocolError reports a peer violation of the framing rules. Code is the
// close code the violation maps to and is sent to the peer on a best-effort
// basis before the connection fails.
type ProtocolError struct {
	Code wire.StatusCode
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("websock: protocol violation (%s): %v", e.Code, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError creates a ProtocolError with the given close code.
func NewProtocolError(code wire.StatusCode, err error) *ProtocolError {
	return &ProtocolError{Code: code, Err: err}
}

// TransportError reports a failure of the underlying transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("websock: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a transport failure with the operation that hit it.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}
