// Package websock provides the public API for the websock WebSocket client.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/websock"
//
// Usage:
//
//	handler := websock.HandlerFuncs{
//	    Open: func(c *websock.Conn) {
//	        c.SendText("hello")
//	    },
//	    Message: func(c *websock.Conn, msg websock.Message) {
//	        fmt.Println(msg.Text())
//	    },
//	}
//	conn, err := websock.Dial(ctx, "wss://example.com/feed", handler, nil)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//	<-conn.Done()
package websock

import (
	corewebsock "github.com/vango-dev/websock/pkg/websock"
	"github.com/vango-dev/websock/pkg/wire"
)

// =============================================================================
// Connection (re-export from pkg/websock)
// =============================================================================

// Conn is a client WebSocket connection.
type Conn = corewebsock.Conn

// Config controls handshake, limits, and timeout behavior.
type Config = corewebsock.Config

// DefaultConfig returns a Config with all defaults applied.
var DefaultConfig = corewebsock.DefaultConfig

// NewConn creates an unopened connection for the given URL.
var NewConn = corewebsock.NewConn

// Dial creates a connection and performs the opening handshake.
var Dial = corewebsock.Dial

// State is the connection lifecycle state.
type State = corewebsock.State

// Connection states.
const (
	StateConnecting = corewebsock.StateConnecting
	StateOpen       = corewebsock.StateOpen
	StateClosing    = corewebsock.StateClosing
	StateClosed     = corewebsock.StateClosed
)

// =============================================================================
// Events (re-export from pkg/websock)
// =============================================================================

// Handler receives connection events in arrival order.
type Handler = corewebsock.Handler

// PingHandler is implemented by handlers that want inbound pings.
type PingHandler = corewebsock.PingHandler

// PongHandler is implemented by handlers that want inbound pongs.
type PongHandler = corewebsock.PongHandler

// HandlerFuncs adapts plain functions to the Handler interface; nil fields
// are skipped.
type HandlerFuncs = corewebsock.HandlerFuncs

// Message is a complete data message.
type Message = corewebsock.Message

// MessageType distinguishes text from binary messages.
type MessageType = corewebsock.MessageType

// Message types.
const (
	MessageText   = corewebsock.MessageText
	MessageBinary = corewebsock.MessageBinary
)

// Executor runs handler callbacks on a caller-chosen goroutine or loop.
type Executor = corewebsock.Executor

// =============================================================================
// Close codes (re-export from pkg/wire)
// =============================================================================

// CloseInfo is a close code and reason pair.
type CloseInfo = wire.CloseInfo

// StatusCode is an RFC 6455 close code.
type StatusCode = wire.StatusCode

// Close codes.
const (
	StatusNormalClosure           = wire.StatusNormalClosure
	StatusGoingAway               = wire.StatusGoingAway
	StatusProtocolError           = wire.StatusProtocolError
	StatusUnsupportedData         = wire.StatusUnsupportedData
	StatusNoStatusReceived        = wire.StatusNoStatusReceived
	StatusAbnormalClosure         = wire.StatusAbnormalClosure
	StatusInvalidFramePayloadData = wire.StatusInvalidFramePayloadData
	StatusPolicyViolation         = wire.StatusPolicyViolation
	StatusMessageTooBig           = wire.StatusMessageTooBig
	StatusMandatoryExtension      = wire.StatusMandatoryExtension
	StatusInternalError           = wire.StatusInternalError
	StatusServiceRestart          = wire.StatusServiceRestart
	StatusTryAgainLater           = wire.StatusTryAgainLater
)

// =============================================================================
// Errors (re-export from pkg/websock)
// =============================================================================

var (
	ErrAlreadyOpened = corewebsock.ErrAlreadyOpened
	ErrNotOpen       = corewebsock.ErrNotOpen
	ErrClosed        = corewebsock.ErrClosed
	ErrSendQueueFull = corewebsock.ErrSendQueueFull
	ErrBadScheme     = corewebsock.ErrBadScheme
	ErrNilHandler    = corewebsock.ErrNilHandler
)

// Validation errors returned by CloseWith and SendPing.
var (
	ErrInvalidCloseCode = wire.ErrInvalidCloseCode
	ErrReasonTooLong    = wire.ErrReasonTooLong
	ErrControlTooLong   = wire.ErrControlTooLong
)

// HandshakeError reports a failed opening handshake.
type HandshakeError = corewebsock.HandshakeError

// ProtocolError reports a peer protocol violation and the close code sent
// for it.
type ProtocolError = corewebsock.ProtocolError

// TransportError reports a network failure.
type TransportError = corewebsock.TransportError

// =============================================================================
// Metrics (re-export from pkg/websock)
// =============================================================================

// Metrics records connection activity in Prometheus collectors.
type Metrics = corewebsock.Metrics

// MetricsOption customizes NewMetrics.
type MetricsOption = corewebsock.MetricsOption

// NewMetrics creates and registers the connection metrics.
var NewMetrics = corewebsock.NewMetrics

var (
	WithNamespace        = corewebsock.WithNamespace
	WithSubsystem        = corewebsock.WithSubsystem
	WithConstLabels      = corewebsock.WithConstLabels
	WithRegistry         = corewebsock.WithRegistry
	WithHandshakeBuckets = corewebsock.WithHandshakeBuckets
)
