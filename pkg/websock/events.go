package websock

import (
	"github.com/vango-dev/websock/pkg/wire"
)

// MessageType distinguishes text and binary messages.
type MessageType uint8

const (
	// MessageText is a UTF-8 text message.
	MessageText MessageType = iota + 1

	// MessageBinary is an opaque binary message.
	MessageBinary
)

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "Text"
	case MessageBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Message is a complete, reassembled data message. Text messages have
// already been validated as UTF-8 when they reach the handler.
type Message struct {
	Type MessageType
	Data []byte
}

// Text returns the payload as a string.
func (m Message) Text() string {
	return string(m.Data)
}

// Handler receives connection events. All callbacks for one connection are
// delivered sequentially in the order the events occurred; a slow handler
// applies backpressure to the peer rather than reordering or dropping
// events.
//
// Exactly one of OnClose or OnError is the final callback. OnClose reports
// a finished close handshake or a peer that went away; OnError reports a
// handshake failure, a protocol violation, or a transport failure.
type Handler interface {
	// OnOpen fires once when the handshake completes.
	OnOpen(c *Conn)

	// OnMessage fires for every complete data message.
	OnMessage(c *Conn, msg Message)

	// OnClose is the terminal callback for a closed connection. wasClean
	// reports whether both sides completed the close handshake.
	OnClose(c *Conn, info wire.CloseInfo, wasClean bool)

	// OnError is the terminal callback for a failed connection.
	OnError(c *Conn, err error)
}

// PingHandler is implemented by handlers that want incoming pings. The
// connection answers every ping with a pong regardless.
type PingHandler interface {
	OnPing(c *Conn, payload []byte)
}

// PongHandler is implemented by handlers that want incoming pongs.
type PongHandler interface {
	OnPong(c *Conn, payload []byte)
}

// HandlerFuncs adapts free functions to the Handler interface. Nil fields
// are skipped. It also satisfies PingHandler and PongHandler.
type HandlerFuncs struct {
	Open    func(c *Conn)
	Message func(c *Conn, msg Message)
	Close   func(c *Conn, info wire.CloseInfo, wasClean bool)
	Error   func(c *Conn, err error)
	Ping    func(c *Conn, payload []byte)
	Pong    func(c *Conn, payload []byte)
}

func (h HandlerFuncs) OnOpen(c *Conn) {
	if h.Open != nil {
		h.Open(c)
	}
}

func (h HandlerFuncs) OnMessage(c *Conn, msg Message) {
	if h.Message != nil {
		h.Message(c, msg)
	}
}

func (h HandlerFuncs) OnClose(c *Conn, info wire.CloseInfo, wasClean bool) {
	if h.Close != nil {
		h.Close(c, info, wasClean)
	}
}

func (h HandlerFuncs) OnError(c *Conn, err error) {
	if h.Error != nil {
		h.Error(c, err)
	}
}

func (h HandlerFuncs) OnPing(c *Conn, payload []byte) {
	if h.Ping != nil {
		h.Ping(c, payload)
	}
}

func (h HandlerFuncs) OnPong(c *Conn, payload []byte) {
	if h.Pong != nil {
		h.Pong(c, payload)
	}
}

// Executor runs handler callbacks. The default executor invokes the
// callback inline on the connection's dispatch goroutine. A custom executor
// must preserve submission order for callbacks of the same connection; a
// serial queue or single goroutine does, a worker pool does not.
type Executor func(fn func())
