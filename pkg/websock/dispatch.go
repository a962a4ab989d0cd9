package websock

import (
	"log/slog"
	"runtime/debug"

	"github.com/vango-dev/websock/pkg/wire"
)

type eventKind uint8

const (
	eventOpen eventKind = iota + 1
	eventMessage
	eventPing
	eventPong
	eventClose
	eventError
)

func (k eventKind) String() string {
	switch k {
	case eventOpen:
		return "open"
	case eventMessage:
		return "message"
	case eventPing:
		return "ping"
	case eventPong:
		return "pong"
	case eventClose:
		return "close"
	case eventError:
		return "error"
	default:
		return "unknown"
	}
}

type event struct {
	kind    eventKind
	msg     Message
	payload []byte
	info    wire.CloseInfo
	clean   bool
	err     error
}

// dispatcher serializes handler callbacks. Events enter through a bounded
// channel in occurrence order and leave through the handler one at a time,
// so a slow handler backpressures the connection instead of reordering.
//
// The channel is closed after the terminal event (close or error) has been
// queued; finished closes once every queued event has been delivered.
type dispatcher struct {
	conn     *Conn
	handler  Handler
	exec     Executor
	logger   *slog.Logger
	events   chan event
	finished chan struct{}
}

func newDispatcher(c *Conn, handler Handler, exec Executor, logger *slog.Logger, queueSize int) *dispatcher {
	return &dispatcher{
		conn:     c,
		handler:  handler,
		exec:     exec,
		logger:   logger,
		events:   make(chan event, queueSize),
		finished: make(chan struct{}),
	}
}

func (d *dispatcher) run() {
	defer close(d.finished)
	for ev := range d.events {
		d.deliver(ev)
	}
}

// send queues an event, blocking when the handler has fallen behind.
func (d *dispatcher) send(ev event) {
	d.events <- ev
}

func (d *dispatcher) deliver(ev event) {
	call := func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panic recovered",
					"event", ev.kind.String(),
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		d.invoke(ev)
	}
	if d.exec != nil {
		d.exec(call)
		return
	}
	call()
}

func (d *dispatcher) invoke(ev event) {
	switch ev.kind {
	case eventOpen:
		d.handler.OnOpen(d.conn)
	case eventMessage:
		d.handler.OnMessage(d.conn, ev.msg)
	case eventPing:
		if h, ok := d.handler.(PingHandler); ok {
			h.OnPing(d.conn, ev.payload)
		}
	case eventPong:
		if h, ok := d.handler.(PongHandler); ok {
			h.OnPong(d.conn, ev.payload)
		}
	case eventClose:
		d.handler.OnClose(d.conn, ev.info, ev.clean)
	case eventError:
		d.handler.OnError(d.conn, ev.err)
	}
}
