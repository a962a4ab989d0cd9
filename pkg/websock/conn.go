package websock

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/url"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/vango-dev/websock/pkg/wire"
)

// Conn is a client WebSocket connection. Create it with NewConn, start it
// with Open, send through SendText/SendBinary/SendPing, stop it with Close.
// Events arrive on the Handler in order; exactly one of OnClose or OnError
// ends the stream.
//
// All methods are safe for concurrent use. A Conn dials once and is done
// once closed; reconnecting means creating a new Conn.
type Conn struct {
	cfg     *Config
	url     *url.URL
	id      string
	logger  *slog.Logger
	handler Handler

	state  atomic.Int32
	opened atomic.Bool

	// Set by Open before the state moves to Open.
	tr          Transport
	br          *bufio.Reader
	subprotocol string
	result      *wire.HandshakeResult

	dispatcher *dispatcher
	outq       *outQueue

	commands     chan outbound
	closeCh      chan wire.CloseInfo
	readCh       chan readChunk
	writeErrCh   chan error
	writeFlushed chan struct{}
	wake         chan struct{}
	done         chan struct{}
}

// outbound is a queued send awaiting the run loop.
type outbound struct {
	op      wire.Opcode
	payload []byte
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// ID returns the connection's random identifier, as used in logs.
func (c *Conn) ID() string {
	return c.id
}

// URL returns the connection URL with the scheme normalized to ws or wss.
// The returned value must not be modified.
func (c *Conn) URL() *url.URL {
	return c.url
}

// Subprotocol returns the subprotocol the server selected, or "" when none
// was negotiated. Valid once the state is Open.
func (c *Conn) Subprotocol() string {
	return c.subprotocol
}

// HandshakeResult returns the server's upgrade response. Valid once the
// state is Open; nil before that.
func (c *Conn) HandshakeResult() *wire.HandshakeResult {
	return c.result
}

// RemoteAddr returns the transport's remote address, or nil before the
// connection is open.
func (c *Conn) RemoteAddr() net.Addr {
	if State(c.state.Load()) == StateConnecting {
		return nil
	}
	if c.tr == nil {
		return nil
	}
	return c.tr.RemoteAddr()
}

// Done returns a channel closed after the terminal callback has been
// delivered. It never closes if Open is never called.
func (c *Conn) Done() <-chan struct{} {
	return c.dispatcher.finished
}

// SendText queues a text message. It never blocks: when the connection is
// not open it fails with ErrNotOpen or ErrClosed, and when the queue is
// full it fails with ErrSendQueueFull and drops the message.
func (c *Conn) SendText(text string) error {
	return c.enqueue(wire.OpText, []byte(text))
}

// SendBinary queues a binary message. The slice is handed off; the caller
// must not modify it afterwards. See SendText for the failure modes.
func (c *Conn) SendBinary(data []byte) error {
	return c.enqueue(wire.OpBinary, data)
}

// SendPing queues a ping with an optional payload of at most 125 bytes.
func (c *Conn) SendPing(payload []byte) error {
	if len(payload) > wire.MaxControlPayloadSize {
		return wire.ErrControlTooLong
	}
	return c.enqueue(wire.OpPing, payload)
}

func (c *Conn) enqueue(op wire.Opcode, payload []byte) error {
	switch State(c.state.Load()) {
	case StateConnecting:
		return ErrNotOpen
	case StateClosing, StateClosed:
		return ErrClosed
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	// Frames already encoded and waiting on the transport count against
	// the queue bound too, so a stalled peer surfaces here instead of
	// growing the output queue without limit.
	if c.outq.len() >= c.cfg.SendQueueSize {
		c.cfg.Metrics.recordSendDrop()
		return ErrSendQueueFull
	}
	select {
	case c.commands <- outbound{op: op, payload: payload}:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.cfg.Metrics.recordSendDrop()
		return ErrSendQueueFull
	}
}

// Close starts the close handshake with code 1000 (normal closure).
func (c *Conn) Close() error {
	return c.CloseWith(wire.CloseInfo{Code: wire.StatusNormalClosure})
}

// CloseWith starts the close handshake with a specific code and reason.
// The first close request wins; later ones are no-ops. Close is complete
// when the terminal callback fires (or the Done channel closes).
//
// Calling CloseWith while the handshake is still in flight is allowed; the
// close runs as soon as the connection opens.
func (c *Conn) CloseWith(info wire.CloseInfo) error {
	if !c.opened.Load() {
		return ErrNotOpen
	}
	if !info.Code.IsValidOnWire() {
		return wire.ErrInvalidCloseCode
	}
	if len(info.Reason) > wire.MaxCloseReasonSize {
		return wire.ErrReasonTooLong
	}
	if !utf8.ValidString(info.Reason) {
		return wire.ErrInvalidUTF8
	}
	if State(c.state.Load()) == StateClosed {
		return ErrClosed
	}
	select {
	case c.closeCh <- info:
	default:
		// A close is already pending; the first one wins.
	}
	return nil
}

// run drives the connection after a successful handshake. It is the only
// goroutine touching the assembler, the close bookkeeping, and the producer
// side of the outbound queue, so none of them need locks.
func (c *Conn) run() {
	asm := newAssembler(c.cfg.MaxMessageSize)

	var (
		closeSent     bool
		closeReceived bool
		closeFlushed  bool
		closeInfo     wire.CloseInfo
		failure       error
		wasClean      bool

		closeTimer *time.Timer
		timerC     <-chan time.Time
	)

	armTimer := func() {
		closeTimer = time.NewTimer(c.cfg.CloseTimeout)
		timerC = closeTimer.C
	}
	stopTimer := func() {
		if closeTimer != nil {
			closeTimer.Stop()
			closeTimer, timerC = nil, nil
		}
	}
	// sendClose queues the close frame. It is the last frame of the
	// connection; the pump reports back through writeFlushed.
	sendClose := func(info wire.CloseInfo) {
		var payload []byte
		if info.Code != 0 && info.Code != wire.StatusNoStatusReceived {
			if p, err := wire.EncodeCloseInfo(info); err == nil {
				payload = p
			}
		}
		c.queueFrame(wire.NewMaskedFrame(wire.OpClose, payload).Encode(), true)
		closeSent = true
	}
	// handshakeDone reports a finished close handshake: ours sent and
	// flushed, theirs received.
	handshakeDone := func() bool {
		return closeSent && closeReceived && closeFlushed
	}
	// fail records a fatal violation and starts the best-effort goodbye.
	fail := func(err error) {
		failure = err
		c.setState(StateClosing)
		stopTimer()
		if !closeSent {
			code := wire.StatusProtocolError
			var pe *ProtocolError
			if errors.As(err, &pe) {
				code = pe.Code
			}
			sendClose(wire.CloseInfo{Code: code})
		}
		armTimer()
	}

loop:
	for {
		select {
		case chunk := <-c.readCh:
			if failure != nil {
				// Already failing: only the stream end matters now.
				if chunk.err != nil {
					break loop
				}
				continue
			}
			if len(chunk.data) > 0 {
				items, perr := asm.push(chunk.data)
				for _, it := range items {
					if closeReceived {
						// Nothing may follow the peer's close frame.
						continue
					}
					if it.msg != nil {
						c.cfg.Metrics.recordMessage("in", it.msg.Type, len(it.msg.Data))
						c.dispatcher.send(event{kind: eventMessage, msg: *it.msg})
						continue
					}
					switch it.ctrl.Opcode {
					case wire.OpPing:
						if !closeSent {
							pong := wire.NewMaskedFrame(wire.OpPong, it.ctrl.Payload)
							c.queueFrame(pong.Encode(), false)
						}
						c.dispatcher.send(event{kind: eventPing, payload: it.ctrl.Payload})
					case wire.OpPong:
						c.dispatcher.send(event{kind: eventPong, payload: it.ctrl.Payload})
					case wire.OpClose:
						info, derr := wire.DecodeCloseInfo(it.ctrl.Payload)
						if derr != nil {
							code := wire.StatusProtocolError
							if errors.Is(derr, wire.ErrInvalidUTF8) {
								code = wire.StatusInvalidFramePayloadData
							}
							perr = NewProtocolError(code, derr)
							break
						}
						closeReceived = true
						if !closeSent {
							// Peer initiated: adopt its info, echo it, and
							// finish once the echo has been flushed.
							closeInfo = info
							c.setState(StateClosing)
							sendClose(info)
							armTimer()
						} else {
							// Peer acknowledged our close.
							stopTimer()
						}
						if handshakeDone() {
							wasClean = true
							break loop
						}
					}
					if perr != nil {
						break
					}
				}
				if perr != nil {
					fail(perr)
					continue
				}
			}
			if chunk.err != nil {
				if closeSent && closeReceived {
					// The peer hung up right after the close exchange.
					wasClean = true
					break loop
				}
				if chunk.err == io.EOF || errors.Is(chunk.err, io.ErrUnexpectedEOF) {
					// The peer went away without a close frame.
					closeInfo = wire.CloseInfo{Code: wire.StatusAbnormalClosure}
					wasClean = false
					break loop
				}
				failure = NewTransportError("read", chunk.err)
				break loop
			}

		case cmd := <-c.commands:
			if closeSent {
				// Raced with close; the send was accepted but the close
				// frame must stay last.
				continue
			}
			frame := wire.NewMaskedFrame(cmd.op, cmd.payload)
			c.queueFrame(frame.Encode(), false)
			switch cmd.op {
			case wire.OpText:
				c.cfg.Metrics.recordMessage("out", MessageText, len(cmd.payload))
			case wire.OpBinary:
				c.cfg.Metrics.recordMessage("out", MessageBinary, len(cmd.payload))
			}

		case info := <-c.closeCh:
			if closeSent {
				continue
			}
			closeInfo = info
			c.setState(StateClosing)
			sendClose(info)
			armTimer()

		case err := <-c.writeErrCh:
			if failure == nil {
				failure = NewTransportError("write", err)
			}
			break loop

		case <-c.writeFlushed:
			closeFlushed = true
			if failure != nil {
				// The goodbye close frame is out; nothing left to wait for.
				break loop
			}
			if handshakeDone() {
				wasClean = true
				break loop
			}

		case <-timerC:
			// The peer never answered our close frame.
			stopTimer()
			if failure != nil {
				break loop
			}
			wasClean = false
			break loop
		}
	}

	stopTimer()
	c.teardown(closeInfo, wasClean, failure)
}

func (c *Conn) setState(s State) {
	c.state.Store(int32(s))
}

// teardown closes the transport and delivers the terminal event. The done
// channel closes first so pending sends fail fast and the pumps exit.
func (c *Conn) teardown(info wire.CloseInfo, wasClean bool, failure error) {
	c.setState(StateClosed)
	close(c.done)
	c.tr.Close()

	if failure != nil {
		c.logger.Warn("connection failed", "err", failure)
		c.cfg.Metrics.recordClosed(terminalCode(failure, info))
		c.dispatcher.send(event{kind: eventError, err: failure})
	} else {
		if info.Code == 0 {
			info.Code = wire.StatusAbnormalClosure
		}
		c.logger.Info("connection closed",
			"code", info.Code.String(),
			"reason", info.Reason,
			"clean", wasClean,
		)
		c.cfg.Metrics.recordClosed(info.Code)
		c.dispatcher.send(event{kind: eventClose, info: info, clean: wasClean})
	}
	close(c.dispatcher.events)
}

// terminalCode picks the close code to record for a finished connection.
func terminalCode(failure error, info wire.CloseInfo) wire.StatusCode {
	if failure == nil {
		if info.Code == 0 {
			return wire.StatusAbnormalClosure
		}
		return info.Code
	}
	var pe *ProtocolError
	if errors.As(failure, &pe) {
		return pe.Code
	}
	return wire.StatusAbnormalClosure
}
