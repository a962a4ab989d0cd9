package websock

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/vango-dev/websock/pkg/wire"
)

// Assembly violations. Each is wrapped in a ProtocolError carrying the
// close code sent to the peer.
var (
	errMaskedServerFrame      = errors.New("websock: received a masked frame from the server")
	errUnexpectedContinuation = errors.New("websock: continuation frame without a message in progress")
	errInterleavedDataFrame   = errors.New("websock: new data frame in the middle of a fragmented message")
	errMessageTooLarge        = errors.New("websock: reassembled message exceeds the size limit")
	errInvalidTextPayload     = errors.New("websock: text message is not valid UTF-8")
)

// inbound is one item produced by the assembler: a completed data message
// or a control frame passed through as it arrived.
type inbound struct {
	msg  *Message
	ctrl *wire.Frame
}

// assembler turns a byte stream into messages and control frames. It keeps
// partial frames across pushes and partial messages across frames. Control
// frames surface immediately, including between fragments of a data
// message, and never disturb the fragment in progress.
type assembler struct {
	buf     []byte
	maxSize int

	msgType MessageType // pending fragmented message type, zero when none
	msgBuf  []byte
}

func newAssembler(maxSize int) *assembler {
	return &assembler{maxSize: maxSize}
}

// push appends received bytes and returns every item that completed, in
// arrival order. A non-nil error is a protocol violation and is fatal for
// the connection; items decoded before the violation are still returned.
func (a *assembler) push(data []byte) ([]inbound, error) {
	a.buf = append(a.buf, data...)

	var items []inbound
	consumed := 0
	d := wire.NewDecoderWithLimit(a.buf, a.maxSize)
	for !d.EOF() {
		f, err := wire.DecodeFrameFrom(d)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// The rest of the frame has not arrived yet.
			break
		}
		if err != nil {
			return items, decodeViolation(err)
		}
		consumed = d.Position()

		item, err := a.accept(f)
		if err != nil {
			return items, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}

	if consumed > 0 {
		a.buf = append(a.buf[:0], a.buf[consumed:]...)
	}
	return items, nil
}

// pending reports whether a fragmented message is in progress.
func (a *assembler) pending() bool {
	return a.msgType != 0
}

// buffered returns the number of undecoded bytes held.
func (a *assembler) buffered() int {
	return len(a.buf)
}

func (a *assembler) accept(f *wire.Frame) (*inbound, error) {
	// RFC 6455 §5.1: a client must fail the connection on a masked
	// server frame.
	if f.Masked {
		return nil, NewProtocolError(wire.StatusProtocolError, errMaskedServerFrame)
	}

	if f.Opcode.IsControl() {
		return &inbound{ctrl: f}, nil
	}

	if f.Opcode == wire.OpContinuation {
		if !a.pending() {
			return nil, NewProtocolError(wire.StatusProtocolError, errUnexpectedContinuation)
		}
		a.msgBuf = append(a.msgBuf, f.Payload...)
		if err := a.checkSize(); err != nil {
			return nil, err
		}
		if !f.Fin {
			return nil, nil
		}
		typ, payload := a.msgType, a.msgBuf
		a.msgType, a.msgBuf = 0, nil
		return a.complete(typ, payload)
	}

	// Text or binary.
	if a.pending() {
		return nil, NewProtocolError(wire.StatusProtocolError, errInterleavedDataFrame)
	}
	typ := MessageText
	if f.Opcode == wire.OpBinary {
		typ = MessageBinary
	}
	if f.Fin {
		return a.complete(typ, f.Payload)
	}
	a.msgType = typ
	a.msgBuf = append([]byte(nil), f.Payload...)
	return nil, a.checkSize()
}

func (a *assembler) checkSize() error {
	if len(a.msgBuf) > a.maxSize {
		return NewProtocolError(wire.StatusMessageTooBig, errMessageTooLarge)
	}
	return nil
}

func (a *assembler) complete(typ MessageType, payload []byte) (*inbound, error) {
	if typ == MessageText && !utf8.Valid(payload) {
		return nil, NewProtocolError(wire.StatusInvalidFramePayloadData, errInvalidTextPayload)
	}
	return &inbound{msg: &Message{Type: typ, Data: payload}}, nil
}

// decodeViolation maps a frame decoding error to the close code it earns.
func decodeViolation(err error) *ProtocolError {
	switch {
	case errors.Is(err, wire.ErrFrameTooLarge), errors.Is(err, wire.ErrAllocationTooLarge):
		return NewProtocolError(wire.StatusMessageTooBig, err)
	default:
		return NewProtocolError(wire.StatusProtocolError, err)
	}
}

// readChunk is one transport read handed to the run loop. A chunk may carry
// both data and the error that ended the stream.
type readChunk struct {
	data []byte
	err  error
}

// readPump owns transport reads. It forwards chunks to the run loop and
// exits after forwarding the first read error.
func (c *Conn) readPump() {
	buf := make([]byte, c.cfg.ReadBufferSize)
	for {
		n, err := c.br.Read(buf)
		if n > 0 || err != nil {
			chunk := readChunk{err: err}
			if n > 0 {
				chunk.data = append([]byte(nil), buf[:n]...)
			}
			select {
			case c.readCh <- chunk:
			case <-c.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
