package wire

import (
	"errors"
	"io"
)

// Frame header layout constants.
const (
	finBit     = 0x80
	rsvMask    = 0x70
	opcodeMask = 0x0F
	maskBit    = 0x80
	lengthMask = 0x7F

	// len16Marker and len64Marker are the 7-bit length values signalling
	// that a 2-byte or 8-byte extended length field follows.
	len16Marker = 126
	len64Marker = 127

	// MinHeaderSize is the smallest possible frame header.
	MinHeaderSize = 2

	// MaxHeaderSize is the largest possible frame header: 2 base bytes,
	// 8 bytes of extended length, 4 bytes of masking key.
	MaxHeaderSize = 14
)

// Frame errors.
var (
	ErrFrameTooLarge   = errors.New("wire: frame payload too large")
	ErrReservedBits    = errors.New("wire: reserved bits set")
	ErrUnknownOpcode   = errors.New("wire: unknown opcode")
	ErrControlNotFinal = errors.New("wire: fragmented control frame")
	ErrControlTooLong  = errors.New("wire: control frame payload exceeds 125 bytes")
	ErrInvalidLength   = errors.New("wire: invalid payload length")
)

// Frame represents a single WebSocket frame.
//
// Wire format (RFC 6455 §5.2):
//
//	┌───────────────┬───────────────┬─────────────────────────────────┐
//	│ FIN|RSV|opcode│ MASK|length   │ extended length (0, 2, 8 bytes) │
//	│ (1 byte)      │ (1 byte)      │ big-endian                      │
//	├───────────────┴───────────────┴─────────────────────────────────┤
//	│ masking key (4 bytes, present when MASK=1)                      │
//	├─────────────────────────────────────────────────────────────────┤
//	│ payload (masked byte-by-byte with the key when MASK=1)          │
//	└─────────────────────────────────────────────────────────────────┘
//
// Payload always holds the unmasked bytes; masking is applied during
// encoding and removed during decoding.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// Validate checks the frame against the RFC 6455 framing rules that do not
// depend on connection role: known opcode, and control frames final with at
// most 125 payload bytes.
func (f *Frame) Validate() error {
	if !f.Opcode.IsValid() {
		return ErrUnknownOpcode
	}
	if f.Opcode.IsControl() {
		if !f.Fin {
			return ErrControlNotFinal
		}
		if len(f.Payload) > MaxControlPayloadSize {
			return ErrControlTooLong
		}
	}
	return nil
}

// EncodeTo encodes the frame using the provided encoder.
// The payload slice is not modified even when the frame is masked.
func (f *Frame) EncodeTo(e *Encoder) {
	b0 := byte(f.Opcode) & opcodeMask
	if f.Fin {
		b0 |= finBit
	}
	e.WriteByte(b0)

	var b1 byte
	if f.Masked {
		b1 = maskBit
	}
	length := len(f.Payload)
	switch {
	case length <= 125:
		e.WriteByte(b1 | byte(length))
	case length <= 65535:
		e.WriteByte(b1 | len16Marker)
		e.WriteUint16(uint16(length))
	default:
		e.WriteByte(b1 | len64Marker)
		e.WriteUint64(uint64(length))
	}

	if f.Masked {
		e.WriteBytes(f.MaskKey[:])
		e.WriteMasked(f.MaskKey, f.Payload)
	} else {
		e.WriteBytes(f.Payload)
	}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	e := NewEncoderWithCap(MaxHeaderSize + len(f.Payload))
	f.EncodeTo(e)
	return e.Bytes()
}

// DecodeFrame decodes a frame from bytes using the default size limit.
// The input must contain the complete frame; io.ErrUnexpectedEOF is
// returned otherwise.
func DecodeFrame(data []byte) (*Frame, error) {
	return DecodeFrameFrom(NewDecoder(data))
}

// DecodeFrameFrom decodes a frame from a decoder. On success the decoder
// position sits immediately after the frame, so callers draining a stream
// can decode frames back to back. A byte shortage is reported as
// io.ErrUnexpectedEOF without any protocol judgement: the caller may simply
// not have received the rest of the frame yet.
func DecodeFrameFrom(d *Decoder) (*Frame, error) {
	b0, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	fin := b0&finBit != 0
	if b0&rsvMask != 0 {
		return nil, ErrReservedBits
	}
	opcode := Opcode(b0 & opcodeMask)
	if !opcode.IsValid() {
		return nil, ErrUnknownOpcode
	}

	b1, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	masked := b1&maskBit != 0
	len7 := b1 & lengthMask

	if opcode.IsControl() {
		if !fin {
			return nil, ErrControlNotFinal
		}
		if len7 > MaxControlPayloadSize {
			return nil, ErrControlTooLong
		}
	}

	var length uint64
	switch len7 {
	case len16Marker:
		v, err := d.ReadUint16()
		if err != nil {
			return nil, err
		}
		length = uint64(v)
	case len64Marker:
		v, err := d.ReadUint64()
		if err != nil {
			return nil, err
		}
		// RFC 6455 §5.2: the most significant bit must be 0.
		if v>>63 != 0 {
			return nil, ErrInvalidLength
		}
		length = v
	default:
		length = uint64(len7)
	}

	// Reject oversized claims before waiting for the bytes to arrive.
	if length > uint64(d.Limit()) {
		return nil, ErrFrameTooLarge
	}

	f := &Frame{Fin: fin, Opcode: opcode, Masked: masked}
	if masked {
		kb, err := d.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		copy(f.MaskKey[:], kb)
	}

	raw, err := d.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	f.Payload = make([]byte, length)
	copy(f.Payload, raw)
	if masked {
		maskBytes(f.MaskKey, f.Payload)
	}
	return f, nil
}

// ReadFrame reads a complete frame from an io.Reader, blocking until the
// frame is fully received. The payload is capped at HardMaxMessageSize.
func ReadFrame(r io.Reader) (*Frame, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	fin := hdr[0]&finBit != 0
	if hdr[0]&rsvMask != 0 {
		return nil, ErrReservedBits
	}
	opcode := Opcode(hdr[0] & opcodeMask)
	if !opcode.IsValid() {
		return nil, ErrUnknownOpcode
	}
	masked := hdr[1]&maskBit != 0
	len7 := hdr[1] & lengthMask

	if opcode.IsControl() {
		if !fin {
			return nil, ErrControlNotFinal
		}
		if len7 > MaxControlPayloadSize {
			return nil, ErrControlTooLong
		}
	}

	var length uint64
	switch len7 {
	case len16Marker:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		length = uint64(ext[0])<<8 | uint64(ext[1])
	case len64Marker:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		for _, b := range ext {
			length = length<<8 | uint64(b)
		}
		if length>>63 != 0 {
			return nil, ErrInvalidLength
		}
	default:
		length = uint64(len7)
	}

	if length > HardMaxMessageSize {
		return nil, ErrFrameTooLarge
	}

	f := &Frame{Fin: fin, Opcode: opcode, Masked: masked}
	if masked {
		if _, err := io.ReadFull(r, f.MaskKey[:]); err != nil {
			return nil, err
		}
	}

	f.Payload = make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return nil, err
		}
	}
	if masked {
		maskBytes(f.MaskKey, f.Payload)
	}
	return f, nil
}

// WriteFrame validates and writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	_, err := w.Write(f.Encode())
	return err
}

// NewFrame creates an unmasked final frame with the given opcode and payload.
func NewFrame(op Opcode, payload []byte) *Frame {
	return &Frame{
		Fin:     true,
		Opcode:  op,
		Payload: payload,
	}
}

// NewMaskedFrame creates a final frame masked with a fresh random key, as
// required for every client-originated frame.
func NewMaskedFrame(op Opcode, payload []byte) *Frame {
	return &Frame{
		Fin:     true,
		Opcode:  op,
		Masked:  true,
		MaskKey: NewMaskKey(),
		Payload: payload,
	}
}
