package wire

import (
	"errors"
	"io"
)

// Common decoding errors.
var (
	// ErrAllocationTooLarge is returned when a length field claims more
	// bytes than the decoder's configured ceiling.
	ErrAllocationTooLarge = errors.New("wire: allocation size exceeds limit")
)

// Decoder is a binary decoder that reads from a byte buffer. A shortage of
// bytes is reported as io.ErrUnexpectedEOF so callers that accumulate a
// stream can distinguish "wait for more input" from a malformed frame.
type Decoder struct {
	buf      []byte
	pos      int
	maxAlloc int
}

// NewDecoder creates a new decoder with the default allocation ceiling.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf, maxAlloc: DefaultMaxMessageSize}
}

// NewDecoderWithLimit creates a new decoder with a custom allocation
// ceiling. Limits above HardMaxMessageSize are capped; zero or negative
// values fall back to the default.
func NewDecoderWithLimit(buf []byte, limit int) *Decoder {
	if limit <= 0 {
		limit = DefaultMaxMessageSize
	}
	if limit > HardMaxMessageSize {
		limit = HardMaxMessageSize
	}
	return &Decoder{buf: buf, maxAlloc: limit}
}

// Limit returns the decoder's allocation ceiling in bytes.
func (d *Decoder) Limit() int {
	return d.maxAlloc
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes and returns them.
// The returned slice references the decoder's buffer; do not modify.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n > d.maxAlloc {
		return nil, ErrAllocationTooLarge
	}
	if d.pos+n > len(d.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadUint16 reads a uint16 in big-endian byte order.
func (d *Decoder) ReadUint16() (uint16, error) {
	if d.pos+2 > len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := uint16(d.buf[d.pos])<<8 | uint16(d.buf[d.pos+1])
	d.pos += 2
	return v, nil
}

// ReadUint64 reads a uint64 in big-endian byte order.
func (d *Decoder) ReadUint64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := uint64(d.buf[d.pos])<<56 | uint64(d.buf[d.pos+1])<<48 |
		uint64(d.buf[d.pos+2])<<40 | uint64(d.buf[d.pos+3])<<32 |
		uint64(d.buf[d.pos+4])<<24 | uint64(d.buf[d.pos+5])<<16 |
		uint64(d.buf[d.pos+6])<<8 | uint64(d.buf[d.pos+7])
	d.pos += 8
	return v, nil
}
