package wire

// Opcode identifies the type of a WebSocket frame.
type Opcode uint8

const (
	OpContinuation Opcode = 0x0 // Continuation of a fragmented message
	OpText         Opcode = 0x1 // UTF-8 text message
	OpBinary       Opcode = 0x2 // Binary message
	OpClose        Opcode = 0x8 // Close handshake
	OpPing         Opcode = 0x9 // Ping
	OpPong         Opcode = 0xA // Pong
)

// String returns the string representation of the opcode.
func (op Opcode) String() string {
	switch op {
	case OpContinuation:
		return "Continuation"
	case OpText:
		return "Text"
	case OpBinary:
		return "Binary"
	case OpClose:
		return "Close"
	case OpPing:
		return "Ping"
	case OpPong:
		return "Pong"
	default:
		return "Unknown"
	}
}

// IsControl returns true for control opcodes (Close, Ping, Pong).
// Per RFC 6455 §5.5 these are the opcodes with the high bit set.
func (op Opcode) IsControl() bool {
	return op&0x8 != 0
}

// IsData returns true for message-initiating opcodes (Text, Binary).
func (op Opcode) IsData() bool {
	return op == OpText || op == OpBinary
}

// IsValid returns true if the opcode is one of the six defined values.
// Reserved opcodes are a protocol error.
func (op Opcode) IsValid() bool {
	switch op {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	default:
		return false
	}
}
