package wire

// Size limits guarding against hostile peers. A frame header can claim a
// payload of up to 2^63-1 bytes, so decoders must cap what they are willing
// to buffer before the bytes ever arrive.
const (
	// DefaultMaxMessageSize is the default ceiling for a single frame
	// payload and for a reassembled fragmented message (16MB).
	DefaultMaxMessageSize = 16 * 1024 * 1024

	// HardMaxMessageSize is the absolute ceiling (64MB). Even if configured
	// higher, decoders cap at this limit.
	HardMaxMessageSize = 64 * 1024 * 1024

	// MaxControlPayloadSize is the largest payload a control frame
	// (Close, Ping, Pong) may carry, per RFC 6455 §5.5.
	MaxControlPayloadSize = 125

	// MaxCloseReasonSize is the largest close reason in bytes: the control
	// payload limit minus the 2-byte status code.
	MaxCloseReasonSize = MaxControlPayloadSize - 2
)
