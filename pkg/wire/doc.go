// Package wire implements the RFC 6455 WebSocket wire format for clients.
//
// The package is the protocol layer only: it frames and unframes bytes,
// masks payloads, computes handshake keys, and validates upgrade responses.
// It holds no connection state and performs no I/O of its own beyond the
// io.Reader/io.Writer helpers.
//
// # Frame Format
//
// Every frame starts with a 2-byte header, optionally extended (RFC 6455 §5.2):
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
// The 7-bit length field holds the payload length directly when it is
// 0..125; the value 126 means a 2-byte extended length follows, 127 an
// 8-byte extended length. The RSV bits must be zero: no extensions are
// supported, and a decoder rejects any frame that sets them.
//
// # Opcodes
//
//   - OpContinuation (0x0): continuation of a fragmented message
//   - OpText (0x1): UTF-8 text message (or its first fragment)
//   - OpBinary (0x2): binary message (or its first fragment)
//   - OpClose (0x8): close handshake frame
//   - OpPing (0x9): ping, answered with a pong carrying the same payload
//   - OpPong (0xA): pong
//
// Control frames (Close, Ping, Pong) are never fragmented and carry at
// most 125 payload bytes. Decoding enforces both rules.
//
// # Masking
//
// A client masks every frame it sends with a fresh 4-byte key drawn from
// crypto/rand; servers send unmasked frames. The transform is a byte-wise
// XOR (payload[i] ^ key[i mod 4]) and is its own inverse. Predictable keys
// are a known WebSocket weakness, so NewMaskKey never falls back to a weak
// source.
//
// # Close Payload
//
// A Close frame payload is either empty (the peer reports code 1005) or a
// big-endian uint16 status code followed by a UTF-8 reason of at most 123
// bytes. EncodeCloseInfo and DecodeCloseInfo implement both directions and
// enforce the registry rules in StatusCode.IsValidOnWire.
//
// # Handshake
//
// Handshake builds the HTTP/1.1 upgrade request and validates the 101
// response, including the Sec-WebSocket-Accept check:
//
//	accept = base64(SHA-1(key + "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"))
//
//	hs := wire.NewHandshake(u)
//	hs.Subprotocols = []string{"chat"}
//	if err := hs.WriteRequest(conn); err != nil { ... }
//	res, err := hs.ReadResponse(bufio.NewReader(conn))
//
// # Incremental Decoding
//
// DecodeFrameFrom reports io.ErrUnexpectedEOF when the buffer does not yet
// hold the complete frame. Callers accumulate bytes and retry from the end
// of the last complete frame, which is how the connection layer tolerates
// reads split mid-header or mid-payload.
//
// # File Structure
//
//   - opcode.go: frame opcodes
//   - frame.go: frame type, encoding, decoding
//   - encoder.go: append-based binary encoder
//   - decoder.go: cursor-based binary decoder with allocation limits
//   - mask.go: masking keys and the XOR transform
//   - key.go: Sec-WebSocket-Key and Sec-WebSocket-Accept
//   - status.go: close status codes and the close payload codec
//   - handshake.go: upgrade request builder and response validator
//   - limits.go: size ceilings
package wire
