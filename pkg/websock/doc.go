// Package websock implements the client side of the WebSocket protocol
// (RFC 6455): the HTTP upgrade handshake, the connection state machine,
// incremental message reassembly, the close handshake, and ordered event
// dispatch. Framing lives in the wire package; this package turns frames
// into a connection.
//
// # Architecture
//
// Every connection runs four goroutines around a central run loop:
//
//	                      read chunks
//	┌───────────┐       ┌────────────┐  events   ┌────────────┐
//	│ readPump  │──────▶│            │──────────▶│ dispatcher │──▶ Handler
//	└───────────┘       │  run loop  │           └────────────┘
//	  Send*/Close ─────▶│            │
//	                    └─────┬──────┘
//	                          │ encoded frames (FIFO)
//	                    ┌─────▼──────┐
//	                    │ writePump  │──▶ transport
//	                    └────────────┘
//
// The run loop is the only goroutine that touches the assembler and the
// close bookkeeping, so the protocol state machine is single-threaded.
// The pumps do blocking transport io and nothing else. The dispatcher
// serializes handler callbacks in event order; a slow handler slows the
// connection down instead of reordering or dropping events.
//
// # Lifecycle
//
//	conn, err := websock.NewConn("wss://example.com/chat", handler, nil)
//	if err != nil { ... }
//	if err := conn.Open(ctx); err != nil { ... }
//	conn.SendText("hello")
//	conn.Close()
//	<-conn.Done()
//
// A connection dials exactly once. The handler sees OnOpen, then any number
// of OnMessage/OnPing/OnPong, then exactly one terminal callback: OnClose
// after a close handshake (clean) or a peer disappearing (code 1006, not
// clean), OnError after a handshake failure, a protocol violation by the
// peer, or a transport failure.
//
// # Sending
//
// Sends never block. They fail with ErrNotOpen before the handshake,
// ErrClosed once closing has begun, and ErrSendQueueFull when the consumer
// outpaces the transport; a full queue drops that send and nothing else.
//
// # Closing
//
// Close and CloseWith start the close handshake: a close frame goes out,
// and the connection waits up to Config.CloseTimeout for the peer's close
// frame before tearing the transport down. Whichever side's close frame is
// first determines the reported code. Protocol violations send the peer a
// best-effort close frame (1002, 1007 or 1009) before failing.
//
// # File Structure
//
//   - state.go: lifecycle states
//   - config.go: Config, defaults, With* helpers
//   - errors.go: sentinel and typed errors
//   - events.go: Handler, Message, Executor
//   - dispatch.go: ordered event dispatcher
//   - dial.go: NewConn, Dial, Open
//   - transport.go: Transport, TCP/TLS dialing
//   - conn.go: Conn, run loop, close handshake
//   - reader.go: assembler, readPump
//   - writer.go: outbound queue, writePump
//   - metrics.go: Prometheus collectors
//   - trace.go: OpenTelemetry spans
package websock
