package websock

// State is the lifecycle state of a connection.
//
// Connections move strictly forward: Connecting to Open to Closing to
// Closed. A failed handshake or a fatal error skips intermediate states and
// lands on Closed.
type State int32

const (
	// StateConnecting is the initial state, kept until the upgrade
	// handshake completes.
	StateConnecting State = iota

	// StateOpen means the handshake succeeded and messages flow.
	StateOpen

	// StateClosing means a close frame has been sent or received and the
	// close handshake is in progress.
	StateClosing

	// StateClosed is terminal. No further events are delivered.
	StateClosed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
