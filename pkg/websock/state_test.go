package websock

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "Connecting"},
		{StateOpen, "Open"},
		{StateClosing, "Closing"},
		{StateClosed, "Closed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestMessageTypeString(t *testing.T) {
	if got := MessageText.String(); got != "Text" {
		t.Errorf("MessageText.String() = %q", got)
	}
	if got := MessageBinary.String(); got != "Binary" {
		t.Errorf("MessageBinary.String() = %q", got)
	}
	if got := MessageType(0).String(); got != "Unknown" {
		t.Errorf("MessageType(0).String() = %q", got)
	}
}
