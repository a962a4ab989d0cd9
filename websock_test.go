package websock

import (
	"errors"
	"testing"

	corewebsock "github.com/vango-dev/websock/pkg/websock"
	"github.com/vango-dev/websock/pkg/wire"
)

// =============================================================================
// Alias Tests
// =============================================================================

func TestConfigIsCoreConfig(t *testing.T) {
	// This assignment only compiles if the types are identical.
	var cfg *Config = corewebsock.DefaultConfig()
	if cfg.HandshakeTimeout == 0 {
		t.Error("DefaultConfig has no handshake timeout")
	}
}

func TestCloseInfoIsWireCloseInfo(t *testing.T) {
	var info CloseInfo = wire.CloseInfo{Code: wire.StatusNormalClosure, Reason: "done"}
	if info.Code != StatusNormalClosure {
		t.Errorf("code = %v, want re-exported normal closure", info.Code)
	}
}

func TestStateConstants(t *testing.T) {
	if StateConnecting != corewebsock.StateConnecting ||
		StateOpen != corewebsock.StateOpen ||
		StateClosing != corewebsock.StateClosing ||
		StateClosed != corewebsock.StateClosed {
		t.Error("state constants do not match the core package")
	}
}

func TestStatusConstants(t *testing.T) {
	pairs := []struct {
		got  StatusCode
		want wire.StatusCode
	}{
		{StatusNormalClosure, wire.StatusNormalClosure},
		{StatusGoingAway, wire.StatusGoingAway},
		{StatusProtocolError, wire.StatusProtocolError},
		{StatusNoStatusReceived, wire.StatusNoStatusReceived},
		{StatusAbnormalClosure, wire.StatusAbnormalClosure},
		{StatusMessageTooBig, wire.StatusMessageTooBig},
	}
	for _, p := range pairs {
		if p.got != p.want {
			t.Errorf("status re-export %v != %v", p.got, p.want)
		}
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestErrorIdentity(t *testing.T) {
	if !errors.Is(ErrClosed, corewebsock.ErrClosed) {
		t.Error("ErrClosed is not the core sentinel")
	}
	if !errors.Is(ErrSendQueueFull, corewebsock.ErrSendQueueFull) {
		t.Error("ErrSendQueueFull is not the core sentinel")
	}
}

func TestErrorTypesMatch(t *testing.T) {
	err := corewebsock.NewProtocolError(wire.StatusProtocolError, wire.ErrReservedBits)
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatal("core ProtocolError does not match the re-exported type")
	}
	if pe.Code != StatusProtocolError {
		t.Errorf("code = %v, want 1002", pe.Code)
	}
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewConnValidation(t *testing.T) {
	if _, err := NewConn("ftp://example.com", &HandlerFuncs{}, nil); !errors.Is(err, ErrBadScheme) {
		t.Errorf("ftp scheme = %v, want ErrBadScheme", err)
	}
	if _, err := NewConn("ws://example.com", nil, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler = %v, want ErrNilHandler", err)
	}
}

func TestNewConnSchemes(t *testing.T) {
	for _, raw := range []string{"ws://example.com/a", "wss://example.com/a", "http://example.com/a", "https://example.com/a"} {
		c, err := NewConn(raw, &HandlerFuncs{}, nil)
		if err != nil {
			t.Errorf("NewConn(%q) = %v", raw, err)
			continue
		}
		if got := c.State(); got != StateConnecting {
			t.Errorf("NewConn(%q).State() = %v, want Connecting", raw, got)
		}
	}
}

func TestHandlerFuncsThroughFacade(t *testing.T) {
	var h Handler = &HandlerFuncs{}
	h.OnOpen(nil)
	h.OnMessage(nil, Message{Type: MessageText, Data: []byte("x")})
	h.OnClose(nil, CloseInfo{Code: StatusNormalClosure}, true)
	h.OnError(nil, errors.New("x"))
}
