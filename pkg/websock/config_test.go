package websock

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/vango-dev/websock/pkg/wire"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HandshakeTimeout != 30*time.Second {
		t.Errorf("HandshakeTimeout = %v, want 30s", cfg.HandshakeTimeout)
	}
	if cfg.MaxMessageSize != wire.DefaultMaxMessageSize {
		t.Errorf("MaxMessageSize = %d, want %d", cfg.MaxMessageSize, wire.DefaultMaxMessageSize)
	}
	if cfg.ReadBufferSize != 4096 {
		t.Errorf("ReadBufferSize = %d, want 4096", cfg.ReadBufferSize)
	}
	if cfg.SendQueueSize != 64 {
		t.Errorf("SendQueueSize = %d, want 64", cfg.SendQueueSize)
	}
	if cfg.EventQueueSize != 32 {
		t.Errorf("EventQueueSize = %d, want 32", cfg.EventQueueSize)
	}
	if cfg.CloseTimeout != 5*time.Second {
		t.Errorf("CloseTimeout = %v, want 5s", cfg.CloseTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger is nil")
	}
}

func TestConfigClone(t *testing.T) {
	orig := DefaultConfig().
		WithSubprotocols("chat", "superchat").
		WithHeader("X-Token", "abc").
		WithCookies(&http.Cookie{Name: "s", Value: "1"}).
		WithTLSConfig(&tls.Config{ServerName: "example.com"})

	clone := orig.Clone()

	clone.Subprotocols[0] = "changed"
	clone.Header.Set("X-Token", "changed")
	clone.Cookies[0] = &http.Cookie{Name: "s", Value: "changed"}
	clone.TLSConfig.ServerName = "changed"

	if orig.Subprotocols[0] != "chat" {
		t.Error("clone shares the subprotocol slice")
	}
	if orig.Header.Get("X-Token") != "abc" {
		t.Error("clone shares the header map")
	}
	if orig.Cookies[0].Value != "1" {
		t.Error("clone shares the cookie slice")
	}
	if orig.TLSConfig.ServerName != "example.com" {
		t.Error("clone shares the TLS config")
	}
}

func TestConfigCloneNil(t *testing.T) {
	var cfg *Config
	clone := cfg.Clone()
	if clone == nil {
		t.Fatal("Clone of nil returned nil")
	}
	if clone.SendQueueSize != 64 {
		t.Errorf("nil Clone did not pick up defaults: %+v", clone)
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := &Config{}
	cfg.normalize()

	if cfg.HandshakeTimeout != 30*time.Second {
		t.Errorf("HandshakeTimeout = %v, want 30s", cfg.HandshakeTimeout)
	}
	if cfg.MaxMessageSize != wire.DefaultMaxMessageSize {
		t.Errorf("MaxMessageSize = %d, want default", cfg.MaxMessageSize)
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestConfigNormalizeCapsMessageSize(t *testing.T) {
	cfg := &Config{MaxMessageSize: wire.HardMaxMessageSize * 2}
	cfg.normalize()
	if cfg.MaxMessageSize != wire.HardMaxMessageSize {
		t.Errorf("MaxMessageSize = %d, want capped at %d", cfg.MaxMessageSize, wire.HardMaxMessageSize)
	}
}

func TestConfigWithChaining(t *testing.T) {
	logger := slog.Default()
	m := (*Metrics)(nil)
	cfg := DefaultConfig().
		WithMaxMessageSize(1024).
		WithExecutor(func(fn func()) { fn() }).
		WithLogger(logger).
		WithMetrics(m)

	if cfg.MaxMessageSize != 1024 {
		t.Errorf("MaxMessageSize = %d, want 1024", cfg.MaxMessageSize)
	}
	if cfg.Executor == nil {
		t.Error("Executor not set")
	}
	if cfg.Logger != logger {
		t.Error("Logger not set")
	}
}
