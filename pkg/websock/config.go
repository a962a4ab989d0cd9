package websock

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/vango-dev/websock/pkg/wire"
)

// Config controls a connection. The zero value is not usable; start from
// DefaultConfig and override fields, or chain the With helpers.
type Config struct {
	// Handshake settings.

	// Subprotocols are offered in Sec-WebSocket-Protocol order.
	// Default: none
	Subprotocols []string

	// Header carries extra request headers for the upgrade. Headers owned
	// by the upgrade itself are ignored.
	// Default: none
	Header http.Header

	// Cookies are sent with the upgrade request.
	// Default: none
	Cookies []*http.Cookie

	// HandshakeTimeout bounds dialing plus the upgrade exchange.
	// Default: 30s
	HandshakeTimeout time.Duration

	// TLSConfig is used for wss URLs. ServerName is filled in from the URL
	// when empty.
	// Default: nil (standard verification)
	TLSConfig *tls.Config

	// Dial overrides how the transport is established. The context carries
	// the handshake deadline.
	// Default: net.Dialer
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	// Limits.

	// MaxMessageSize caps a reassembled incoming message. Receiving a
	// larger one fails the connection with close code 1009.
	// Default: wire.DefaultMaxMessageSize
	MaxMessageSize int

	// ReadBufferSize is the transport read chunk size.
	// Default: 4096
	ReadBufferSize int

	// SendQueueSize bounds outbound messages awaiting the transport, both
	// unprocessed sends and frames already encoded. Sends beyond it fail
	// with ErrSendQueueFull instead of blocking.
	// Default: 64
	SendQueueSize int

	// EventQueueSize bounds events awaiting the handler.
	// Default: 32
	EventQueueSize int

	// Timeouts.

	// CloseTimeout bounds the wait for the peer's close frame after ours
	// was sent. On expiry the transport is torn down.
	// Default: 5s
	CloseTimeout time.Duration

	// WriteTimeout bounds a single transport write.
	// Default: 10s
	WriteTimeout time.Duration

	// Callbacks.

	// Executor runs handler callbacks. It must preserve submission order.
	// Default: inline on the dispatch goroutine
	Executor Executor

	// Observability.

	// Logger receives connection lifecycle logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics records connection counters when set.
	// Default: nil (disabled)
	Metrics *Metrics
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout: 30 * time.Second,
		MaxMessageSize:   wire.DefaultMaxMessageSize,
		ReadBufferSize:   4096,
		SendQueueSize:    64,
		EventQueueSize:   32,
		CloseTimeout:     5 * time.Second,
		WriteTimeout:     10 * time.Second,
		Logger:           slog.Default(),
	}
}

// Clone returns a deep copy. Mutating the copy never affects the original.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	clone := *c
	if c.Subprotocols != nil {
		clone.Subprotocols = make([]string, len(c.Subprotocols))
		copy(clone.Subprotocols, c.Subprotocols)
	}
	if c.Header != nil {
		clone.Header = c.Header.Clone()
	}
	if c.Cookies != nil {
		clone.Cookies = make([]*http.Cookie, len(c.Cookies))
		copy(clone.Cookies, c.Cookies)
	}
	if c.TLSConfig != nil {
		clone.TLSConfig = c.TLSConfig.Clone()
	}
	return &clone
}

// normalize fills zero values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.MaxMessageSize > wire.HardMaxMessageSize {
		c.MaxMessageSize = wire.HardMaxMessageSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.EventQueueSize <= 0 {
		c.EventQueueSize = def.EventQueueSize
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = def.CloseTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// WithSubprotocols sets the offered subprotocols.
func (c *Config) WithSubprotocols(protocols ...string) *Config {
	c.Subprotocols = protocols
	return c
}

// WithHeader adds a request header for the upgrade.
func (c *Config) WithHeader(name, value string) *Config {
	if c.Header == nil {
		c.Header = http.Header{}
	}
	c.Header.Add(name, value)
	return c
}

// WithCookies sets the cookies sent with the upgrade request.
func (c *Config) WithCookies(cookies ...*http.Cookie) *Config {
	c.Cookies = cookies
	return c
}

// WithTLSConfig sets the TLS configuration for wss URLs.
func (c *Config) WithTLSConfig(tlsConfig *tls.Config) *Config {
	c.TLSConfig = tlsConfig
	return c
}

// WithMaxMessageSize caps reassembled incoming messages.
func (c *Config) WithMaxMessageSize(n int) *Config {
	c.MaxMessageSize = n
	return c
}

// WithExecutor sets the callback executor.
func (c *Config) WithExecutor(exec Executor) *Config {
	c.Executor = exec
	return c
}

// WithLogger sets the logger.
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}

// WithMetrics enables metrics recording.
func (c *Config) WithMetrics(m *Metrics) *Config {
	c.Metrics = m
	return c
}
