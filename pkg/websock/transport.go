package websock

import (
	"context"
	"crypto/tls"
	"net"
	"net/url"
	"time"
)

// Transport is the byte stream a connection runs on. Every net.Conn
// satisfies it; tests substitute net.Pipe ends.
type Transport interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	RemoteAddr() net.Addr
	SetWriteDeadline(t time.Time) error
}

// dialTransport establishes the TCP transport for a URL, wrapped in TLS for
// wss. The context bounds both the dial and the TLS handshake.
func dialTransport(ctx context.Context, cfg *Config, u *url.URL) (Transport, error) {
	addr := hostPort(u)

	dial := cfg.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, NewTransportError("dial", err)
	}
	if u.Scheme != "wss" {
		return conn, nil
	}

	tlsCfg := cfg.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{}
	} else {
		tlsCfg = tlsCfg.Clone()
	}
	if tlsCfg.ServerName == "" {
		tlsCfg.ServerName = u.Hostname()
	}

	tlsConn := tls.Client(conn, tlsCfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, NewTransportError("tls handshake", err)
	}
	return tlsConn, nil
}

// hostPort returns the dial address, filling in the scheme's default port.
func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		if u.Scheme == "wss" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
