package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Handshake errors.
var (
	ErrBadHandshakeStatus  = errors.New("wire: handshake response status is not 101")
	ErrBadUpgradeHeader    = errors.New("wire: handshake response missing Upgrade: websocket")
	ErrBadConnectionHeader = errors.New("wire: handshake response missing Connection: Upgrade")
	ErrAcceptMismatch      = errors.New("wire: Sec-WebSocket-Accept does not match the key")
	ErrSubprotocolMismatch = errors.New("wire: server selected a subprotocol that was not offered")
)

// Handshake holds the client side of an HTTP upgrade exchange. The same
// value writes the request and validates the response, so the random key
// and the accept check always agree.
type Handshake struct {
	URL          *url.URL
	Key          string
	Subprotocols []string

	// Header carries extra request headers. Names that the upgrade itself
	// owns (Upgrade, Connection, the Sec-WebSocket-* family, Host, Cookie)
	// are skipped.
	Header http.Header

	// Cookies are sent in a single Cookie header, semicolon separated.
	Cookies []*http.Cookie
}

// HandshakeResult holds what the server answered. StatusCode and Header are
// populated even when validation fails, so callers can report what the
// server actually said.
type HandshakeResult struct {
	StatusCode  int
	Header      http.Header
	Subprotocol string
}

// NewHandshake creates a handshake for the given URL with a fresh random key.
func NewHandshake(u *url.URL) *Handshake {
	return &Handshake{URL: u, Key: NewKey()}
}

// WriteRequest writes the upgrade request head. The request line uses the
// URL's path and query; the Host header elides default ports.
func (h *Handshake) WriteRequest(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", h.URL.RequestURI())
	fmt.Fprintf(&b, "Host: %s\r\n", hostHeader(h.URL))
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", h.Key)
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	if len(h.Subprotocols) > 0 {
		fmt.Fprintf(&b, "Sec-WebSocket-Protocol: %s\r\n", strings.Join(h.Subprotocols, ", "))
	}
	if len(h.Cookies) > 0 {
		pairs := make([]string, 0, len(h.Cookies))
		for _, c := range h.Cookies {
			pairs = append(pairs, c.Name+"="+c.Value)
		}
		fmt.Fprintf(&b, "Cookie: %s\r\n", strings.Join(pairs, "; "))
	}
	for name, values := range h.Header {
		if isReservedHeader(name) {
			continue
		}
		for _, v := range values {
			fmt.Fprintf(&b, "%s: %s\r\n", name, v)
		}
	}
	b.WriteString("\r\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// ReadResponse reads and validates the server's upgrade response. On
// success the reader is positioned at the first byte after the response
// head; bytes the server sent beyond it are frames and stay buffered in br,
// so the caller must keep reading the connection through br.
//
// The returned result is non-nil whenever a response head was parsed, even
// if validation failed.
func (h *Handshake) ReadResponse(br *bufio.Reader) (*HandshakeResult, error) {
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		return nil, err
	}
	res := &HandshakeResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return res, ErrBadHandshakeStatus
	}
	if !headerContainsToken(resp.Header, "Upgrade", "websocket") {
		return res, ErrBadUpgradeHeader
	}
	if !headerContainsToken(resp.Header, "Connection", "upgrade") {
		return res, ErrBadConnectionHeader
	}
	if resp.Header.Get("Sec-WebSocket-Accept") != AcceptKey(h.Key) {
		return res, ErrAcceptMismatch
	}
	if proto := resp.Header.Get("Sec-WebSocket-Protocol"); proto != "" {
		if !containsFold(h.Subprotocols, proto) {
			return res, ErrSubprotocolMismatch
		}
		res.Subprotocol = proto
	}
	return res, nil
}

// hostHeader formats the Host header value, dropping the port when it is
// the default for the scheme.
func hostHeader(u *url.URL) string {
	port := u.Port()
	if port == "" {
		return u.Host
	}
	def := port == "80" && (u.Scheme == "ws" || u.Scheme == "http") ||
		port == "443" && (u.Scheme == "wss" || u.Scheme == "https")
	if !def {
		return u.Host
	}
	host := u.Hostname()
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

func isReservedHeader(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Upgrade", "Connection", "Host", "Cookie",
		"Sec-Websocket-Key", "Sec-Websocket-Version",
		"Sec-Websocket-Protocol", "Sec-Websocket-Extensions",
		"Sec-Websocket-Accept":
		return true
	}
	return false
}

// headerContainsToken reports whether any value of the named header
// contains the token in its comma-separated list, case-insensitively.
func headerContainsToken(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
