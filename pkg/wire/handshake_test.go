package wire

import (
	"bufio"
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// rfcSampleKey and rfcSampleAccept are the worked pair from RFC 6455 §1.3.
const (
	rfcSampleKey    = "dGhlIHNhbXBsZSBub25jZQ=="
	rfcSampleAccept = "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestWriteRequest(t *testing.T) {
	h := &Handshake{
		URL:          mustParseURL(t, "ws://example.com/chat?room=42"),
		Key:          rfcSampleKey,
		Subprotocols: []string{"chat", "superchat"},
		Header: http.Header{
			"X-Api-Token": []string{"secret"},
		},
		Cookies: []*http.Cookie{
			{Name: "session", Value: "abc"},
			{Name: "theme", Value: "dark"},
		},
	}

	var buf bytes.Buffer
	if err := h.WriteRequest(&buf); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}

	req, err := http.ReadRequest(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("request does not parse: %v", err)
	}

	if req.Method != http.MethodGet {
		t.Errorf("method = %q, want GET", req.Method)
	}
	if req.RequestURI != "/chat?room=42" {
		t.Errorf("request URI = %q, want /chat?room=42", req.RequestURI)
	}
	if req.Host != "example.com" {
		t.Errorf("Host = %q, want example.com", req.Host)
	}
	if got := req.Header.Get("Upgrade"); got != "websocket" {
		t.Errorf("Upgrade = %q, want websocket", got)
	}
	if got := req.Header.Get("Connection"); got != "Upgrade" {
		t.Errorf("Connection = %q, want Upgrade", got)
	}
	if got := req.Header.Get("Sec-WebSocket-Key"); got != rfcSampleKey {
		t.Errorf("Sec-WebSocket-Key = %q, want %q", got, rfcSampleKey)
	}
	if got := req.Header.Get("Sec-WebSocket-Version"); got != "13" {
		t.Errorf("Sec-WebSocket-Version = %q, want 13", got)
	}
	if got := req.Header.Get("Sec-WebSocket-Protocol"); got != "chat, superchat" {
		t.Errorf("Sec-WebSocket-Protocol = %q, want \"chat, superchat\"", got)
	}
	if got := req.Header.Get("X-Api-Token"); got != "secret" {
		t.Errorf("X-Api-Token = %q, want secret", got)
	}
	if got := req.Header.Get("Cookie"); got != "session=abc; theme=dark" {
		t.Errorf("Cookie = %q, want \"session=abc; theme=dark\"", got)
	}
}

func TestWriteRequestDefaultPath(t *testing.T) {
	h := NewHandshake(mustParseURL(t, "ws://example.com"))
	var buf bytes.Buffer
	if err := h.WriteRequest(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "GET / HTTP/1.1\r\n") {
		t.Errorf("request line = %q, want GET / HTTP/1.1", firstLine(buf.String()))
	}
}

func TestWriteRequestHostHeader(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"ws://example.com/", "example.com"},
		{"ws://example.com:80/", "example.com"},
		{"ws://example.com:8080/", "example.com:8080"},
		{"wss://example.com:443/", "example.com"},
		{"wss://example.com:80/", "example.com:80"},
		{"ws://example.com:443/", "example.com:443"},
		{"wss://[::1]:443/", "[::1]"},
		{"ws://[::1]:9000/", "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			h := NewHandshake(mustParseURL(t, tt.url))
			var buf bytes.Buffer
			if err := h.WriteRequest(&buf); err != nil {
				t.Fatal(err)
			}
			req, err := http.ReadRequest(bufio.NewReader(&buf))
			if err != nil {
				t.Fatalf("request does not parse: %v", err)
			}
			if req.Host != tt.want {
				t.Errorf("Host = %q, want %q", req.Host, tt.want)
			}
		})
	}
}

func TestWriteRequestSkipsReservedHeaders(t *testing.T) {
	h := NewHandshake(mustParseURL(t, "ws://example.com/"))
	h.Header = http.Header{
		"Upgrade":                  []string{"h2c"},
		"Connection":               []string{"close"},
		"Sec-Websocket-Key":        []string{"forged"},
		"Sec-Websocket-Extensions": []string{"permessage-deflate"},
		"X-Custom":                 []string{"kept"},
	}

	var buf bytes.Buffer
	if err := h.WriteRequest(&buf); err != nil {
		t.Fatal(err)
	}
	req, err := http.ReadRequest(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}

	if got := req.Header.Get("Upgrade"); got != "websocket" {
		t.Errorf("Upgrade overridden to %q", got)
	}
	if got := req.Header.Get("Sec-WebSocket-Key"); got != h.Key {
		t.Errorf("key overridden to %q", got)
	}
	if req.Header.Get("Sec-Websocket-Extensions") != "" {
		t.Error("extensions header leaked into the request")
	}
	if got := req.Header.Get("X-Custom"); got != "kept" {
		t.Errorf("X-Custom = %q, want kept", got)
	}
}

func TestReadResponse(t *testing.T) {
	const okResponse = "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
		"\r\n"

	tests := []struct {
		name     string
		offered  []string
		raw      string
		wantErr  error
		wantCode int
	}{
		{
			name:     "valid upgrade",
			raw:      okResponse,
			wantCode: 101,
		},
		{
			name: "mixed-case tokens accepted",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: WebSocket\r\n" +
				"Connection: keep-alive, Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
				"\r\n",
			wantCode: 101,
		},
		{
			name: "plain 200 rejected",
			raw: "HTTP/1.1 200 OK\r\n" +
				"Content-Length: 0\r\n" +
				"\r\n",
			wantErr:  ErrBadHandshakeStatus,
			wantCode: 200,
		},
		{
			name: "401 rejected",
			raw: "HTTP/1.1 401 Unauthorized\r\n" +
				"Content-Length: 0\r\n" +
				"\r\n",
			wantErr:  ErrBadHandshakeStatus,
			wantCode: 401,
		},
		{
			name: "missing upgrade header",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
				"\r\n",
			wantErr:  ErrBadUpgradeHeader,
			wantCode: 101,
		},
		{
			name: "missing connection header",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
				"\r\n",
			wantErr:  ErrBadConnectionHeader,
			wantCode: 101,
		},
		{
			name: "wrong accept key",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: AAAAAAAAAAAAAAAAAAAAAAAAAAA=\r\n" +
				"\r\n",
			wantErr:  ErrAcceptMismatch,
			wantCode: 101,
		},
		{
			name:    "unoffered subprotocol",
			offered: []string{"chat"},
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
				"Sec-WebSocket-Protocol: video\r\n" +
				"\r\n",
			wantErr:  ErrSubprotocolMismatch,
			wantCode: 101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handshake{
				URL:          mustParseURL(t, "ws://example.com/"),
				Key:          rfcSampleKey,
				Subprotocols: tt.offered,
			}
			res, err := h.ReadResponse(bufio.NewReader(strings.NewReader(tt.raw)))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if res == nil {
				t.Fatal("result is nil for a parseable response")
			}
			if res.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tt.wantCode)
			}
		})
	}
}

func TestReadResponseSelectsSubprotocol(t *testing.T) {
	raw := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
		"Sec-WebSocket-Protocol: superchat\r\n" +
		"\r\n"

	h := &Handshake{
		URL:          mustParseURL(t, "ws://example.com/"),
		Key:          rfcSampleKey,
		Subprotocols: []string{"chat", "superchat"},
	}
	res, err := h.ReadResponse(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if res.Subprotocol != "superchat" {
		t.Errorf("Subprotocol = %q, want superchat", res.Subprotocol)
	}
}

func TestReadResponseKeepsEarlyFramesBuffered(t *testing.T) {
	// Servers may start sending frames immediately after the 101. Those
	// bytes land in the bufio.Reader and must survive the response parse.
	raw := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + rfcSampleAccept + "\r\n" +
		"\r\n"
	early := NewFrame(OpText, []byte("welcome")).Encode()

	h := &Handshake{URL: mustParseURL(t, "ws://example.com/"), Key: rfcSampleKey}
	br := bufio.NewReader(strings.NewReader(raw + string(early)))
	if _, err := h.ReadResponse(br); err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}

	f, err := ReadFrame(br)
	if err != nil {
		t.Fatalf("ReadFrame after handshake: %v", err)
	}
	if f.Opcode != OpText || string(f.Payload) != "welcome" {
		t.Errorf("early frame = %v %q", f.Opcode, f.Payload)
	}
}

func firstLine(s string) string {
	if i := strings.Index(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
