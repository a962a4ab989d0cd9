package integration_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/vango-dev/websock"
)

// events collects handler callbacks for assertions on the test goroutine.
type events struct {
	msgs   chan ws.Message
	pings  chan []byte
	pongs  chan []byte
	closes chan ws.CloseInfo
	errs   chan error
}

func newEvents() *events {
	return &events{
		msgs:   make(chan ws.Message, 64),
		pings:  make(chan []byte, 8),
		pongs:  make(chan []byte, 8),
		closes: make(chan ws.CloseInfo, 1),
		errs:   make(chan error, 1),
	}
}

func (e *events) handler() ws.HandlerFuncs {
	return ws.HandlerFuncs{
		Message: func(c *ws.Conn, msg ws.Message) { e.msgs <- msg },
		Ping:    func(c *ws.Conn, payload []byte) { e.pings <- append([]byte(nil), payload...) },
		Pong:    func(c *ws.Conn, payload []byte) { e.pongs <- append([]byte(nil), payload...) },
		Close:   func(c *ws.Conn, ci ws.CloseInfo, wasClean bool) { e.closes <- ci },
		Error:   func(c *ws.Conn, err error) { e.errs <- err },
	}
}

func quietConfig() *ws.Config {
	cfg := ws.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

// dialServer connects a client to an httptest server. The http URL is
// accepted directly; the engine normalizes the scheme.
func dialServer(t *testing.T, srv *httptest.Server, ev *events, cfg *ws.Config) *ws.Conn {
	t.Helper()
	if cfg == nil {
		cfg = quietConfig()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := ws.Dial(ctx, srv.URL, ev.handler(), cfg)
	if err != nil {
		t.Fatalf("dial %s: %v", srv.URL, err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		select {
		case <-conn.Done():
		case <-time.After(5 * time.Second):
		}
	})
	return conn
}

func recvMessage(t *testing.T, ev *events) ws.Message {
	t.Helper()
	select {
	case msg := <-ev.msgs:
		return msg
	case err := <-ev.errs:
		t.Fatalf("connection failed while waiting for a message: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return ws.Message{}
}

func recvClose(t *testing.T, ev *events) ws.CloseInfo {
	t.Helper()
	select {
	case ci := <-ev.closes:
		return ci
	case err := <-ev.errs:
		t.Fatalf("connection failed while waiting for close: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for close")
	}
	return ws.CloseInfo{}
}

// echoServer upgrades with gorilla/websocket and echoes data messages.
func echoServer(t *testing.T, upgrader websocket.Upgrader) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGorillaEchoRoundTrip(t *testing.T) {
	srv := echoServer(t, websocket.Upgrader{})
	ev := newEvents()
	conn := dialServer(t, srv, ev, nil)

	if err := conn.SendText("hello interop"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	msg := recvMessage(t, ev)
	if msg.Type != ws.MessageText || string(msg.Data) != "hello interop" {
		t.Errorf("echo = %v %q", msg.Type, msg.Data)
	}

	payload := []byte{0x00, 0x01, 0xFE, 0xFF}
	if err := conn.SendBinary(payload); err != nil {
		t.Fatalf("SendBinary: %v", err)
	}
	msg = recvMessage(t, ev)
	if msg.Type != ws.MessageBinary || !bytes.Equal(msg.Data, payload) {
		t.Errorf("binary echo = %v %v", msg.Type, msg.Data)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	ci := recvClose(t, ev)
	if ci.Code != ws.StatusNormalClosure {
		t.Errorf("close code = %d, want %d", ci.Code, ws.StatusNormalClosure)
	}
}

func TestGorillaSubprotocolNegotiation(t *testing.T) {
	srv := echoServer(t, websocket.Upgrader{
		Subprotocols: []string{"superchat"},
	})

	cfg := quietConfig()
	cfg.Subprotocols = []string{"chat", "superchat"}
	ev := newEvents()
	conn := dialServer(t, srv, ev, cfg)

	if got := conn.Subprotocol(); got != "superchat" {
		t.Errorf("Subprotocol() = %q, want %q", got, "superchat")
	}
}

func TestGorillaServerPing(t *testing.T) {
	pongs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		conn.SetPongHandler(func(appData string) error {
			select {
			case pongs <- appData:
			default:
			}
			return nil
		})
		deadline := time.Now().Add(5 * time.Second)
		if err := conn.WriteControl(websocket.PingMessage, []byte("are-you-there"), deadline); err != nil {
			t.Errorf("write ping: %v", err)
			return
		}
		// Pong handlers only fire inside a read call.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	ev := newEvents()
	dialServer(t, srv, ev, nil)

	select {
	case payload := <-ev.pings:
		if string(payload) != "are-you-there" {
			t.Errorf("ping payload = %q", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the server ping")
	}

	select {
	case appData := <-pongs:
		if appData != "are-you-there" {
			t.Errorf("pong payload = %q", appData)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the pong")
	}
}

func TestGorillaServerInitiatedClose(t *testing.T) {
	ackCodes := make(chan int, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		data := websocket.FormatCloseMessage(websocket.CloseGoingAway, "maintenance")
		if err := conn.WriteMessage(websocket.CloseMessage, data); err != nil {
			t.Errorf("write close: %v", err)
			return
		}
		_, _, err = conn.ReadMessage()
		var ce *websocket.CloseError
		if stderrors.As(err, &ce) {
			ackCodes <- ce.Code
		}
	}))
	t.Cleanup(srv.Close)

	ev := newEvents()
	dialServer(t, srv, ev, nil)

	ci := recvClose(t, ev)
	if ci.Code != ws.StatusGoingAway || ci.Reason != "maintenance" {
		t.Errorf("close = %d %q", ci.Code, ci.Reason)
	}

	select {
	case code := <-ackCodes:
		if code != websocket.CloseGoingAway {
			t.Errorf("close ack code = %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the close ack")
	}
}

func TestGorillaFragmentedEcho(t *testing.T) {
	// A small write buffer makes gorilla split the echo into
	// continuation frames, exercising reassembly on the client.
	srv := echoServer(t, websocket.Upgrader{
		WriteBufferSize: 1024,
	})

	ev := newEvents()
	conn := dialServer(t, srv, ev, nil)

	big := strings.Repeat("fragmentation test payload ", 4096)
	if err := conn.SendText(big); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	msg := recvMessage(t, ev)
	if msg.Type != ws.MessageText {
		t.Fatalf("type = %v", msg.Type)
	}
	if string(msg.Data) != big {
		t.Errorf("echo mismatch: got %d bytes, want %d", len(msg.Data), len(big))
	}
}

func TestGorillaConcurrentClients(t *testing.T) {
	srv := echoServer(t, websocket.Upgrader{})

	const clients = 8
	done := make(chan error, clients)
	for i := 0; i < clients; i++ {
		go func(id int) {
			ev := newEvents()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			conn, err := ws.Dial(ctx, srv.URL, ev.handler(), quietConfig())
			if err != nil {
				done <- err
				return
			}
			defer conn.Close()

			for n := 0; n < 10; n++ {
				text := strings.Repeat("x", id+1)
				if err := conn.SendText(text); err != nil {
					done <- err
					return
				}
				select {
				case msg := <-ev.msgs:
					if string(msg.Data) != text {
						done <- fmt.Errorf("echo mismatch: %q", msg.Data)
						return
					}
				case <-time.After(5 * time.Second):
					done <- context.DeadlineExceeded
					return
				}
			}
			done <- nil
		}(i)
	}

	for i := 0; i < clients; i++ {
		if err := <-done; err != nil {
			t.Errorf("client failed: %v", err)
		}
	}
}
