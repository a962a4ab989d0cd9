package websock

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/vango-dev/websock/pkg/wire"
)

// NewConn creates a connection for a ws, wss, http or https URL; http and
// https normalize to their WebSocket equivalents. The handler receives all
// events once Open is called. A nil cfg uses DefaultConfig; the config is
// cloned, so later mutation of the caller's copy has no effect.
func NewConn(rawURL string, handler Handler, cfg *Config) (*Conn, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("websock: parse url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, ErrBadScheme
	}
	if u.Host == "" {
		return nil, fmt.Errorf("websock: url %q has no host", rawURL)
	}

	cfg = cfg.Clone()
	cfg.normalize()

	c := &Conn{
		cfg:          cfg,
		url:          u,
		id:           generateConnID(),
		handler:      handler,
		outq:         newOutQueue(),
		commands:     make(chan outbound, cfg.SendQueueSize),
		closeCh:      make(chan wire.CloseInfo, 1),
		readCh:       make(chan readChunk),
		writeErrCh:   make(chan error, 1),
		writeFlushed: make(chan struct{}, 1),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	c.logger = cfg.Logger.With("conn_id", c.id)
	c.dispatcher = newDispatcher(c, handler, cfg.Executor, c.logger, cfg.EventQueueSize)
	c.state.Store(int32(StateConnecting))
	return c, nil
}

// Dial is NewConn followed by Open.
func Dial(ctx context.Context, rawURL string, handler Handler, cfg *Config) (*Conn, error) {
	c, err := NewConn(rawURL, handler, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Open dials the server and performs the upgrade handshake, bounded by the
// context and the configured handshake timeout. It may be called at most
// once; further calls return ErrAlreadyOpened.
//
// A failure is reported twice: as the returned error and as a terminal
// OnError callback, so purely event-driven consumers can ignore the return
// value.
func (c *Conn) Open(ctx context.Context) error {
	if !c.opened.CompareAndSwap(false, true) {
		return ErrAlreadyOpened
	}
	go c.dispatcher.run()

	if err := c.open(ctx); err != nil {
		c.setState(StateClosed)
		close(c.done)
		c.logger.Warn("open failed", "url", c.url.String(), "err", err)
		c.dispatcher.send(event{kind: eventError, err: err})
		close(c.dispatcher.events)
		return err
	}
	return nil
}

func (c *Conn) open(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()
	ctx, span := startOpenSpan(ctx, c.id, c.url)

	start := time.Now()
	tr, err := dialTransport(ctx, c.cfg, c.url)
	if err != nil {
		c.cfg.Metrics.recordConnect("transport_error")
		endOpenSpan(span, "", err)
		return NewHandshakeError(c.url.String(), nil, err)
	}

	// Unblock the exchange if the context dies while we sit in io.
	stop := context.AfterFunc(ctx, func() { tr.Close() })
	defer stop()

	hs := wire.NewHandshake(c.url)
	hs.Subprotocols = c.cfg.Subprotocols
	hs.Header = c.cfg.Header
	hs.Cookies = c.cfg.Cookies

	br := bufio.NewReaderSize(tr, c.cfg.ReadBufferSize)
	if err := hs.WriteRequest(tr); err != nil {
		tr.Close()
		c.cfg.Metrics.recordConnect("transport_error")
		err = NewTransportError("write request", err)
		endOpenSpan(span, "", err)
		return NewHandshakeError(c.url.String(), nil, err)
	}
	res, err := hs.ReadResponse(br)
	if err != nil {
		tr.Close()
		c.cfg.Metrics.recordConnect("handshake_error")
		he := NewHandshakeError(c.url.String(), res, err)
		endOpenSpan(span, "", he)
		return he
	}

	c.tr = tr
	c.br = br
	c.subprotocol = res.Subprotocol
	c.result = res
	c.setState(StateOpen)

	c.cfg.Metrics.recordConnect("ok")
	c.cfg.Metrics.recordOpen()
	c.cfg.Metrics.recordHandshakeDuration(time.Since(start))
	endOpenSpan(span, res.Subprotocol, nil)
	c.logger.Info("connection open",
		"url", c.url.String(),
		"subprotocol", res.Subprotocol,
	)

	c.dispatcher.send(event{kind: eventOpen})
	go c.readPump()
	go c.writePump()
	go c.run()
	return nil
}

// generateConnID returns a random hex identifier for log correlation.
func generateConnID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
