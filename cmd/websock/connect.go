package main

import (
	"bufio"
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/websock"
	"github.com/vango-dev/websock/internal/config"
	"github.com/vango-dev/websock/internal/errors"
)

func connectCmd() *cobra.Command {
	var (
		subprotocols []string
		headers      []string
		messages     []string
		pingEvery    time.Duration
		insecure     bool
	)

	cmd := &cobra.Command{
		Use:   "connect [url]",
		Short: "Connect to a WebSocket endpoint",
		Long: `Connect to a WebSocket endpoint and exchange messages.

Without --message the client is interactive: every line read from
stdin is sent as a text message, and incoming traffic is printed as
it arrives. Ctrl-C performs a clean close handshake.

The URL may be omitted when websock.yaml sets one.

Examples:
  websock connect wss://echo.example.com/ws
  websock connect ws://localhost:8080/echo -m hello -m world
  websock connect wss://feed.example.com -S graphql-ws -H "Authorization: Bearer t0ken"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) > 0 {
				url = args[0]
			}
			return runConnect(url, subprotocols, headers, messages, pingEvery, insecure)
		},
	}

	cmd.Flags().StringSliceVarP(&subprotocols, "subprotocol", "S", nil, "Subprotocol to offer (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra handshake header as 'Name: value' (repeatable)")
	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "Send these text messages, then close (repeatable)")
	cmd.Flags().DurationVar(&pingEvery, "ping", 0, "Send a ping at this interval (0 disables)")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	return cmd
}

func runConnect(url string, subprotocols, headers, messages []string, pingEvery time.Duration, insecure bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if url == "" {
		url = cfg.URL
	}
	if url == "" {
		return errors.New("E062").
			WithDetail("No URL given and websock.yaml does not set one.").
			WithSuggestion("Pass a URL: websock connect ws://localhost:8080/echo")
	}

	ccfg := cfg.ClientConfig()
	if len(subprotocols) > 0 {
		ccfg.Subprotocols = subprotocols
	}
	if len(headers) > 0 {
		if ccfg.Header == nil {
			ccfg.Header = http.Header{}
		}
		for _, h := range headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return errors.Newf(errors.CategoryCLI, "invalid header %q, want 'Name: value'", h)
			}
			ccfg.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}
	if insecure {
		if ccfg.TLSConfig == nil {
			ccfg.TLSConfig = &tls.Config{}
		}
		ccfg.TLSConfig.InsecureSkipVerify = true
	}

	// Terminal outcome delivered by the handler; capacity one so the
	// dispatcher never blocks on it.
	result := make(chan error, 1)

	handler := websock.HandlerFuncs{
		Open: func(c *websock.Conn) {
			success("connected to %s", url)
			if proto := c.Subprotocol(); proto != "" {
				info("subprotocol: %s", proto)
			}
			info("type a message and press enter, Ctrl-C to close")
		},
		Message: func(c *websock.Conn, msg websock.Message) {
			if msg.Type == websock.MessageText {
				fmt.Printf("< %s\n", msg.Data)
				return
			}
			fmt.Printf("< [%d bytes binary] % x\n", len(msg.Data), preview(msg.Data, 32))
		},
		Ping: func(c *websock.Conn, payload []byte) {
			info("ping %q", payload)
		},
		Pong: func(c *websock.Conn, payload []byte) {
			info("pong %q", payload)
		},
		Close: func(c *websock.Conn, ci websock.CloseInfo, wasClean bool) {
			if wasClean {
				info("closed: %d %s", ci.Code, ci.Reason)
			} else {
				warn("closed uncleanly: %d %s", ci.Code, ci.Reason)
			}
			result <- nil
		},
		Error: func(c *websock.Conn, err error) {
			result <- err
		},
	}

	conn, err := websock.NewConn(url, handler, ccfg)
	if err != nil {
		return wrapConnectErr(url, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := conn.Open(ctx); err != nil {
		<-conn.Done()
		return wrapConnectErr(url, err)
	}

	if pingEvery > 0 {
		go pingLoop(conn, pingEvery)
	}

	if len(messages) > 0 {
		for _, m := range messages {
			if err := conn.SendText(m); err != nil {
				errorMsg("send: %v", err)
				break
			}
			fmt.Printf("> %s\n", m)
		}
		_ = conn.Close()
		<-conn.Done()
		return <-result
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.CloseWith(websock.CloseInfo{Code: websock.StatusNormalClosure, Reason: "client exiting"})
			<-conn.Done()
			return <-result

		case line, ok := <-lines:
			if !ok {
				_ = conn.Close()
				<-conn.Done()
				return <-result
			}
			if line == "" {
				continue
			}
			if err := conn.SendText(line); err != nil {
				errorMsg("send: %v", err)
			}

		case <-conn.Done():
			return <-result
		}
	}
}

// pingLoop sends pings until the connection refuses them.
func pingLoop(conn *websock.Conn, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-conn.Done():
			return
		case <-ticker.C:
			if err := conn.SendPing(nil); err != nil {
				return
			}
		}
	}
}

func preview(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[:n]
}

func wrapConnectErr(url string, err error) error {
	var he *websock.HandshakeError
	switch {
	case stderrors.Is(err, websock.ErrBadScheme):
		return errors.FromError(err, "E061").
			WithDetail(fmt.Sprintf("The URL %q does not use ws://, wss://, http:// or https://.", url))
	case stderrors.As(err, &he):
		return errors.FromError(err, "E002")
	case stderrors.Is(err, context.Canceled):
		return err
	default:
		return errors.FromError(err, "E001").
			WithDetail(fmt.Sprintf("Could not reach %s.", url))
	}
}
