package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/websock/internal/config"
	"github.com/vango-dev/websock/internal/errors"
)

func echoCmd() *cobra.Command {
	var (
		listen string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run a local echo server",
		Long: `Run a local WebSocket echo server for testing clients.

Every data message is echoed back unchanged. Pings are answered with
pongs and close handshakes are completed. Prometheus metrics are
exposed on /metrics and a health probe on /healthz.

Examples:
  websock echo
  websock echo --listen 0.0.0.0:9000 --path /ws`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEcho(listen, path)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from websock.yaml)")
	cmd.Flags().StringVar(&path, "path", "", "WebSocket endpoint path (default from websock.yaml)")

	return cmd
}

// echoMetrics are the Prometheus metrics of the echo server.
type echoMetrics struct {
	connections *prometheus.CounterVec
	active      prometheus.Gauge
	messages    *prometheus.CounterVec
	bytes       *prometheus.CounterVec
}

func newEchoMetrics(reg prometheus.Registerer) *echoMetrics {
	factory := promauto.With(reg)

	return &echoMetrics{
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "websock",
			Subsystem: "echo",
			Name:      "connections_total",
			Help:      "Total accepted WebSocket connections by result",
		}, []string{"result"}),

		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "websock",
			Subsystem: "echo",
			Name:      "open_connections",
			Help:      "Currently open WebSocket connections",
		}),

		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "websock",
			Subsystem: "echo",
			Name:      "messages_total",
			Help:      "Total echoed messages by direction",
		}, []string{"direction"}),

		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "websock",
			Subsystem: "echo",
			Name:      "message_bytes_total",
			Help:      "Total echoed message bytes by direction",
		}, []string{"direction"}),
	}
}

func runEcho(listen, path string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Echo.Listen = listen
	}
	if path != "" {
		cfg.Echo.Path = path
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Logger()
	reg := prometheus.NewRegistry()
	m := newEchoMetrics(reg)

	upgrader := &websocket.Upgrader{
		ReadBufferSize:  cfg.Limits.ReadBufferSize,
		WriteBufferSize: cfg.Limits.ReadBufferSize,
		Subprotocols:    cfg.Handshake.Subprotocols,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get(cfg.Echo.Path, echoHandler(upgrader, m, logger, cfg.Limits.MaxMessageSize))

	srv := &http.Server{
		Addr:              cfg.Echo.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	printBanner()
	fmt.Println("  echo")
	fmt.Println()
	success("listening on ws://%s%s", cfg.Echo.Listen, cfg.Echo.Path)
	info("metrics:  http://%s/metrics", cfg.Echo.Listen)
	info("health:   http://%s/healthz", cfg.Echo.Listen)
	fmt.Println()

	if err := srv.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Newf(errors.CategoryCLI, "echo server: %v", err).
			WithSuggestion("Check that the listen address is free, or pass --listen with another port.")
	}
	info("shut down")
	return nil
}

func echoHandler(upgrader *websocket.Upgrader, m *echoMetrics, logger *slog.Logger, maxMessageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.connections.WithLabelValues("upgrade_error").Inc()
			logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		m.connections.WithLabelValues("ok").Inc()
		m.active.Inc()
		logger.Info("client connected",
			"remote", r.RemoteAddr,
			"subprotocol", conn.Subprotocol(),
		)

		defer func() {
			m.active.Dec()
			conn.Close()
			logger.Info("client disconnected", "remote", r.RemoteAddr)
		}()

		conn.SetReadLimit(int64(maxMessageSize))

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseNoStatusReceived,
				) {
					logger.Warn("read failed", "remote", r.RemoteAddr, "err", err)
				}
				return
			}
			m.messages.WithLabelValues("in").Inc()
			m.bytes.WithLabelValues("in").Add(float64(len(data)))

			if err := conn.WriteMessage(mt, data); err != nil {
				logger.Warn("write failed", "remote", r.RemoteAddr, "err", err)
				return
			}
			m.messages.WithLabelValues("out").Inc()
			m.bytes.WithLabelValues("out").Add(float64(len(data)))
		}
	}
}
