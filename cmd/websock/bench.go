package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"runtime/metrics"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/vango-dev/websock"
)

type benchProfile struct {
	Name         string
	Clients      int
	Duration     time.Duration
	RPS          float64
	PayloadBytes int
}

var benchProfiles = map[string]benchProfile{
	"fast": {
		Name:         "fast",
		Clients:      10,
		Duration:     10 * time.Second,
		RPS:          5,
		PayloadBytes: 64,
	},
	"standard": {
		Name:         "standard",
		Clients:      50,
		Duration:     30 * time.Second,
		RPS:          10,
		PayloadBytes: 256,
	},
	"stress": {
		Name:         "stress",
		Clients:      200,
		Duration:     60 * time.Second,
		RPS:          20,
		PayloadBytes: 1024,
	},
}

type benchSettings struct {
	Profile      string
	URL          string
	Clients      int
	Duration     time.Duration
	RPS          float64
	PayloadBytes int
	JSONOutput   string
	EchoTimeout  time.Duration
}

type benchCounters struct {
	messagesSent   atomic.Uint64
	messagesEchoed atomic.Uint64
	bytesSent      atomic.Uint64
}

type benchFailures struct {
	handshakeFailures atomic.Uint64
	sendFailures      atomic.Uint64
	echoTimeouts      atomic.Uint64
	uncleanCloses     atomic.Uint64
	totalErrors       atomic.Uint64
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		targetURL   string
		clients     int
		duration    time.Duration
		rps         float64
		payload     int
		jsonOut     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark WebSocket round-trip latency",
		Long: `Benchmark round-trip latency and throughput of the client engine.

Each client opens its own connection, sends text messages at the
target rate, and waits for every echo before sending the next one.
Without --url an in-process echo server is started on a loopback
port, so the numbers measure the full client stack plus loopback.

Profiles:
  fast      10 clients, 10s,  5 msg/s each,   64-byte payloads
  standard  50 clients, 30s, 10 msg/s each,  256-byte payloads
  stress   200 clients, 60s, 20 msg/s each, 1024-byte payloads

Examples:
  websock bench
  websock bench --profile stress --json bench.json
  websock bench --url ws://localhost:8080/echo --clients 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, ok := benchProfiles[strings.ToLower(strings.TrimSpace(profileName))]
			if !ok {
				return fmt.Errorf("unknown profile %q, want fast, standard or stress", profileName)
			}
			settings := benchSettings{
				Profile:      base.Name,
				URL:          targetURL,
				Clients:      base.Clients,
				Duration:     base.Duration,
				RPS:          base.RPS,
				PayloadBytes: base.PayloadBytes,
				JSONOutput:   strings.TrimSpace(jsonOut),
			}
			if clients > 0 {
				settings.Clients = clients
			}
			if duration > 0 {
				settings.Duration = duration
			}
			if rps > 0 {
				settings.RPS = rps
			}
			if payload > 0 {
				settings.PayloadBytes = payload
			}
			settings.EchoTimeout = echoTimeout(settings.RPS)
			return runBench(settings)
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "standard", "Profile: fast|standard|stress")
	cmd.Flags().StringVar(&targetURL, "url", "", "Benchmark this endpoint instead of an in-process echo server")
	cmd.Flags().IntVar(&clients, "clients", 0, "Number of concurrent connections (overrides profile)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Benchmark duration (overrides profile)")
	cmd.Flags().Float64Var(&rps, "rps", 0, "Target messages/sec per client (overrides profile)")
	cmd.Flags().IntVar(&payload, "payload-bytes", 0, "Payload size per message (overrides profile)")
	cmd.Flags().StringVar(&jsonOut, "json", "", "Write the JSON report to this path ('-' for stdout)")

	return cmd
}

// echoTimeout bounds the wait for a single echo, scaled to the send period.
func echoTimeout(rps float64) time.Duration {
	if rps <= 0 {
		return 2 * time.Second
	}
	period := time.Duration(float64(time.Second) / rps)
	timeout := period * 10
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	return timeout
}

func runBench(settings benchSettings) error {
	wsURL := settings.URL
	if wsURL == "" {
		srv, url, err := startBenchEcho()
		if err != nil {
			return fmt.Errorf("start echo server: %w", err)
		}
		defer func() {
			_ = srv.Shutdown(context.Background())
		}()
		wsURL = url
	}

	ctx, cancel := context.WithTimeout(context.Background(), settings.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, sampleBuffer(settings.Clients))
	var samples []time.Duration
	var samplesMu sync.Mutex
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			samplesMu.Lock()
			samples = append(samples, rtt)
			samplesMu.Unlock()
		}
	}()

	var counters benchCounters
	var failures benchFailures

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(settings.Clients)
	for i := 0; i < settings.Clients; i++ {
		clientID := i
		go func() {
			defer wg.Done()
			if err := runBenchClient(ctx, wsURL, clientID, settings, &counters, &failures, samplesCh); err != nil {
				failures.totalErrors.Add(1)
			}
		}()
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	samplesMu.Lock()
	latencies := append([]time.Duration(nil), samples...)
	samplesMu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	report := buildBenchReport(settings, wsURL, elapsed, latencies, &counters, &failures, before, after, beforeMetrics, afterMetrics)

	writeBenchSummary(os.Stderr, report)
	if settings.JSONOutput != "" {
		if err := writeBenchJSON(settings.JSONOutput, report); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	return nil
}

func sampleBuffer(clients int) int {
	if clients < 1 {
		return 1024
	}
	buf := clients * 4
	if buf < 1024 {
		buf = 1024
	}
	return buf
}

// startBenchEcho brings up a loopback echo server and returns its ws URL.
func startBenchEcho() (*http.Server, string, error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, "", err
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
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
	})

	srv := &http.Server{Handler: mux}
	go func() {
		_ = srv.Serve(ln)
	}()

	return srv, "ws://" + ln.Addr().String() + "/echo", nil
}

func runBenchClient(
	ctx context.Context,
	wsURL string,
	clientID int,
	settings benchSettings,
	counters *benchCounters,
	failures *benchFailures,
	samples chan<- time.Duration,
) error {
	// Echo flow keeps at most one message in flight, so a small buffer
	// with a drop guard keeps the dispatcher from ever blocking here.
	echoes := make(chan string, 4)
	handler := websock.HandlerFuncs{
		Message: func(c *websock.Conn, msg websock.Message) {
			if msg.Type != websock.MessageText {
				return
			}
			select {
			case echoes <- string(msg.Data):
			default:
			}
		},
		Close: func(c *websock.Conn, ci websock.CloseInfo, wasClean bool) {
			if !wasClean {
				failures.uncleanCloses.Add(1)
			}
		},
	}

	cfg := websock.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	conn, err := websock.NewConn(wsURL, handler, cfg)
	if err != nil {
		failures.handshakeFailures.Add(1)
		return fmt.Errorf("new conn: %w", err)
	}
	if err := conn.Open(ctx); err != nil {
		failures.handshakeFailures.Add(1)
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		_ = conn.Close()
		select {
		case <-conn.Done():
		case <-time.After(2 * time.Second):
		}
	}()

	period := time.Duration(float64(time.Second) / settings.RPS)
	var seq uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		seq++
		token := benchToken(clientID, seq, settings.PayloadBytes)

		start := time.Now()
		if err := conn.SendText(token); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures.sendFailures.Add(1)
			return fmt.Errorf("send: %w", err)
		}
		counters.messagesSent.Add(1)
		counters.bytesSent.Add(uint64(len(token)))

		timer := time.NewTimer(settings.EchoTimeout)
	wait:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-conn.Done():
				timer.Stop()
				if ctx.Err() != nil {
					return nil
				}
				return stderrors.New("connection closed mid-run")
			case <-timer.C:
				failures.echoTimeouts.Add(1)
				return stderrors.New("echo not observed")
			case got := <-echoes:
				if got == token {
					timer.Stop()
					break wait
				}
				// Stale echo from an earlier timed-out wait, keep reading.
			}
		}

		rtt := time.Since(start)
		counters.messagesEchoed.Add(1)
		samples <- rtt

		if sleep := period - time.Since(start); sleep > 0 {
			t := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
	}
}

// benchToken builds a unique payload of the requested size.
func benchToken(clientID int, seq uint64, payloadBytes int) string {
	if payloadBytes <= 0 {
		return ""
	}
	seed := (uint64(clientID) << 32) ^ seq
	base := strings.ToLower(strconv.FormatUint(seed, 36))
	if len(base) >= payloadBytes {
		return base[len(base)-payloadBytes:]
	}
	pad := strings.Repeat("x", payloadBytes-len(base))
	return base + pad
}

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds float64
	cpuGCSeconds    float64

	heapAllocsBytes   uint64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:bytes"},
		{Name: "/gc/heap/allocs:objects"},
	}
	metrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		switch s.Name {
		case "/cpu/classes/total:cpu-seconds":
			out.cpuTotalSeconds = s.Value.Float64()
		case "/cpu/classes/gc/total:cpu-seconds":
			out.cpuGCSeconds = s.Value.Float64()
		case "/gc/heap/allocs:bytes":
			out.heapAllocsBytes = s.Value.Uint64()
		case "/gc/heap/allocs:objects":
			out.heapAllocsObjects = s.Value.Uint64()
		}
	}
	return out
}

func cpuFraction(after, before runtimeMetricsSnapshot) float64 {
	total := after.cpuTotalSeconds - before.cpuTotalSeconds
	if total <= 0 {
		return 0
	}
	gc := after.cpuGCSeconds - before.cpuGCSeconds
	if gc < 0 {
		return 0
	}
	return gc / total
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avgPause(after, before runtime.MemStats) time.Duration {
	gcCount := after.NumGC - before.NumGC
	if gcCount == 0 {
		return 0
	}
	return time.Duration((after.PauseTotalNs - before.PauseTotalNs) / uint64(gcCount))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile       string  `json:"profile"`
	URL           string  `json:"url"`
	Clients       int     `json:"clients"`
	DurationMS    int64   `json:"duration_ms"`
	RPSPerClient  float64 `json:"rps_per_client"`
	PayloadBytes  int     `json:"payload_bytes"`
	EchoTimeoutMS int64   `json:"echo_timeout_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	MessagesSent      uint64  `json:"messages_sent"`
	MessagesEchoed    uint64  `json:"messages_echoed"`
	BytesSent         uint64  `json:"bytes_sent"`
	MessagesPerSec    float64 `json:"messages_per_sec"`
	MessagesPerClient float64 `json:"messages_per_sec_per_client"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	PauseAvgMS    float64 `json:"pause_avg_ms"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

type errorInfo struct {
	TotalErrors       uint64 `json:"total_errors"`
	HandshakeFailures uint64 `json:"handshake_failures"`
	SendFailures      uint64 `json:"send_failures"`
	EchoTimeouts      uint64 `json:"echo_timeouts"`
	UncleanCloses     uint64 `json:"unclean_closes"`
}

func buildBenchReport(
	settings benchSettings,
	wsURL string,
	elapsed time.Duration,
	latencies []time.Duration,
	counters *benchCounters,
	failures *benchFailures,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
	echoed := counters.messagesEchoed.Load()

	elapsedSeconds := math.Max(0.001, elapsed.Seconds())
	perSec := float64(echoed) / elapsedSeconds
	perSecClient := perSec / float64(settings.Clients)

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	pauseTotal := time.Duration(after.PauseTotalNs - before.PauseTotalNs)

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile:       settings.Profile,
			URL:           wsURL,
			Clients:       settings.Clients,
			DurationMS:    settings.Duration.Milliseconds(),
			RPSPerClient:  settings.RPS,
			PayloadBytes:  settings.PayloadBytes,
			EchoTimeoutMS: settings.EchoTimeout.Milliseconds(),
		},
		LatencyMS: latency,
		Throughput: throughputInfo{
			MessagesSent:      counters.messagesSent.Load(),
			MessagesEchoed:    echoed,
			BytesSent:         counters.bytesSent.Load(),
			MessagesPerSec:    perSec,
			MessagesPerClient: perSecClient,
		},
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(pauseTotal),
			PauseAvgMS:    ms(avgPause(after, before)),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
		Errors: errorInfo{
			TotalErrors:       failures.totalErrors.Load(),
			HandshakeFailures: failures.handshakeFailures.Load(),
			SendFailures:      failures.sendFailures.Load(),
			EchoTimeouts:      failures.echoTimeouts.Load(),
			UncleanCloses:     failures.uncleanCloses.Load(),
		},
	}
}

func writeBenchSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Websock Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Target: %s\n", report.Workload.URL)
	fmt.Fprintf(w, "Clients: %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target per-client rate: %.2f msg/s\n", report.Workload.RPSPerClient)
	fmt.Fprintf(w, "Payload bytes: %d\n", report.Workload.PayloadBytes)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Messages echoed: %d of %d sent\n", report.Throughput.MessagesEchoed, report.Throughput.MessagesSent)
	fmt.Fprintf(w, "Throughput: %.1f msg/s (%.2f per client)\n", report.Throughput.MessagesPerSec, report.Throughput.MessagesPerClient)
	fmt.Fprintf(w, "Errors: %d\n", report.Errors.TotalErrors)
	fmt.Fprintln(w)

	if report.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "RTT (client send -> echo -> client receive):")
		fmt.Fprintf(w, "  min: %.2f ms\n", report.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", report.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", report.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", report.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", report.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (avg)\n", report.GC.PauseAvgMS)
	fmt.Fprintf(w, "  gc_cpu:    %.2f%%\n", report.GC.GCCPUFraction*100)
}

func writeBenchJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("WEBSOCK_GIT_COMMIT")); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv("GIT_COMMIT")); val != "" {
		return val
	}
	cmd := exec.Command("git", "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
