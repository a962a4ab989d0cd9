package config

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/websock/internal/errors"
	"github.com/vango-dev/websock/pkg/websock"
	"github.com/vango-dev/websock/pkg/wire"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "websock.yaml"

	// DefaultListen is the default echo server listen address.
	DefaultListen = "localhost:8080"

	// DefaultEchoPath is the default echo server endpoint path.
	DefaultEchoPath = "/echo"
)

// Config represents the complete websock.yaml configuration.
type Config struct {
	// URL is the default endpoint for connect and bench when no argument
	// is given.
	URL string `yaml:"url,omitempty"`

	// Handshake contains upgrade request configuration.
	Handshake HandshakeConfig `yaml:"handshake,omitempty"`

	// Limits contains message and queue size limits.
	Limits LimitsConfig `yaml:"limits,omitempty"`

	// Timeouts contains connection timing configuration.
	Timeouts TimeoutsConfig `yaml:"timeouts,omitempty"`

	// Echo contains the development echo server configuration.
	Echo EchoConfig `yaml:"echo,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// HandshakeConfig contains upgrade request settings.
type HandshakeConfig struct {
	// Subprotocols are offered in preference order.
	Subprotocols []string `yaml:"subprotocols,omitempty"`

	// Headers are extra headers added to the upgrade request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Timeout bounds the dial plus upgrade exchange.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification for wss.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`
}

// LimitsConfig contains size and queue limits.
type LimitsConfig struct {
	// MaxMessageSize is the largest message accepted, in bytes.
	MaxMessageSize int `yaml:"max_message_size,omitempty"`

	// ReadBufferSize is the transport read buffer size, in bytes.
	ReadBufferSize int `yaml:"read_buffer_size,omitempty"`

	// SendQueueSize bounds outbound messages awaiting the transport.
	SendQueueSize int `yaml:"send_queue_size,omitempty"`

	// EventQueueSize bounds events awaiting handler delivery.
	EventQueueSize int `yaml:"event_queue_size,omitempty"`
}

// TimeoutsConfig contains connection timing settings.
type TimeoutsConfig struct {
	// Close bounds the wait for the peer's close acknowledgement.
	Close time.Duration `yaml:"close,omitempty"`

	// Write bounds a single transport write.
	Write time.Duration `yaml:"write,omitempty"`
}

// EchoConfig contains development echo server settings.
type EchoConfig struct {
	// Listen is the host:port the echo server binds to.
	Listen string `yaml:"listen,omitempty"`

	// Path is the WebSocket endpoint path.
	Path string `yaml:"path,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Handshake: HandshakeConfig{
			Timeout: 30 * time.Second,
		},
		Limits: LimitsConfig{
			MaxMessageSize: wire.DefaultMaxMessageSize,
			ReadBufferSize: 4096,
			SendQueueSize:  64,
			EventQueueSize: 32,
		},
		Timeouts: TimeoutsConfig{
			Close: 5 * time.Second,
			Write: 10 * time.Second,
		},
		Echo: EchoConfig{
			Listen: DefaultListen,
			Path:   DefaultEchoPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// websock.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E040").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'websock init' to create one, or pass settings as flags")
		}
		return nil, errors.New("E041").Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E041").
			WithLocationFromYAML(path, err).
			Wrap(err).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E041").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E041").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Handshake.Timeout == 0 {
		c.Handshake.Timeout = 30 * time.Second
	}
	if c.Limits.MaxMessageSize == 0 {
		c.Limits.MaxMessageSize = wire.DefaultMaxMessageSize
	}
	if c.Limits.ReadBufferSize == 0 {
		c.Limits.ReadBufferSize = 4096
	}
	if c.Limits.SendQueueSize == 0 {
		c.Limits.SendQueueSize = 64
	}
	if c.Limits.EventQueueSize == 0 {
		c.Limits.EventQueueSize = 32
	}
	if c.Timeouts.Close == 0 {
		c.Timeouts.Close = 5 * time.Second
	}
	if c.Timeouts.Write == 0 {
		c.Timeouts.Write = 10 * time.Second
	}
	if c.Echo.Listen == "" {
		c.Echo.Listen = DefaultListen
	}
	if c.Echo.Path == "" {
		c.Echo.Path = DefaultEchoPath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Limits.MaxMessageSize < 0 || c.Limits.ReadBufferSize < 0 ||
		c.Limits.SendQueueSize < 0 || c.Limits.EventQueueSize < 0 {
		return errors.New("E042").
			WithDetail("Size limits must not be negative")
	}
	if c.Handshake.Timeout < 0 || c.Timeouts.Close < 0 || c.Timeouts.Write < 0 {
		return errors.New("E043").
			WithDetail("Timeouts must not be negative")
	}
	if _, _, err := net.SplitHostPort(c.Echo.Listen); err != nil {
		return errors.New("E044").
			WithDetail("echo.listen must be host:port, got " + c.Echo.Listen)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E045").
			WithDetail("log.level is " + c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Newf(errors.CategoryConfig, "log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ClientConfig converts the file configuration into a connection Config.
func (c *Config) ClientConfig() *websock.Config {
	cfg := websock.DefaultConfig()
	cfg.Subprotocols = append([]string(nil), c.Handshake.Subprotocols...)
	if len(c.Handshake.Headers) > 0 {
		cfg.Header = make(http.Header, len(c.Handshake.Headers))
		for k, v := range c.Handshake.Headers {
			cfg.Header.Set(k, v)
		}
	}
	cfg.HandshakeTimeout = c.Handshake.Timeout
	if c.Handshake.InsecureSkipVerify {
		cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	cfg.MaxMessageSize = c.Limits.MaxMessageSize
	cfg.ReadBufferSize = c.Limits.ReadBufferSize
	cfg.SendQueueSize = c.Limits.SendQueueSize
	cfg.EventQueueSize = c.Limits.EventQueueSize
	cfg.CloseTimeout = c.Timeouts.Close
	cfg.WriteTimeout = c.Timeouts.Write
	return cfg
}

// Logger builds a slog.Logger from the log section, writing to stderr.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root. It returns
// the directory containing websock.yaml, or an error if none is found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E040").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'websock init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest project root. If
// no config file exists anywhere up the tree, defaults are returned.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		cfg := New()
		cfg.applyDefaults()
		return cfg, nil
	}

	return Load(root)
}
