package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/pkg/protocol"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "codegame.json"

	// DefaultHost is the host players connect to.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the player TCP port.
	DefaultPort = 31001

	// DefaultHTTPPort serves /ws, /healthz and /metrics.
	DefaultHTTPPort = 31080

	// DefaultTicks is the default match length.
	DefaultTicks = 500
)

// Config represents the complete codegame.json configuration.
type Config struct {
	// Client configures `codegame play`.
	Client ClientConfig `json:"client,omitempty"`

	// Server configures `codegame serve`.
	Server ServerConfig `json:"server,omitempty"`

	// Match configures the hosted game.
	Match MatchConfig `json:"match,omitempty"`

	// Log configures logging for every command.
	Log LogConfig `json:"log,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Replay configures replay recording and upload.
	Replay ReplayConfig `json:"replay,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ClientConfig contains player client settings.
type ClientConfig struct {
	// Host is the host to connect to.
	Host string `json:"host,omitempty"`

	// Port is the TCP port to connect to.
	Port int `json:"port,omitempty"`

	// Token is the access token sent in the handshake.
	Token string `json:"token,omitempty"`

	// URL, when set, connects over WebSocket instead of TCP
	// (e.g., "ws://127.0.0.1:31080/ws").
	URL string `json:"url,omitempty"`

	// Strategy names the built-in strategy to play.
	Strategy string `json:"strategy,omitempty"`

	// ReadTimeout bounds each receive (e.g., "30s"). Empty means none.
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout bounds each send (e.g., "10s"). Empty means none.
	WriteTimeout string `json:"writeTimeout,omitempty"`
}

// ServerConfig contains host settings.
type ServerConfig struct {
	// Host is the address to bind to.
	Host string `json:"host,omitempty"`

	// Port is the player TCP port. Zero disables the TCP listener.
	Port int `json:"port,omitempty"`

	// HTTPPort serves WebSocket players, health and metrics.
	// Zero disables the HTTP listener.
	HTTPPort int `json:"httpPort,omitempty"`

	// Token is the access token players must present.
	Token string `json:"token,omitempty"`

	// Players is the number of remote players to wait for.
	Players int `json:"players,omitempty"`

	// AcceptTimeout bounds the wait for all players (e.g., "2m").
	AcceptTimeout string `json:"acceptTimeout,omitempty"`

	// ReadTimeout bounds each player response (e.g., "40s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout bounds each message to a player (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`
}

// MatchConfig contains game settings.
type MatchConfig struct {
	// Ticks is the number of ticks before the game ends.
	Ticks int `json:"ticks,omitempty"`

	// MapSize is the side length of the square map.
	MapSize int `json:"mapSize,omitempty"`

	// UnitsPerPlayer is the number of units each player starts with.
	UnitsPerPlayer int `json:"unitsPerPlayer,omitempty"`

	// Seed seeds unit placement. Zero picks a seed from the clock.
	Seed int64 `json:"seed,omitempty"`

	// DebugUpdateEvery sends DebugUpdate to every player every N ticks.
	// Zero disables debug updates.
	DebugUpdateEvery int `json:"debugUpdateEvery,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is console or json.
	Format string `json:"format,omitempty"`

	// File, when set, also writes JSON logs to a rotating file.
	File string `json:"file,omitempty"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `json:"maxSizeMB,omitempty"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `json:"maxBackups,omitempty"`

	// MaxAgeDays is the number of days to keep rotated files.
	MaxAgeDays int `json:"maxAgeDays,omitempty"`

	// Compress gzips rotated files.
	Compress bool `json:"compress,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers metrics and serves /metrics.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// ReplayConfig contains replay settings.
type ReplayConfig struct {
	// Path is the local replay file. Empty disables recording.
	Path string `json:"path,omitempty"`

	// Upload stores the finished replay in Bucket.
	Upload bool `json:"upload,omitempty"`

	// Bucket is the S3 bucket for uploads.
	Bucket string `json:"bucket,omitempty"`

	// Region is the bucket's region.
	Region string `json:"region,omitempty"`

	// Prefix is prepended to uploaded object keys.
	Prefix string `json:"prefix,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Client: ClientConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			Token:    protocol.DefaultToken,
			Strategy: "chase",
		},
		Server: ServerConfig{
			Host:          DefaultHost,
			Port:          DefaultPort,
			HTTPPort:      DefaultHTTPPort,
			Token:         protocol.DefaultToken,
			Players:       1,
			AcceptTimeout: "2m",
			ReadTimeout:   "40s",
			WriteTimeout:  "10s",
		},
		Match: MatchConfig{
			Ticks:          DefaultTicks,
			MapSize:        40,
			UnitsPerPlayer: 3,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Namespace: "codegame",
		},
		Replay: ReplayConfig{
			Prefix: "replays/",
		},
	}
}

// Load loads configuration from the codegame.json file in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault loads codegame.json from dir, or returns defaults when the
// file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err == nil {
		return cfg, nil
	}
	if stderrors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	return nil, err
}

// LoadFile loads configuration from a specific file path.
// Fields missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E200").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		ce := errors.New("E200").Wrap(err)
		var se *json.SyntaxError
		if stderrors.As(err, &se) {
			line, col := position(data, se.Offset)
			ce.WithLocation(path, line, col)
		}
		return nil, ce
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E200").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E200").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in zero values left by a partial file.
func (c *Config) applyDefaults() {
	d := New()

	if c.Client.Host == "" {
		c.Client.Host = d.Client.Host
	}
	if c.Client.Port == 0 {
		c.Client.Port = d.Client.Port
	}
	if c.Client.Token == "" {
		c.Client.Token = d.Client.Token
	}
	if c.Client.Strategy == "" {
		c.Client.Strategy = d.Client.Strategy
	}

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Token == "" {
		c.Server.Token = d.Server.Token
	}
	if c.Server.Players == 0 {
		c.Server.Players = d.Server.Players
	}
	if c.Server.AcceptTimeout == "" {
		c.Server.AcceptTimeout = d.Server.AcceptTimeout
	}

	if c.Match.Ticks == 0 {
		c.Match.Ticks = d.Match.Ticks
	}
	if c.Match.MapSize == 0 {
		c.Match.MapSize = d.Match.MapSize
	}
	if c.Match.UnitsPerPlayer == 0 {
		c.Match.UnitsPerPlayer = d.Match.UnitsPerPlayer
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name  string
		value int
		zero  bool
	}{
		{"client.port", c.Client.Port, false},
		{"server.port", c.Server.Port, true},
		{"server.httpPort", c.Server.HTTPPort, true},
	} {
		if p.value < 0 || p.value > 65535 || (p.value == 0 && !p.zero) {
			return errors.New("E201").
				WithDetail(p.name + " must be between 1 and 65535, got " + strconv.Itoa(p.value))
		}
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"client.readTimeout", c.Client.ReadTimeout},
		{"client.writeTimeout", c.Client.WriteTimeout},
		{"server.acceptTimeout", c.Server.AcceptTimeout},
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
	} {
		if _, err := parseDuration(d.value); err != nil {
			return errors.New("E203").
				WithDetail(d.name + ": " + err.Error())
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E202").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.New("E206").
			WithDetail("Unknown log format " + strconv.Quote(c.Log.Format))
	}

	if c.Server.Players < 1 || c.Match.Ticks < 1 || c.Match.MapSize < 1 ||
		c.Match.UnitsPerPlayer < 1 || c.Match.DebugUpdateEvery < 0 {
		return errors.New("E204")
	}

	if c.Replay.Upload && (c.Replay.Bucket == "" || c.Replay.Region == "") {
		return errors.New("E205")
	}

	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, stderrors.New("negative duration " + s)
	}
	return d, nil
}

// mustDuration returns the parsed duration, or zero if s is invalid.
// Validate reports invalid values.
func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}

// ClientAddress returns the host:port players dial.
func (c *Config) ClientAddress() string {
	return net.JoinHostPort(c.Client.Host, strconv.Itoa(c.Client.Port))
}

// ClientReadTimeout returns the parsed client read timeout.
func (c *Config) ClientReadTimeout() time.Duration { return mustDuration(c.Client.ReadTimeout) }

// ClientWriteTimeout returns the parsed client write timeout.
func (c *Config) ClientWriteTimeout() time.Duration { return mustDuration(c.Client.WriteTimeout) }

// TCPAddress returns the host:port the TCP listener binds, or "" when
// disabled.
func (c *Config) TCPAddress() string {
	if c.Server.Port == 0 {
		return ""
	}
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// HTTPAddress returns the host:port the HTTP listener binds, or "" when
// disabled.
func (c *Config) HTTPAddress() string {
	if c.Server.HTTPPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// AcceptTimeout returns the parsed accept timeout.
func (c *Config) AcceptTimeout() time.Duration { return mustDuration(c.Server.AcceptTimeout) }

// ServerReadTimeout returns the parsed server read timeout.
func (c *Config) ServerReadTimeout() time.Duration { return mustDuration(c.Server.ReadTimeout) }

// ServerWriteTimeout returns the parsed server write timeout.
func (c *Config) ServerWriteTimeout() time.Duration { return mustDuration(c.Server.WriteTimeout) }
