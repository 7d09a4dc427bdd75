package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/pkg/protocol"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Client.Port != DefaultPort {
		t.Errorf("Client.Port = %d, want %d", cfg.Client.Port, DefaultPort)
	}
	if cfg.Client.Host != DefaultHost {
		t.Errorf("Client.Host = %q, want %q", cfg.Client.Host, DefaultHost)
	}
	if cfg.Client.Token != protocol.DefaultToken {
		t.Errorf("Client.Token = %q, want %q", cfg.Client.Token, protocol.DefaultToken)
	}
	if cfg.Match.Ticks != DefaultTicks {
		t.Errorf("Match.Ticks = %d, want %d", cfg.Match.Ticks, DefaultTicks)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); err == nil {
		t.Error("Expected error for missing config")
	}

	configJSON := `{
  "client": {
    "host": "10.0.0.5",
    "port": 4000,
    "readTimeout": "5s"
  },
  "server": {
    "players": 2
  },
  "match": {
    "debugUpdateEvery": 10
  },
  "log": {
    "level": "debug"
  }
}
`
	writeConfig(t, tmpDir, configJSON)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Client.Host != "10.0.0.5" {
		t.Errorf("Client.Host = %q, want %q", cfg.Client.Host, "10.0.0.5")
	}
	if got := cfg.ClientAddress(); got != "10.0.0.5:4000" {
		t.Errorf("ClientAddress() = %q, want %q", got, "10.0.0.5:4000")
	}
	if got := cfg.ClientReadTimeout(); got != 5*time.Second {
		t.Errorf("ClientReadTimeout() = %v, want 5s", got)
	}
	if cfg.Server.Players != 2 {
		t.Errorf("Server.Players = %d, want 2", cfg.Server.Players)
	}
	if cfg.Match.DebugUpdateEvery != 10 {
		t.Errorf("Match.DebugUpdateEvery = %d, want 10", cfg.Match.DebugUpdateEvery)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}

	// Missing fields keep defaults
	if cfg.Client.Token != protocol.DefaultToken {
		t.Errorf("Client.Token = %q, want default", cfg.Client.Token)
	}
	if cfg.Match.Ticks != DefaultTicks {
		t.Errorf("Match.Ticks = %d, want %d", cfg.Match.Ticks, DefaultTicks)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Client.Port != DefaultPort {
		t.Errorf("Client.Port = %d, want default", cfg.Client.Port)
	}

	dir := t.TempDir()
	writeConfig(t, dir, "{")
	if _, err := LoadOrDefault(dir); err == nil {
		t.Error("LoadOrDefault() should report a broken file")
	}
}

func TestLoadSyntaxErrorLocation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "{\n  \"client\": {\n    \"port\": 31001,,\n  }\n}\n")

	_, err := Load(dir)
	var ce *errors.CodegameError
	if !stderrors.As(err, &ce) {
		t.Fatalf("Load() error = %v, want *CodegameError", err)
	}
	if ce.Code != "E200" {
		t.Errorf("Code = %q, want E200", ce.Code)
	}
	if ce.Location == nil {
		t.Fatal("Location = nil, want position of the syntax error")
	}
	if ce.Location.Line != 3 {
		t.Errorf("Location.Line = %d, want 3", ce.Location.Line)
	}
}

func TestLoadTypeError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"client": {"port": "high"}}`)

	_, err := Load(dir)
	var ce *errors.CodegameError
	if !stderrors.As(err, &ce) || ce.Code != "E200" {
		t.Fatalf("Load() error = %v, want E200", err)
	}
	if ce.Location != nil {
		t.Errorf("Location = %v, want nil for type errors", ce.Location)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Server.Players = 4
	cfg.Replay.Bucket = "games"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("saved file should end with a newline")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Server.Players != 4 || loaded.Replay.Bucket != "games" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"valid", func(c *Config) {}, ""},
		{"client port zero", func(c *Config) { c.Client.Port = 0 }, "E201"},
		{"server port too high", func(c *Config) { c.Server.Port = 70000 }, "E201"},
		{"server port disabled", func(c *Config) { c.Server.Port = 0 }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "E202"},
		{"bad timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }, "E203"},
		{"negative timeout", func(c *Config) { c.Client.WriteTimeout = "-1s" }, "E203"},
		{"no players", func(c *Config) { c.Server.Players = 0 }, "E204"},
		{"negative debug interval", func(c *Config) { c.Match.DebugUpdateEvery = -1 }, "E204"},
		{"upload without bucket", func(c *Config) { c.Replay.Upload = true }, "E205"},
		{"upload with bucket", func(c *Config) {
			c.Replay.Upload = true
			c.Replay.Bucket = "games"
			c.Replay.Region = "eu-west-1"
		}, ""},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "E206"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			var ce *errors.CodegameError
			if !stderrors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *CodegameError", err)
			}
			if ce.Code != tt.code {
				t.Errorf("Code = %q, want %q", ce.Code, tt.code)
			}
		})
	}
}

func TestAddresses(t *testing.T) {
	cfg := New()
	if got := cfg.TCPAddress(); got != "127.0.0.1:31001" {
		t.Errorf("TCPAddress() = %q", got)
	}
	if got := cfg.HTTPAddress(); got != "127.0.0.1:31080" {
		t.Errorf("HTTPAddress() = %q", got)
	}

	cfg.Server.Port = 0
	cfg.Server.HTTPPort = 0
	if cfg.TCPAddress() != "" || cfg.HTTPAddress() != "" {
		t.Error("disabled listeners should have empty addresses")
	}

	if got := cfg.AcceptTimeout(); got != 2*time.Minute {
		t.Errorf("AcceptTimeout() = %v, want 2m", got)
	}
	if got := cfg.ClientReadTimeout(); got != 0 {
		t.Errorf("ClientReadTimeout() = %v, want 0", got)
	}
}

func TestPosition(t *testing.T) {
	data := []byte("ab\ncd\nef")
	tests := []struct {
		offset    int64
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 3, 2},
		{100, 3, 3},
	}
	for _, tt := range tests {
		line, col := position(data, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
