package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/vango-dev/codegame/internal/config"
)

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(config.LogConfig{Level: "warn", Format: "console"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown", zap.Int("tick", 3))
	cleanup()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "WARN") {
		t.Errorf("output = %q, want warn entry", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output = %q, want no color codes off-terminal", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("turn", zap.Int32("tick", 7))
	cleanup()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if entry["msg"] != "turn" || entry["level"] != "debug" || entry["tick"] != float64(7) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegame.log")

	var buf bytes.Buffer
	logger, cleanup, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("to file")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) {
		t.Errorf("log file = %q, want JSON entry", data)
	}
	if !strings.Contains(buf.String(), "to file") {
		t.Errorf("console output = %q, want entry too", buf.String())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{"bad level", config.LogConfig{Level: "loud"}},
		{"bad format", config.LogConfig{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := New(tt.cfg, &bytes.Buffer{}); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}
