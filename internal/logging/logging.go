// Package logging builds the zap loggers used by the codegame commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vango-dev/codegame/internal/config"
)

// New builds a logger from cfg writing to out (os.Stderr when nil).
// When cfg.File is set, entries are also written as JSON to a rotating file.
// The returned function flushes buffered entries and closes the file.
func New(cfg config.LogConfig, out io.Writer) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	if out == nil {
		out = os.Stderr
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		levelEncoder := zapcore.CapitalLevelEncoder
		if out == os.Stderr {
			levelEncoder = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig(levelEncoder))
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder))
	default:
		return nil, nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level),
	}

	var lj *lumberjack.Logger
	if cfg.File != "" {
		lj = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		fileEncoder := zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder))
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(lj), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	cleanup := func() {
		_ = logger.Sync()
		if lj != nil {
			_ = lj.Close()
		}
	}
	return logger, cleanup, nil
}

// Must is like New but panics on error. Intended for tests and examples.
func Must(cfg config.LogConfig, out io.Writer) *zap.Logger {
	logger, _, err := New(cfg, out)
	if err != nil {
		panic(err)
	}
	return logger
}

func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   levelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	}
}
