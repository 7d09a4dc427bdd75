package main

import (
	"go.uber.org/zap"

	"github.com/vango-dev/codegame/internal/config"
	"github.com/vango-dev/codegame/internal/logging"
)

// globalFlags are the flags shared by every command.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

// loadConfig loads codegame.json, applies overrides and validates the
// result.
func loadConfig(flags *globalFlags, override func(*config.Config)) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadOrDefault(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger. The returned function flushes it.
func newLogger(cfg *config.Config, name string) (*zap.Logger, func(), error) {
	logger, cleanup, err := logging.New(cfg.Log, nil)
	if err != nil {
		return nil, nil, err
	}
	return logger.Named(name), cleanup, nil
}
