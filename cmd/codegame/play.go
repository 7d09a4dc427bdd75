package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vango-dev/codegame/internal/config"
	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/internal/strategy"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/runner"
	"github.com/vango-dev/codegame/pkg/stream"
)

type playFlags struct {
	host     string
	port     int
	token    string
	url      string
	strategy string
	schema   int32
}

func playCmd(global *globalFlags) *cobra.Command {
	var flags playFlags

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Connect a built-in strategy to a host",
		Long: `Connect to a codegame host and play one match with a built-in strategy.

Strategies: ` + joinNames(strategy.Names()) + `

Examples:
  codegame play
  codegame play --port=31002 --token=a1b2c3d4e5f6a7b8
  codegame play --url=ws://127.0.0.1:31080/ws --strategy=idle`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.host, "host", "H", "", "Host to connect to (default from codegame.json)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "TCP port to connect to (default from codegame.json)")
	cmd.Flags().StringVarP(&flags.token, "token", "t", "", "Access token")
	cmd.Flags().StringVar(&flags.url, "url", "", "WebSocket URL; overrides --host and --port")
	cmd.Flags().StringVarP(&flags.strategy, "strategy", "s", "", "Built-in strategy to play")
	cmd.Flags().Int32Var(&flags.schema, "schema", model.SchemaVersion, "Schema version to speak")

	return cmd
}

func runPlay(global *globalFlags, flags playFlags) error {
	cfg, err := loadConfig(global, func(c *config.Config) {
		if flags.host != "" {
			c.Client.Host = flags.host
		}
		if flags.port > 0 {
			c.Client.Port = flags.port
		}
		if flags.token != "" {
			c.Client.Token = flags.token
		}
		if flags.url != "" {
			c.Client.URL = flags.url
		}
		if flags.strategy != "" {
			c.Client.Strategy = flags.strategy
		}
	})
	if err != nil {
		return err
	}

	schema, ok := model.Lookup(flags.schema)
	if !ok {
		return errors.New("E121").WithDetail("This build does not know schema version " + itoa(flags.schema))
	}

	s, err := strategy.Lookup(cfg.Client.Strategy)
	if err != nil {
		return err
	}

	logger, cleanup, err := newLogger(cfg, "play")
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSchema(schema),
		runner.WithStreamOptions(stream.Options{
			ReadTimeout:  cfg.ClientReadTimeout(),
			WriteTimeout: cfg.ClientWriteTimeout(),
		}),
		runner.WithObserver(func(from, to runner.State) {
			logger.Debug("state", zap.Stringer("from", from), zap.Stringer("to", to))
		}),
	}

	var r *runner.Runner
	if cfg.Client.URL != "" {
		info("Connecting to %s", cfg.Client.URL)
		r, err = runner.DialWebSocket(ctx, cfg.Client.URL, cfg.Client.Token, s, opts...)
	} else {
		info("Connecting to %s", cfg.ClientAddress())
		r, err = runner.Dial(ctx, cfg.ClientAddress(), cfg.Client.Token, s, opts...)
	}
	if err != nil {
		return err
	}
	success("Connected, playing %q (schema v%d)", cfg.Client.Strategy, schema.Version)

	if err := r.Run(ctx); err != nil {
		if ctx.Err() != nil {
			warn("Interrupted")
			return nil
		}
		if errors.Classify(err).Code == "" {
			return errors.New("E400").Wrap(err)
		}
		return err
	}

	success("Game finished")
	return nil
}
