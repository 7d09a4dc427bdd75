package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vango-dev/codegame/internal/config"
	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/pkg/host"
	"github.com/vango-dev/codegame/pkg/match"
	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/replay"
)

type serveFlags struct {
	host     string
	port     int
	httpPort int
	token    string
	players  int
	ticks    int
	seed     int64
	replay   string
	upload   bool
}

func serveCmd(global *globalFlags) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host a match",
		Long: `Host one match of the arena game.

The host waits for the configured number of players on the TCP port
and the /ws WebSocket endpoint, plays the match and prints the results.
Seats still empty after the accept timeout count as crashed.

The HTTP port also serves /healthz and, when metrics are enabled,
Prometheus metrics on /metrics.

Examples:
  codegame serve
  codegame serve --players=2 --ticks=1000
  codegame serve --replay=last.replay --upload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.host, "host", "H", "", "Host to bind to (default from codegame.json)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "TCP port for players (default from codegame.json)")
	cmd.Flags().IntVar(&flags.httpPort, "http-port", 0, "HTTP port for /ws, /healthz and /metrics")
	cmd.Flags().StringVarP(&flags.token, "token", "t", "", "Access token players must send")
	cmd.Flags().IntVarP(&flags.players, "players", "n", 0, "Number of players")
	cmd.Flags().IntVar(&flags.ticks, "ticks", 0, "Match length in ticks")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Seed for unit placement")
	cmd.Flags().StringVarP(&flags.replay, "replay", "r", "", "Record the match to this file")
	cmd.Flags().BoolVar(&flags.upload, "upload", false, "Upload the replay to the configured bucket")

	return cmd
}

func runServe(global *globalFlags, flags serveFlags) error {
	cfg, err := loadConfig(global, func(c *config.Config) {
		if flags.host != "" {
			c.Server.Host = flags.host
		}
		if flags.port > 0 {
			c.Server.Port = flags.port
		}
		if flags.httpPort > 0 {
			c.Server.HTTPPort = flags.httpPort
		}
		if flags.token != "" {
			c.Server.Token = flags.token
		}
		if flags.players > 0 {
			c.Server.Players = flags.players
		}
		if flags.ticks > 0 {
			c.Match.Ticks = flags.ticks
		}
		if flags.seed != 0 {
			c.Match.Seed = flags.seed
		}
		if flags.replay != "" {
			c.Replay.Path = flags.replay
		}
		if flags.upload {
			c.Replay.Upload = true
		}
	})
	if err != nil {
		return err
	}
	if cfg.Replay.Upload && cfg.Replay.Path == "" {
		return errors.New("E205").WithDetail("Uploading needs a replay file; set replay.path or --replay.")
	}

	logger, cleanup, err := newLogger(cfg, "serve")
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	var m *metrics.Collector
	if cfg.Metrics.Enabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(metrics.WithRegistry(reg), metrics.WithNamespace(cfg.Metrics.Namespace))
	}

	srv := host.NewServer(host.Config{
		Token:        cfg.Server.Token,
		MaxPlayers:   cfg.Server.Players,
		ReadTimeout:  cfg.ServerReadTimeout(),
		WriteTimeout: cfg.ServerWriteTimeout(),
		Logger:       logger,
		Metrics:      m,
	})
	defer srv.Close()

	if addr := cfg.TCPAddress(); addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return errors.New("E104").WithDetail("Cannot listen on " + addr).Wrap(err)
		}
		go func() {
			if err := srv.ServeTCP(ctx, ln); err != nil && ctx.Err() == nil && !stderrors.Is(err, host.ErrServerClosed) {
				logger.Error("tcp listener stopped", zap.Error(err))
			}
		}()
		info("Players: tcp://%s", addr)
	}

	if addr := cfg.HTTPAddress(); addr != "" {
		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           newRouter(srv, reg, cfg.Metrics.Enabled),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				logger.Error("http listener stopped", zap.Error(err))
			}
		}()
		defer shutdownHTTP(httpSrv, 5*time.Second, logger)
		info("Players: ws://%s/ws", addr)
	}

	players, missing, err := waitPlayers(ctx, srv, cfg, logger)
	if err != nil {
		warn("Interrupted while waiting for players")
		return nil
	}
	if missing > 0 {
		warn("%d of %d players did not connect", missing, cfg.Server.Players)
	} else {
		success("All %d players connected", cfg.Server.Players)
	}

	seed := cfg.Match.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	game := match.NewArena(match.ArenaConfig{
		Players:        cfg.Server.Players,
		Ticks:          cfg.Match.Ticks,
		MapSize:        cfg.Match.MapSize,
		UnitsPerPlayer: cfg.Match.UnitsPerPlayer,
		Seed:           seed,
	})

	opts := []match.Option{
		match.WithSeed(seed),
		match.WithDebugUpdateEvery(cfg.Match.DebugUpdateEvery),
		match.WithTurnTimeout(cfg.ServerReadTimeout()),
		match.WithLogger(logger),
		match.WithMetrics(m),
	}

	var rec *replay.Recorder
	if cfg.Replay.Path != "" {
		rec, err = replay.Create(cfg.Replay.Path, model.SchemaVersion)
		if err != nil {
			return err
		}
		defer rec.Close()
		opts = append(opts, match.WithTickHandler(func(view model.PlayerView) {
			if err := rec.Record(view); err != nil {
				logger.Warn("replay record failed", zap.Int32("tick", view.Tick), zap.Error(err))
			}
		}))
	}

	proc, err := match.NewProcessor(game, players, opts...)
	if err != nil {
		return err
	}
	for i, p := range players {
		if _, ok := p.(match.FailedPlayer); ok {
			proc.Crash(i, "Player did not connect")
		}
	}

	results, err := proc.Run(ctx)
	printResults(results)
	if err != nil {
		return errors.New("E301").WithDetail(fmt.Sprintf("Stopped after %d of %d ticks.", results.Ticks, cfg.Match.Ticks)).Wrap(err)
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			return err
		}
		success("Replay written to %s (%d ticks)", cfg.Replay.Path, rec.Count())

		if cfg.Replay.Upload {
			key, err := uploadReplay(ctx, cfg, cfg.Replay.Path)
			if err != nil {
				return err
			}
			success("Replay uploaded to s3://%s/%s", cfg.Replay.Bucket, key)
		}
	}

	return nil
}

// waitPlayers waits for every seat until the accept timeout. Empty seats
// are filled with failed players.
func waitPlayers(ctx context.Context, srv *host.Server, cfg *config.Config, logger *zap.Logger) ([]match.Player, int, error) {
	wctx := ctx
	if d := cfg.AcceptTimeout(); d > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	info("Waiting for %d players...", cfg.Server.Players)
	remote, err := srv.Wait(wctx, cfg.Server.Players)
	if err != nil && ctx.Err() != nil {
		for _, p := range remote {
			p.Close()
		}
		return nil, 0, ctx.Err()
	}

	players := make([]match.Player, cfg.Server.Players)
	for i := range players {
		if i < len(remote) {
			p := remote[i]
			seat := i
			p.SetDebugHandler(func(cmd model.DebugCommand) {
				logger.Debug("debug command", zap.Int("seat", seat), zap.String("session_id", p.ID()), zap.String("command", debugCommandName(cmd)))
			})
			players[i] = p
			continue
		}
		players[i] = match.FailedPlayer{Err: errors.New("E300")}
	}
	return players, cfg.Server.Players - len(remote), nil
}

func debugCommandName(cmd model.DebugCommand) string {
	switch c := cmd.(type) {
	case model.DebugAdd:
		return fmt.Sprintf("add %T", c.Data)
	case model.DebugClear:
		return "clear"
	default:
		return fmt.Sprintf("%T", cmd)
	}
}

// shutdownHTTP stops srv, giving in-flight requests up to timeout.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

// newRouter builds the HTTP surface of the host.
func newRouter(srv *host.Server, reg *prometheus.Registry, withMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		// A failed write means the health checker hung up.
		_, _ = io.WriteString(w, "ok\n")
	})
	if withMetrics {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	r.Get("/ws", srv.HandleWebSocket)

	return r
}

func printResults(results match.Results) {
	fmt.Println()
	info("Ticks: %d  Seed: %d", results.Ticks, results.Seed)
	for i, p := range results.Players {
		line := fmt.Sprintf("Player %d: %d", i+1, p.Score)
		if p.Crashed {
			line += "  (" + p.Comment + ")"
		}
		info("%s", line)
	}
	fmt.Println()
}
