package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/codegame/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		asJSON := false
		if f := root.PersistentFlags().Lookup("log-format"); f != nil {
			asJSON = f.Value.String() == "json"
		}
		errors.Fprint(os.Stderr, err, asJSON)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "codegame",
		Short: "Host and play codegame matches",
		Long: `codegame hosts strategy matches and connects player clients to them.

Players talk to the host over TCP or WebSocket with a small binary
protocol: the host sends the world state, the client answers with
orders and may draw debug shapes while it thinks.

  • serve   host a match and wait for players
  • play    connect a built-in strategy to a host
  • replay  inspect or upload a recorded match`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to codegame.json (default ./codegame.json if present)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: console, json")

	rootCmd.AddCommand(
		serveCmd(&flags),
		playCmd(&flags),
		replayCmd(&flags),
		initCmd(),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
