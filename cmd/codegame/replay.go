package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/codegame/internal/config"
	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/replay"
)

type replayFlags struct {
	verbose bool
	upload  bool
	bucket  string
	prefix  string
}

func replayCmd(global *globalFlags) *cobra.Command {
	var flags replayFlags

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Inspect or upload a recorded match",
		Long: `Read a replay written by "codegame serve --replay" and print a summary.

With --upload the replay is validated and stored in the S3 bucket from
the replay section of codegame.json. Credentials come from the default
AWS chain: environment variables, shared config and profiles, SSO or
instance metadata.

Examples:
  codegame replay last.replay
  codegame replay last.replay --verbose
  codegame replay last.replay --upload --bucket=matches`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, global, flags, args[0])
		},
	}

	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print every tick")
	cmd.Flags().BoolVar(&flags.upload, "upload", false, "Upload the replay to S3")
	cmd.Flags().StringVar(&flags.bucket, "bucket", "", "Bucket to upload to (default from codegame.json)")
	cmd.Flags().StringVar(&flags.prefix, "prefix", "", "Key prefix for uploads (default from codegame.json)")

	return cmd
}

func runReplay(cmd *cobra.Command, global *globalFlags, flags replayFlags, path string) error {
	header, views, err := replay.ReadAll(path)
	if err != nil {
		return errors.Classify(err).WithDetail("Reading " + path)
	}
	printReplay(cmd.OutOrStdout(), header, views, flags.verbose)

	if !flags.upload {
		return nil
	}

	cfg, err := loadConfig(global, func(c *config.Config) {
		c.Replay.Upload = true
		if flags.bucket != "" {
			c.Replay.Bucket = flags.bucket
		}
		if flags.prefix != "" {
			c.Replay.Prefix = flags.prefix
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	key, err := uploadReplay(ctx, cfg, path)
	if err != nil {
		return err
	}
	success("Uploaded to s3://%s/%s", cfg.Replay.Bucket, key)
	return nil
}

// uploadReplay stores the replay at path in the configured bucket and
// returns its object key.
func uploadReplay(ctx context.Context, cfg *config.Config, path string) (string, error) {
	client, err := replay.NewS3Client(ctx, cfg.Replay.Region, cfg.Replay.Endpoint)
	if err != nil {
		return "", errors.New("E311").WithDetail("Cannot load AWS configuration").Wrap(err)
	}

	key, err := replay.NewS3Uploader(client, cfg.Replay.Bucket, cfg.Replay.Prefix).Upload(ctx, path)
	if err != nil {
		return "", errors.New("E311").Wrap(err)
	}
	return key, nil
}

// printReplay writes a summary of a replay: the header, the number of
// recorded ticks and the final scores.
func printReplay(w io.Writer, header replay.Header, views []model.PlayerView, verbose bool) {
	fmt.Fprintf(w, "Schema version: %d\n", header.Version)
	fmt.Fprintf(w, "Recorded:       %s\n", header.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Ticks:          %d\n", len(views))

	if len(views) == 0 {
		return
	}

	if verbose {
		fmt.Fprintln(w)
		for _, v := range views {
			fmt.Fprintf(w, "  tick %4d  units %3d  scores %s\n", v.Tick, len(v.Units), scoreLine(v.Players))
		}
	}

	last := views[len(views)-1]
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Final scores:")
	for _, p := range last.Players {
		fmt.Fprintf(w, "  %-12s %d\n", p.Name, p.Score)
	}
}

func scoreLine(players []model.Player) string {
	scores := make([]string, len(players))
	for i, p := range players {
		scores[i] = itoa(p.Score)
	}
	return joinNames(scores)
}
