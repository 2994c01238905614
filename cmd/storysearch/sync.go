package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Acurioustractor/palm-island-repository/application/service"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
	"github.com/Acurioustractor/palm-island-repository/internal/log"
)

func syncCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Embed stories from the database and index them in Qdrant",
		Long: `Embed stories from the database and index them in Qdrant.

Every story is re-embedded and its point replaced. Stories that fail are
reported in the final tally; the command still exits 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runSync(cmd.Context(), cfg, log.Configure(cfg), limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of stories to process (default: SYNC_LIMIT)")

	return cmd
}

func runSync(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, limit int, out io.Writer) error {
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if err := client.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	bar := newSyncBar(out)
	tally, err := client.Sync.Run(ctx, limit, service.WithProgress(bar.update))
	bar.finish()
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	printTally(out, tally)
	return nil
}

// syncBar creates the progress bar once the total is known.
type syncBar struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func newSyncBar(out io.Writer) *syncBar {
	return &syncBar{out: out}
}

func (s *syncBar) update(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		s.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(s.out),
			progressbar.OptionEnableColorCodes(isTerminal(s.out)),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Embedding stories[reset]"),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprintln(s.out)
			}),
		)
	}
	_ = s.bar.Set(done)
}

func (s *syncBar) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func printTally(out io.Writer, tally service.Tally) {
	_, _ = fmt.Fprintf(out, "Processed %d stories: %d embedded, %d failed\n", tally.Total, tally.Succeeded, tally.Failed)
	for _, f := range tally.Failures {
		_, _ = fmt.Fprintf(out, "  story %s: %v\n", f.StoryID, f.Err)
	}
}
