package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tir/internal/output"
	"tir/internal/query"
	"tir/internal/watcher"
)

var (
	watchSince    string
	watchFormat   string
	watchDebounce time.Duration
	watchExplain  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run affected-test selection as files change",
	Long: `Watch the project tree and print the affected tests for every debounced
batch of file changes. With --since, each batch is merged with the files git
reports as changed since REF, and the selection runs once at startup.

Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSince, "since", "", "Also include files changed since git revision REF")
	watchCmd.Flags().StringVar(&watchFormat, "format", string(output.FormatList), "Output format (list, tsv, json, yaml, toml, human)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", time.Duration(watcher.DefaultConfig().DebounceMs)*time.Millisecond, "Quiet period before a batch is processed")
	watchCmd.Flags().BoolVar(&watchExplain, "explain", false, "Show the import chain from each test to its trigger")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	format, err := output.ParseFormat(watchFormat, output.FormatList)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	sources := changeSources{since: watchSince}

	selectTests := func(changed []string) {
		extra, err := gitBaseline(ctx, &sources, s)
		if err != nil {
			s.logger.Error("Cannot list git changes", "since", watchSince, "error", err.Error())
			return
		}
		report, err := s.engine.GetAffectedTests(ctx, query.AffectedOptions{
			Changes: append(changed, extra...),
			Chains:  watchExplain,
		})
		if err != nil {
			s.logger.Error("Affected-test selection failed", "error", err.Error())
			return
		}
		if err := output.Render(out, format, report); err != nil {
			s.logger.Error("Cannot write report", "error", err.Error())
		}
	}

	if watchSince != "" {
		selectTests(nil)
	}

	cfg := watcher.DefaultConfig()
	cfg.DebounceMs = int(watchDebounce / time.Millisecond)
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, s.config.Discovery.Ignore...)

	w, err := watcher.New(s.root, cfg, s.logger, func(events []watcher.Event) {
		selectTests(watcher.Paths(events))
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return err
	}

	<-ctx.Done()
	return w.Stop()
}

// gitBaseline returns the files changed since --since, or nothing when the
// flag is unset
func gitBaseline(ctx context.Context, sources *changeSources, s *session) ([]string, error) {
	if !sources.usesGit() {
		return nil, nil
	}
	return sources.gitChanges(ctx, s.root, s.logger)
}
