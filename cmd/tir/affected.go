package main

import (
	"github.com/spf13/cobra"

	"tir/internal/output"
	"tir/internal/query"
)

var (
	affectedSources changeSources
	affectedFormat  string
	affectedExplain bool
)

var affectedCmd = &cobra.Command{
	Use:   "affected [paths...]",
	Short: "List test files affected by changed files",
	Long: `List the test files whose own file or static import closure contains a
changed path.

Changed paths come from the positional arguments and any of --changes, --diff,
--since, --staged and --untracked; all sources are merged. Without any source,
a change list piped on stdin is read. Paths may be absolute or relative to the
project root. Deleted files still count as changed.

Examples:
  git diff --name-only main | tir affected      # Pipe a change list
  tir affected src/cart.ts src/money.ts         # Name changed files directly
  tir affected --since origin/main              # Ask git what changed
  tir affected --diff pr.patch --format json    # Parse a unified diff
  tir affected --staged --explain --format human`,
	Args: cobra.ArbitraryArgs,
	RunE: runAffected,
}

func init() {
	affectedSources.register(affectedCmd)
	affectedCmd.Flags().StringVar(&affectedFormat, "format", "", "Output format (list, tsv, json, yaml, toml, human); human on a terminal, list otherwise")
	affectedCmd.Flags().BoolVar(&affectedExplain, "explain", false, "Show the import chain from each test to its trigger")

	rootCmd.AddCommand(affectedCmd)
}

func runAffected(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	format, err := output.ParseFormat(affectedFormat, output.DefaultFormat(isTerminal(out)))
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	changes, err := affectedSources.collect(ctx, cmd, s.root, args, s.logger)
	if err != nil {
		return err
	}

	report, err := s.engine.GetAffectedTests(ctx, query.AffectedOptions{
		Changes: changes,
		Chains:  affectedExplain,
	})
	if err != nil {
		return err
	}
	return output.Render(out, format, report)
}
