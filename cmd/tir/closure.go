package main

import (
	"github.com/spf13/cobra"

	"tir/internal/output"
)

var (
	closureFormat string
	closureEdges  bool
)

var closureCmd = &cobra.Command{
	Use:   "closure <file>",
	Short: "Show the local dependency closure of a file",
	Long: `Show every project file reachable from <file> through static imports.

External packages and unresolvable specifiers are not part of the closure.

Examples:
  tir closure src/cart.test.ts
  tir closure src/cart.test.ts --edges --format tsv`,
	Args: cobra.ExactArgs(1),
	RunE: runClosure,
}

func init() {
	closureCmd.Flags().StringVar(&closureFormat, "format", "", "Output format (list, tsv, json, yaml, toml, human)")
	closureCmd.Flags().BoolVar(&closureEdges, "edges", false, "Include the import edges")

	rootCmd.AddCommand(closureCmd)
}

func runClosure(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	format, err := output.ParseFormat(closureFormat, output.DefaultFormat(isTerminal(out)))
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.engine.GetClosure(cmd.Context(), args[0], closureEdges)
	if err != nil {
		return err
	}
	return output.Render(out, format, report)
}
