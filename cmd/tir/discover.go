package main

import (
	"github.com/spf13/cobra"

	"tir/internal/output"
)

var discoverFormat string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the test files tir recognizes",
	Long: `List every file under the project root that matches the configured test
patterns, in sorted order. Use this to check discovery.testPatterns.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "", "Output format (list, tsv, json, yaml, toml, human)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	format, err := output.ParseFormat(discoverFormat, output.DefaultFormat(isTerminal(out)))
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.engine.Discover(cmd.Context())
	if err != nil {
		return err
	}
	return output.Render(out, format, report)
}
