package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tir/internal/extract"
	"tir/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, build and extractor information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full(extract.Default().Name()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
