package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tir/internal/output"
)

var (
	cacheStatsFormat string
	cachePruneAge    time.Duration
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the specifier cache",
	Long: `The specifier cache in .tir/cache.db stores the import specifiers extracted
from each file, keyed by content hash. Entries never go stale, but unused ones
accumulate as files change.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and age",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries not used recently",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	cacheStatsCmd.Flags().StringVar(&cacheStatsFormat, "format", "", "Output format (list, tsv, json, yaml, toml, human)")
	cachePruneCmd.Flags().DurationVar(&cachePruneAge, "older-than", 30*24*time.Hour, "Remove entries not refreshed within this duration")

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	format, err := output.ParseFormat(cacheStatsFormat, output.DefaultFormat(isTerminal(out)))
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.engine.CacheStats()
	if err != nil {
		return err
	}
	return output.Render(out, format, report)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.engine.ClearCache()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries.\n", n)
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.engine.PruneCache(cachePruneAge)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries older than %s.\n", n, cachePruneAge)
	return nil
}
