package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tir/internal/config"
	"tir/internal/errors"
	"tir/internal/paths"
	"tir/internal/query"
	"tir/internal/slogutil"
	"tir/internal/version"
)

var (
	rootDir     string
	verbosity   int
	quiet       bool
	logFile     string
	workersFlag int
	noCache     bool
)

var rootCmd = &cobra.Command{
	Use:   "tir",
	Short: "tir - Test Impact Resolver",
	Long: `tir selects the test files affected by a set of changed files.

It builds the static import closure of every test file in a JavaScript or
TypeScript project and reports the tests whose own file or closure contains a
changed path. The plain list output can be passed straight to a test runner.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("tir version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")
	rootCmd.PersistentFlags().IntVar(&workersFlag, "workers", 0, "Closure workers (0 uses analysis.workers from config)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Disable the specifier cache for this run")
}

// session is the per-command environment: resolved root, configuration,
// logger and query engine.
type session struct {
	root   string
	config *config.Config
	logger *slog.Logger
	engine *query.Engine

	closers []io.Closer
}

// newSession loads configuration for --root, applies command-line overrides
// and opens a query engine. Logs go to stderr so stdout carries only results.
func newSession(cmd *cobra.Command) (*session, error) {
	root, err := paths.ResolveRoot(rootDir)
	if err != nil {
		return nil, errors.NewTirError(errors.ProjectRootUnreadable, "cannot read project root "+rootDir, err)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, errors.NewTirError(errors.ConfigInvalid, "failed to load configuration", err)
	}
	if workersFlag > 0 {
		cfg.Analysis.Workers = workersFlag
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	s := &session{root: root, config: cfg}
	if err := s.openLogger(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}

	engine, err := query.NewEngine(root, cfg, s.logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine = engine
	s.closers = append(s.closers, engine)
	return s, nil
}

func (s *session) openLogger(stderr io.Writer) error {
	level := slogutil.CLILevel(verbosity, quiet, s.config.Logging.Level)
	s.logger = slogutil.NewFormattedLogger(stderr, level, s.config.Logging.Format)
	if logFile == "" {
		return nil
	}

	fileLogger, f, err := slogutil.NewFileLogger(logFile, slog.LevelDebug)
	if err != nil {
		return errors.NewTirError(errors.InternalError, "cannot open log file "+logFile, err)
	}
	s.closers = append(s.closers, f)
	s.logger = slog.New(slogutil.NewTeeHandler(s.logger.Handler(), fileLogger.Handler()))
	return nil
}

// Close releases the engine and log file
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}

// isTerminal reports whether v is an *os.File attached to a terminal
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
