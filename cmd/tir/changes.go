package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tir/internal/backends/git"
	"tir/internal/changeset"
	"tir/internal/errors"
)

// changeSources holds the change-input flags shared by affected and watch
type changeSources struct {
	changesFile string
	diffFile    string
	nullSep     bool
	since       string
	staged      bool
	untracked   bool
}

func (s *changeSources) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.changesFile, "changes", "", "Read changed paths from FILE, one per line (- for stdin)")
	cmd.Flags().BoolVar(&s.nullSep, "null", false, "Changed paths are NUL-delimited (git diff --name-only -z)")
	cmd.Flags().StringVar(&s.diffFile, "diff", "", "Read changed paths from a unified diff FILE (- for stdin)")
	cmd.Flags().StringVar(&s.since, "since", "", "Add files changed since git revision REF")
	cmd.Flags().BoolVar(&s.staged, "staged", false, "Add files staged in git")
	cmd.Flags().BoolVar(&s.untracked, "untracked", false, "Add untracked files git does not ignore")
}

func (s *changeSources) usesGit() bool {
	return s.since != "" || s.staged || s.untracked
}

// collect returns the union of every requested change source plus the
// positional paths. With no source at all, piped stdin is read as a list.
func (s *changeSources) collect(ctx context.Context, cmd *cobra.Command, root string, args []string, logger *slog.Logger) ([]string, error) {
	if s.changesFile == "-" && s.diffFile == "-" {
		return nil, errors.Errorf(errors.InvalidChangeSet, "--changes and --diff cannot both read stdin")
	}

	changes := append([]string(nil), args...)

	if s.changesFile != "" {
		paths, err := readSource(cmd, s.changesFile, func(r io.Reader) ([]string, error) {
			return changeset.ParseList(r, s.nullSep)
		})
		if err != nil {
			return nil, err
		}
		changes = append(changes, paths...)
	}

	if s.diffFile != "" {
		paths, err := readSource(cmd, s.diffFile, changeset.ParseDiff)
		if err != nil {
			return nil, err
		}
		changes = append(changes, paths...)
	}

	if s.usesGit() {
		paths, err := s.gitChanges(ctx, root, logger)
		if err != nil {
			return nil, err
		}
		changes = append(changes, paths...)
	}

	if s.changesFile == "" && s.diffFile == "" && !s.usesGit() && len(args) == 0 {
		if isTerminal(cmd.InOrStdin()) {
			return nil, errors.NewTirError(errors.InvalidChangeSet,
				"no change input: pass paths, --changes, --diff, --since, --staged or pipe a list on stdin", nil).
				WithDetails(map[string]interface{}{"hint": "git diff --name-only main | tir affected"})
		}
		return changeset.ParseList(cmd.InOrStdin(), s.nullSep)
	}

	return changes, nil
}

func (s *changeSources) gitChanges(ctx context.Context, root string, logger *slog.Logger) ([]string, error) {
	adapter, err := git.NewGitAdapter(ctx, root, logger)
	if err != nil {
		return nil, err
	}

	var out []string
	if s.since != "" {
		paths, err := adapter.ChangedSince(ctx, s.since)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	if s.staged {
		paths, err := adapter.StagedChanges(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	if s.untracked {
		paths, err := adapter.UntrackedFiles(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

func readSource(cmd *cobra.Command, name string, parse func(io.Reader) ([]string, error)) ([]string, error) {
	if name == "-" {
		return parse(cmd.InOrStdin())
	}
	f, err := os.Open(name) // #nosec G304 -- user-selected input file
	if err != nil {
		return nil, errors.NewTirError(errors.InvalidChangeSet, "cannot open change input "+name, err)
	}
	defer f.Close() //nolint:errcheck
	return parse(f)
}
