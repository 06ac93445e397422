// Package git lists changed files using the git command line.
package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"tir/internal/errors"
)

// DefaultQueryTimeout bounds a single git invocation
const DefaultQueryTimeout = 30 * time.Second

// GitAdapter runs git in the project root. Every path it returns is relative
// to that root; changes outside it are excluded by git itself (--relative).
type GitAdapter struct {
	repoRoot     string
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewGitAdapter creates an adapter for repoRoot and verifies that git can
// see a work tree there.
func NewGitAdapter(ctx context.Context, repoRoot string, logger *slog.Logger) (*GitAdapter, error) {
	adapter := &GitAdapter{
		repoRoot:     repoRoot,
		queryTimeout: DefaultQueryTimeout,
		logger:       logger,
	}

	if !adapter.IsAvailable(ctx) {
		return nil, errors.NewTirError(
			errors.GitUnavailable,
			"git is not available for "+repoRoot,
			nil,
		)
	}

	logger.Debug("Git adapter initialized", "repoRoot", repoRoot)
	return adapter, nil
}

// IsAvailable checks that git is installed and repoRoot is inside a work tree
func (g *GitAdapter) IsAvailable(ctx context.Context) bool {
	out, err := g.executeGitCommand(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// ChangedSince lists files that differ between ref and the working tree.
// Renames are reported as a deletion plus an addition so both paths appear.
func (g *GitAdapter) ChangedSince(ctx context.Context, ref string) ([]string, error) {
	if strings.HasPrefix(ref, "-") {
		return nil, errors.Errorf(errors.InvalidChangeSet, "invalid revision %q", ref)
	}
	return g.executeGitCommandPaths(ctx, "diff", "--name-only", "-z", "--no-renames", "--relative", ref, "--")
}

// StagedChanges lists files staged in the index
func (g *GitAdapter) StagedChanges(ctx context.Context) ([]string, error) {
	return g.executeGitCommandPaths(ctx, "diff", "--cached", "--name-only", "-z", "--no-renames", "--relative", "--")
}

// UntrackedFiles lists files git does not track and does not ignore
func (g *GitAdapter) UntrackedFiles(ctx context.Context) ([]string, error) {
	return g.executeGitCommandPaths(ctx, "ls-files", "--others", "--exclude-standard", "-z")
}

// executeGitCommand runs a git command with timeout and returns its stdout
func (g *GitAdapter) executeGitCommand(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...) // #nosec G204 //nolint:gosec // fixed git subcommands
	cmd.Dir = g.repoRoot

	g.logger.Debug("Executing git command", "args", strings.Join(args, " "))

	output, err := cmd.Output()
	if err == nil {
		return output, nil
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.NewTirError(errors.InternalError, "git command timed out", err)
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return nil, errors.NewTirError(
			errors.InvalidChangeSet,
			"git "+args[0]+" failed",
			err,
		).WithDetails(map[string]interface{}{
			"args":   args,
			"stderr": strings.TrimSpace(string(exitErr.Stderr)),
		})
	}
	return nil, errors.NewTirError(errors.GitUnavailable, "failed to execute git", err)
}

// executeGitCommandPaths runs a -z git command and splits its output
func (g *GitAdapter) executeGitCommandPaths(ctx context.Context, args ...string) ([]string, error) {
	output, err := g.executeGitCommand(ctx, args...)
	if err != nil {
		return nil, err
	}

	parts := bytes.Split(output, []byte{0})
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			result = append(result, string(p))
		}
	}
	return result, nil
}
