package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"tir/internal/errors"
	"tir/internal/slogutil"
)

// setupTestRepo creates a repository with one commit holding src/a.ts and src/b.ts
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	run("init", "-q")
	writeFile(t, root, "src/a.ts", "export const a = 1;\n")
	writeFile(t, root, "src/b.ts", "export const b = 1;\n")
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func gitRun(t *testing.T, root string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func TestGitAdapter_ChangedSince(t *testing.T) {
	root := setupTestRepo(t)
	ctx := context.Background()

	adapter, err := NewGitAdapter(ctx, root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewGitAdapter failed: %v", err)
	}

	writeFile(t, root, "src/a.ts", "export const a = 2;\n")
	if err := os.Remove(filepath.Join(root, "src", "b.ts")); err != nil {
		t.Fatal(err)
	}

	got, err := adapter.ChangedSince(ctx, "HEAD")
	if err != nil {
		t.Fatalf("ChangedSince failed: %v", err)
	}
	sort.Strings(got)
	want := []string{"src/a.ts", "src/b.ts"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ChangedSince = %v, want %v", got, want)
	}
}

func TestGitAdapter_StagedAndUntracked(t *testing.T) {
	root := setupTestRepo(t)
	ctx := context.Background()

	adapter, err := NewGitAdapter(ctx, root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewGitAdapter failed: %v", err)
	}

	writeFile(t, root, "src/a.ts", "export const a = 3;\n")
	gitRun(t, root, "add", "src/a.ts")
	writeFile(t, root, "src/new.test.ts", "import './a';\n")

	staged, err := adapter.StagedChanges(ctx)
	if err != nil {
		t.Fatalf("StagedChanges failed: %v", err)
	}
	if len(staged) != 1 || staged[0] != "src/a.ts" {
		t.Errorf("StagedChanges = %v", staged)
	}

	untracked, err := adapter.UntrackedFiles(ctx)
	if err != nil {
		t.Fatalf("UntrackedFiles failed: %v", err)
	}
	if len(untracked) != 1 || untracked[0] != "src/new.test.ts" {
		t.Errorf("UntrackedFiles = %v", untracked)
	}
}

func TestGitAdapter_SubdirectoryRoot(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	root := filepath.Join(repo, "src")
	adapter, err := NewGitAdapter(ctx, root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewGitAdapter failed: %v", err)
	}

	writeFile(t, repo, "src/a.ts", "export const a = 4;\n")
	writeFile(t, repo, "README.md", "outside\n")
	gitRun(t, repo, "add", "README.md")

	got, err := adapter.ChangedSince(ctx, "HEAD")
	if err != nil {
		t.Fatalf("ChangedSince failed: %v", err)
	}
	if len(got) != 1 || got[0] != "a.ts" {
		t.Errorf("ChangedSince = %v, want [a.ts]", got)
	}
}

func TestGitAdapter_BadRevision(t *testing.T) {
	root := setupTestRepo(t)
	ctx := context.Background()

	adapter, err := NewGitAdapter(ctx, root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewGitAdapter failed: %v", err)
	}

	for _, ref := range []string{"no-such-branch", "--output=/tmp/x"} {
		_, err := adapter.ChangedSince(ctx, ref)
		if err == nil {
			t.Fatalf("expected error for %q", ref)
		}
		if code := errors.CodeOf(err); code != errors.InvalidChangeSet {
			t.Errorf("%q: code = %s, want %s", ref, code, errors.InvalidChangeSet)
		}
	}
}

func TestNewGitAdapter_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	_, err := NewGitAdapter(context.Background(), dir, slogutil.NewDiscardLogger())
	if err == nil {
		t.Fatal("expected error outside a work tree")
	}
	if code := errors.CodeOf(err); code != errors.GitUnavailable {
		t.Errorf("code = %s, want %s", code, errors.GitUnavailable)
	}
}
