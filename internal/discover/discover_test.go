package discover

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tir/internal/config"
	"tir/internal/diag"
)

func defaultFinder(sink diag.Sink, ignore ...string) *Finder {
	cfg := config.DefaultConfig()
	return NewFinder(Options{
		TestPatterns:     cfg.Discovery.TestPatterns,
		SourceExtensions: cfg.Discovery.SourceExtensions,
		Ignore:           ignore,
		Sink:             sink,
	})
}

func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, rel := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, nil, 0o644))
	}
}

func TestFinder_Find(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"src/a.ts",
		"src/a.test.ts",
		"src/b.spec.js",
		"src/c_test.mjs",
		"src/__tests__/d.tsx",
		"test/e.js",
		"tests/nested/f.cjs",
		"zz.test.jsx",
		"src/types.test.d.ts",
		"src/readme.test.md",
		"node_modules/pkg/x.test.js",
		"dist/y.test.js",
		"coverage/z.spec.js",
		".git/hooks/h.test.js",
		".tir/q.test.js",
		"fixtures/skip.test.ts",
	)

	sink := diag.NewCollector()
	got, err := defaultFinder(sink, "fixtures/**").Find(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src/__tests__/d.tsx",
		"src/a.test.ts",
		"src/b.spec.js",
		"src/c_test.mjs",
		"test/e.js",
		"tests/nested/f.cjs",
		"zz.test.jsx",
	}, got)
	assert.Zero(t, sink.Len())
}

func TestFinder_Deterministic(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b/x.test.js", "a/y.test.js", "c.test.ts", "a/b/z.spec.ts")

	f := defaultFinder(nil)
	first, err := f.Find(context.Background(), root)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.Find(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"a/b/z.spec.ts", "a/y.test.js", "b/x.test.js", "c.test.ts"}, first)
}

func TestFinder_UnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	touch(t, root, "ok.test.js", "locked/hidden.test.js")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) }) //nolint:errcheck

	sink := diag.NewCollector()
	got, err := defaultFinder(sink).Find(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.test.js"}, got)

	diags := sink.Sorted()
	require.Len(t, diags, 1)
	assert.Equal(t, "locked", diags[0].Path)
	assert.Equal(t, diag.StageDiscover, diags[0].Stage)
}

func TestFinder_MissingRoot(t *testing.T) {
	_, err := defaultFinder(nil).Find(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFinder_IsTestFile(t *testing.T) {
	f := defaultFinder(nil)
	tests := map[string]bool{
		"a.test.ts":               true,
		"deep/dir/a.spec.tsx":     true,
		"src/__tests__/helper.js": true,
		"src/a.ts":                false,
		"src/a.test.json":         false,
		"src/a.test.d.ts":         false,
		"node_modules/a.test.js":  false,
		"src/testing/a.js":        false,
	}
	for rel, want := range tests {
		assert.Equal(t, want, f.IsTestFile(rel), rel)
	}
}
