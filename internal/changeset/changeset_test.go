package changeset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tir/internal/errors"
)

func realRoot(t *testing.T, files ...string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for _, rel := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, nil, 0o644))
	}
	return root
}

func TestNormalizeEntry(t *testing.T) {
	root := realRoot(t, "src/a.ts")

	tests := []struct {
		raw  string
		want string
	}{
		{"src/a.ts", "src/a.ts"},
		{"./src/a.ts", "src/a.ts"},
		{"src//lib/../a.ts", "src/a.ts"},
		{`src\a.ts`, "src/a.ts"},
		{"src/a.ts\r\n", "src/a.ts"},
		{" spaced name.ts ", " spaced name.ts "},
		{"src/ lead.ts", "src/ lead.ts"},
		{"   ", ""},
		{filepath.Join(root, "src", "a.ts"), "src/a.ts"},
		{filepath.Join(root, "src", "deleted.ts"), "src/deleted.ts"},
		{"", ""},
		{".", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeEntry(root, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := NormalizeEntry(root, got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalization must be idempotent")
		})
	}
}

func TestNormalizeEntry_OutsideRoot(t *testing.T) {
	root := realRoot(t)
	for _, raw := range []string{"../escape.ts", "src/../../x.ts", filepath.Dir(root)} {
		_, err := NormalizeEntry(root, raw)
		require.Error(t, err, raw)
		assert.Equal(t, errors.InvalidChangeSet, errors.CodeOf(err))
	}
}

func TestNormalize(t *testing.T) {
	root := realRoot(t, "src/a.ts", "src/b.ts")

	cs, err := Normalize(root, []string{"src/b.ts", "", "./src/a.ts", "src/b.ts", "src/gone.ts"})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/b.ts", "src/a.ts", "src/gone.ts"}, cs.Paths)
	assert.Equal(t, []string{"src/gone.ts"}, cs.Deleted)
	assert.Equal(t, 3, cs.Len())
	assert.True(t, cs.Contains("src/a.ts"))
	assert.False(t, cs.Contains("./src/a.ts"))

	again, err := Normalize(root, cs.Paths)
	require.NoError(t, err)
	assert.Equal(t, cs.Paths, again.Paths)
}

func TestNormalize_SpacesInNames(t *testing.T) {
	root := realRoot(t, "src/ padded .ts")

	cs, err := Normalize(root, []string{"src/ padded .ts\r"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/ padded .ts"}, cs.Paths)
	assert.Empty(t, cs.Deleted, "a name with surrounding spaces must match the file on disk")
}

func TestNormalize_Empty(t *testing.T) {
	cs, err := Normalize(realRoot(t), nil)
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())

	var nilSet *ChangeSet
	assert.False(t, nilSet.Contains("x"))
	assert.Zero(t, nilSet.Len())
}

func TestParseList(t *testing.T) {
	got, err := ParseList(strings.NewReader("src/a.ts\r\n\nsrc/b.ts\n  \nlib/c d.js"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/b.ts", "lib/c d.js"}, got)

	got, err = ParseList(strings.NewReader("src/a.ts\x00src/with\nnewline.ts\x00"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/with\nnewline.ts"}, got)

	_, err = ParseList(strings.NewReader("src/a.ts\x00src/b.ts\n"), false)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidChangeSet, errors.CodeOf(err))
}

func TestParseList_LineTooLong(t *testing.T) {
	_, err := ParseList(strings.NewReader(strings.Repeat("a", maxLineBytes+1)), false)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidChangeSet, errors.CodeOf(err))
}

const sampleDiff = `diff --git a/src/a.ts b/src/a.ts
index 1111111..2222222 100644
--- a/src/a.ts
+++ b/src/a.ts
@@ -1,2 +1,2 @@
-export const a = 1;
+export const a = 2;
 export const z = 0;
diff --git a/src/new.ts b/src/new.ts
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/src/new.ts
@@ -0,0 +1 @@
+export const n = 1;
diff --git a/src/old.ts b/src/old.ts
deleted file mode 100644
index 4444444..0000000
--- a/src/old.ts
+++ /dev/null
@@ -1 +0,0 @@
-export const o = 1;
`

func TestParseDiff(t *testing.T) {
	got, err := ParseDiff(strings.NewReader(sampleDiff))
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/new.ts", "src/old.ts"}, got)

	got, err = ParseDiff(strings.NewReader("   \n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
