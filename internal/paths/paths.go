package paths

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// ToolDirName is the per-project state directory
	ToolDirName = ".tir"
	// ConfigFileName is the config file inside ToolDirName
	ConfigFileName = "config.toml"
	// CacheDBFileName is the specifier cache database inside ToolDirName
	CacheDBFileName = "cache.db"
)

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Converts backslashes to forward slashes
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}

	return RelativeTo(repoRootResolved, resolved)
}

// RelativeTo returns the canonical form of absolutePath relative to root without
// touching the file system. Both arguments must already be absolute and clean.
func RelativeTo(root, absolutePath string) (string, error) {
	rel, err := filepath.Rel(root, absolutePath)
	if err != nil {
		return "", err
	}
	return NormalizePath(rel), nil
}

// IsConfined reports whether a canonical path stays inside the root it is relative to.
func IsConfined(canonical string) bool {
	if canonical == ".." || strings.HasPrefix(canonical, "../") {
		return false
	}
	return !path.IsAbs(canonical)
}

// NormalizePath converts a relative path to canonical form: forward slashes,
// cleaned, no leading "./". Applying it twice yields the same result.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(filepath.ToSlash(p), "\\", "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// ResolveRoot returns the absolute, symlink-free form of a project root and
// verifies that it is a readable directory.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return resolved, nil
}

// GetToolDir returns <root>/.tir
func GetToolDir(root string) string {
	return filepath.Join(root, ToolDirName)
}

// EnsureToolDir creates <root>/.tir if needed and returns it
func EnsureToolDir(root string) (string, error) {
	dir := GetToolDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// GetConfigPath returns <root>/.tir/config.toml
func GetConfigPath(root string) string {
	return filepath.Join(GetToolDir(root), ConfigFileName)
}

// GetCacheDBPath returns <root>/.tir/cache.db
func GetCacheDBPath(root string) string {
	return filepath.Join(GetToolDir(root), CacheDBFileName)
}
