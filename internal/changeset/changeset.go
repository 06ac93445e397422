// Package changeset turns externally supplied changed-file lists into the
// root-relative, slash-separated path form used by the rest of tir.
package changeset

import (
	"os"
	"path/filepath"
	"strings"

	"tir/internal/errors"
	"tir/internal/paths"
)

// ChangeSet is a normalized, duplicate-free list of changed paths.
type ChangeSet struct {
	// Paths in order of first appearance in the input
	Paths []string
	// Deleted lists the subset of Paths that does not exist on disk
	Deleted []string

	set map[string]struct{}
}

// Contains reports whether p, in normalized form, is in the change set.
func (c *ChangeSet) Contains(p string) bool {
	if c == nil {
		return false
	}
	_, ok := c.set[p]
	return ok
}

// Len returns the number of distinct changed paths.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Paths)
}

// IsEmpty reports whether nothing changed.
func (c *ChangeSet) IsEmpty() bool {
	return c.Len() == 0
}

// NormalizeEntry converts one raw path to canonical form. root must be the
// absolute, symlink-free project root. Relative input is taken relative to
// root. Normalizing a canonical path returns it unchanged.
func NormalizeEntry(root, raw string) (string, error) {
	// File names may begin or end with spaces; only line terminators are noise.
	p := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(p) == "" {
		return "", nil
	}

	var rel string
	if filepath.IsAbs(p) || filepath.IsAbs(filepath.FromSlash(p)) {
		canonical, err := paths.CanonicalizePath(filepath.Clean(filepath.FromSlash(p)), root)
		if err != nil {
			return "", errors.NewTirError(errors.InvalidChangeSet, "cannot relativize "+raw, err)
		}
		rel = canonical
	} else {
		rel = paths.NormalizePath(p)
	}

	if rel == "." {
		return "", nil
	}
	if !paths.IsConfined(rel) {
		return "", errors.Errorf(errors.InvalidChangeSet, "path %q is outside the project root", raw)
	}
	return rel, nil
}

// Normalize builds a ChangeSet from raw paths. Blank entries are skipped and
// duplicates collapse to their first occurrence. Any path escaping root
// fails the whole input.
func Normalize(root string, raw []string) (*ChangeSet, error) {
	cs := &ChangeSet{
		Paths: make([]string, 0, len(raw)),
		set:   make(map[string]struct{}, len(raw)),
	}
	for _, r := range raw {
		p, err := NormalizeEntry(root, r)
		if err != nil {
			return nil, err
		}
		if p == "" {
			continue
		}
		if _, dup := cs.set[p]; dup {
			continue
		}
		cs.set[p] = struct{}{}
		cs.Paths = append(cs.Paths, p)
		if _, err := os.Lstat(paths.JoinRepoPath(root, p)); os.IsNotExist(err) {
			cs.Deleted = append(cs.Deleted, p)
		}
	}
	return cs, nil
}
