// Package resolve maps module specifiers to files under a project root.
//
// Only relative ("./", "../") and absolute ("/") specifiers are resolved; any
// other specifier names an external package and is unresolved. A specifier is
// tried with each configured extension in order (the empty extension first,
// i.e. the specifier as written), then as a directory holding an index file
// with the same extension order. The first regular file found wins; deleted
// files named as ghosts match only when no candidate exists on disk.
package resolve

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"tir/internal/paths"
)

// DefaultExtensions is the candidate order used when none is configured.
var DefaultExtensions = []string{"", ".ts", ".tsx", ".d.ts", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".json"}

// DefaultIndexName is the directory index file stem.
const DefaultIndexName = "index"

// Options configures a Resolver.
type Options struct {
	Extensions []string
	IndexName  string
	// Ghosts are root-relative paths treated as existing files even though
	// they are absent from disk (deleted files in the change set).
	Ghosts []string
}

// Resolver resolves specifiers against one root. Results depend only on the
// specifier, the referencing directory and the files present when first
// checked; file existence is memoized for the Resolver's lifetime.
type Resolver struct {
	root       string
	extensions []string
	indexName  string
	ghosts     map[string]struct{}

	files sync.Map // root-relative path -> bool
}

// New creates a resolver for the absolute, symlink-free directory root.
func New(root string, opts Options) *Resolver {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	index := opts.IndexName
	if index == "" {
		index = DefaultIndexName
	}
	ghosts := make(map[string]struct{}, len(opts.Ghosts))
	for _, g := range opts.Ghosts {
		ghosts[paths.NormalizePath(g)] = struct{}{}
	}
	return &Resolver{
		root:       root,
		extensions: exts,
		indexName:  index,
		ghosts:     ghosts,
	}
}

// Root returns the resolver's project root.
func (r *Resolver) Root() string {
	return r.root
}

// IsRelative reports whether spec is a path rather than a package name.
func IsRelative(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/")
}

// Resolve maps spec, referenced from the root-relative directory fromDir, to
// a root-relative file path. ok is false when the specifier is unresolved.
func (r *Resolver) Resolve(spec, fromDir string) (resolved string, ok bool) {
	if !IsRelative(spec) {
		return "", false
	}
	spec = stripSuffixes(spec)

	var base string
	if strings.HasPrefix(spec, "/") {
		rel, err := paths.RelativeTo(r.root, filepath.Clean(filepath.FromSlash(spec)))
		if err != nil {
			return "", false
		}
		base = rel
	} else {
		base = path.Join(fromDir, spec)
	}
	if !paths.IsConfined(base) {
		return "", false
	}

	candidates := r.candidates(base)
	for _, c := range candidates {
		if r.isFile(c) {
			return c, true
		}
	}
	// Deleted files only stand in when nothing on disk matches, so a
	// renamed module resolves to its new location.
	for _, c := range candidates {
		if r.IsGhost(c) {
			return c, true
		}
	}
	return "", false
}

// candidates lists the paths tried for base, in order. The root itself can
// only resolve through its index file.
func (r *Resolver) candidates(base string) []string {
	out := make([]string, 0, 2*len(r.extensions))
	if base != "." {
		for _, ext := range r.extensions {
			out = append(out, base+ext)
		}
	}
	for _, ext := range r.extensions {
		out = append(out, path.Join(base, r.indexName+ext))
	}
	return out
}

// IsGhost reports whether rel is a deleted file standing in for its old self.
func (r *Resolver) IsGhost(rel string) bool {
	_, ok := r.ghosts[rel]
	return ok
}

// stripSuffixes drops a query string or fragment, as bundlers do.
func stripSuffixes(spec string) string {
	if i := strings.IndexAny(spec, "?#"); i > 0 {
		return spec[:i]
	}
	return spec
}

func (r *Resolver) isFile(rel string) bool {
	if v, ok := r.files.Load(rel); ok {
		return v.(bool)
	}
	isFile := r.statFile(rel)
	r.files.Store(rel, isFile)
	return isFile
}

// statFile requires a regular file whose real location is inside the root.
func (r *Resolver) statFile(rel string) bool {
	abs := paths.JoinRepoPath(r.root, rel)
	info, err := os.Lstat(abs)
	if err != nil {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return false
		}
		canonical, err := paths.RelativeTo(r.root, target)
		if err != nil || !paths.IsConfined(canonical) {
			return false
		}
		info, err = os.Stat(target)
		if err != nil {
			return false
		}
	}
	return info.Mode().IsRegular()
}
