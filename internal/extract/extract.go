// Package extract finds the raw module specifiers referenced by a JavaScript
// or TypeScript source file. Extraction never evaluates code and never touches
// the filesystem; Source layers file reading, caching and diagnostics on top.
package extract

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"
	"unicode/utf8"
)

// Language selects the grammar used for a file.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJSON       Language = "json"
	LangUnknown    Language = ""
)

// ErrBinary is returned for content that cannot be source text.
var ErrBinary = errors.New("file is not valid UTF-8 text")

// ErrSyntax is returned for source that does not parse. Such files
// contribute no specifiers.
var ErrSyntax = errors.New("syntax error")

// Extractor returns the specifiers referenced by src in source order.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Name identifies the extractor and its version; cached results are keyed on it.
	Name() string
	Extract(ctx context.Context, src []byte, lang Language) ([]string, error)
}

// LanguageFor maps a file name to its grammar.
func LanguageFor(name string) Language {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".d.ts") {
		return LangTypeScript
	}
	switch path.Ext(lower) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".json":
		return LangJSON
	default:
		return LangUnknown
	}
}

// Default returns the tree-sitter extractor when available, otherwise the scanner.
func Default() Extractor {
	if IsTreeSitterAvailable() {
		return NewTreeSitter()
	}
	return NewScanner()
}

// checkText rejects content that is clearly not source code.
func checkText(src []byte) error {
	if bytes.IndexByte(src, 0) >= 0 || !utf8.Valid(src) {
		return ErrBinary
	}
	return nil
}

// dedupe drops repeated and empty specifiers, keeping first occurrences.
func dedupe(specs []string) []string {
	if len(specs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(specs))
	out := specs[:0]
	for _, s := range specs {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
