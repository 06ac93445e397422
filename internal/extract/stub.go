//go:build !cgo

package extract

import "context"

// TreeSitter is unavailable without CGO; the scanner is used instead.
type TreeSitter struct{}

// NewTreeSitter returns nil when CGO is disabled.
func NewTreeSitter() *TreeSitter {
	return nil
}

// IsTreeSitterAvailable returns false when CGO is disabled.
func IsTreeSitterAvailable() bool {
	return false
}

// Name implements Extractor.
func (*TreeSitter) Name() string { return "treesitter/unavailable" }

// Extract implements Extractor by delegating to the scanner.
func (*TreeSitter) Extract(ctx context.Context, src []byte, lang Language) ([]string, error) {
	return NewScanner().Extract(ctx, src, lang)
}
