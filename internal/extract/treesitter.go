//go:build cgo

package extract

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitter extracts specifiers from a full syntax tree. Parsers are not
// safe for concurrent use, so each call borrows one from a pool.
type TreeSitter struct {
	parsers sync.Pool
	scanner *Scanner
}

// NewTreeSitter creates a new tree-sitter extractor.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{
		parsers: sync.Pool{New: func() any { return sitter.NewParser() }},
		scanner: NewScanner(),
	}
}

// IsTreeSitterAvailable returns whether the tree-sitter extractor is compiled in.
func IsTreeSitterAvailable() bool {
	return true
}

// Name implements Extractor.
func (*TreeSitter) Name() string { return "treesitter/1" }

// Extract implements Extractor. Files with no known grammar fall back to the
// scanner. A tree containing parse errors yields ErrSyntax and no specifiers.
func (t *TreeSitter) Extract(ctx context.Context, src []byte, lang Language) ([]string, error) {
	if lang == LangJSON {
		return nil, nil
	}
	if err := checkText(src); err != nil {
		return nil, err
	}
	tsLang := getLanguage(lang)
	if tsLang == nil {
		return t.scanner.Extract(ctx, src, lang)
	}

	parser := t.parsers.Get().(*sitter.Parser)
	defer t.parsers.Put(parser)

	parser.SetLanguage(tsLang)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root)
	}
	return dedupe(collectSpecifiers(root, src)), nil
}

// syntaxError locates the first ERROR or MISSING node under root.
func syntaxError(root *sitter.Node) error {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.IsError() || node.IsMissing() {
			pos := node.StartPoint()
			return fmt.Errorf("%w at line %d column %d", ErrSyntax, pos.Row+1, pos.Column+1)
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child.HasError() || child.IsMissing() {
				stack = append(stack, child)
			}
		}
	}
	return ErrSyntax
}

func getLanguage(lang Language) *sitter.Language {
	switch lang {
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	default:
		return nil
	}
}

// collectSpecifiers walks the tree in pre-order so results follow source order.
func collectSpecifiers(root *sitter.Node, src []byte) []string {
	var specs []string
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type() {
		case "import_statement", "export_statement", "import_require_clause":
			if s, ok := stringValue(sourceNode(node), src); ok {
				specs = append(specs, s)
			}
		case "call_expression":
			if s, ok := callSpecifier(node, src); ok {
				specs = append(specs, s)
			}
		}

		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.NamedChild(i))
		}
	}
	return specs
}

// sourceNode returns the module string of an import or export. Older
// typescript grammars leave import_require_clause sources unnamed.
func sourceNode(node *sitter.Node) *sitter.Node {
	if src := node.ChildByFieldName("source"); src != nil {
		return src
	}
	if node.Type() != "import_require_clause" {
		return nil
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "string" {
			return child
		}
	}
	return nil
}

// callSpecifier matches require('x') and import('x').
func callSpecifier(node *sitter.Node, src []byte) (string, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Type() {
	case "import":
	case "identifier":
		if fn.Content(src) != "require" {
			return "", false
		}
	default:
		return "", false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	return stringValue(args.NamedChild(0), src)
}

// stringValue returns the value of a string or substitution-free template literal.
func stringValue(node *sitter.Node, src []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "string":
	case "template_string":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	text := node.Content(src)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}
