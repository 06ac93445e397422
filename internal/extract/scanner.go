package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Scanner is a lexical extractor. It tokenizes just enough of the language
// (comments, strings, template literals, regular expressions) to avoid false
// matches, then looks for import shapes in the token stream. It detects
// unterminated strings, comments and template literals but not grammar errors.
type Scanner struct{}

// NewScanner creates a new scanner extractor.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Name implements Extractor.
func (*Scanner) Name() string { return "scan/1" }

// Extract implements Extractor.
func (*Scanner) Extract(ctx context.Context, src []byte, lang Language) ([]string, error) {
	if lang == LangJSON {
		return nil, nil
	}
	if err := checkText(src); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	var specs []string
	for i, t := range toks {
		if t.kind != tokIdent || precededByDot(toks, i) {
			continue
		}
		switch t.text {
		case "from":
			// import x from 'a', export * from 'a'
			if s, ok := stringAt(toks, i+1); ok {
				specs = append(specs, s)
			}
		case "import":
			// import 'a'
			if s, ok := stringAt(toks, i+1); ok {
				specs = append(specs, s)
				continue
			}
			// import('a')
			if s, ok := callArg(toks, i+1); ok {
				specs = append(specs, s)
			}
		case "require":
			if s, ok := callArg(toks, i+1); ok {
				specs = append(specs, s)
			}
		}
	}
	return dedupe(specs), nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokTemplate // template literal with substitutions; never a static specifier
	tokPunct
	tokOther
)

type token struct {
	kind tokKind
	text string
}

func precededByDot(toks []token, i int) bool {
	return i > 0 && toks[i-1].kind == tokPunct && toks[i-1].text == "."
}

func stringAt(toks []token, i int) (string, bool) {
	if i < len(toks) && toks[i].kind == tokString {
		return toks[i].text, true
	}
	return "", false
}

// callArg matches ( <string> ) or ( <string> , at toks[i].
func callArg(toks []token, i int) (string, bool) {
	if i+2 >= len(toks) || !isPunct(toks[i], "(") {
		return "", false
	}
	s, ok := stringAt(toks, i+1)
	if !ok {
		return "", false
	}
	if isPunct(toks[i+2], ")") || isPunct(toks[i+2], ",") {
		return s, true
	}
	return "", false
}

func isPunct(t token, p string) bool {
	return t.kind == tokPunct && t.text == p
}

// keywords after which a slash starts a regular expression
var regexPrefixKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

func regexAllowed(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	prev := toks[len(toks)-1]
	switch prev.kind {
	case tokPunct:
		return prev.text != ")" && prev.text != "]" && prev.text != "}"
	case tokIdent:
		return regexPrefixKeywords[prev.text]
	default:
		return false
	}
}

// lex tokenizes src. It fails with ErrSyntax on the first unterminated
// string, block comment or template literal.
func lex(src []byte) ([]token, error) {
	var toks []token
	n := len(src)
	i := 0
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				return nil, unterminated("comment", src, i)
			}
			i += 2 + end + 2
		case c == '\'' || c == '"':
			text, next, ok := lexString(src, i)
			if !ok {
				return nil, unterminated("string", src, i)
			}
			toks = append(toks, token{kind: tokString, text: text})
			i = next
		case c == '`':
			text, static, next, ok := lexTemplate(src, i)
			if !ok {
				return nil, unterminated("template literal", src, i)
			}
			if static {
				toks = append(toks, token{kind: tokString, text: text})
			} else {
				toks = append(toks, token{kind: tokTemplate})
			}
			i = next
		case c == '/' && regexAllowed(toks):
			i = skipRegex(src, i)
			toks = append(toks, token{kind: tokOther})
		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(src[start:i])})
		case c >= '0' && c <= '9':
			for i < n && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokOther})
		default:
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		}
	}
	return toks, nil
}

func unterminated(what string, src []byte, at int) error {
	line := bytes.Count(src[:at], []byte("\n")) + 1
	return fmt.Errorf("%w: unterminated %s at line %d", ErrSyntax, what, line)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// lexString reads a quoted literal starting at src[i]. ok is false when a
// line break or the end of input comes before the closing quote.
func lexString(src []byte, i int) (text string, next int, ok bool) {
	quote := src[i]
	var b strings.Builder
	i++
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, true
		case c == '\n':
			return b.String(), i, false
		case c == '\\' && i+1 < len(src):
			b.WriteByte(src[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i, false
}

// lexTemplate reads a template literal. static reports whether it had no
// substitutions, in which case text is its value.
func lexTemplate(src []byte, i int) (text string, static bool, next int, ok bool) {
	var b strings.Builder
	static = true
	i++
	for i < len(src) {
		c := src[i]
		switch {
		case c == '`':
			return b.String(), static, i + 1, true
		case c == '\\' && i+1 < len(src):
			b.WriteByte(src[i+1])
			i += 2
		case c == '$' && i+1 < len(src) && src[i+1] == '{':
			static = false
			if i, ok = skipSubstitution(src, i+2); !ok {
				return "", false, i, false
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), static, i, false
}

// skipSubstitution returns the index after the brace closing a ${ ... } block.
func skipSubstitution(src []byte, i int) (int, bool) {
	var ok bool
	depth := 1
	for i < len(src) {
		switch src[i] {
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
			if depth == 0 {
				return i, true
			}
		case '\'', '"':
			if _, i, ok = lexString(src, i); !ok {
				return i, false
			}
		case '`':
			if _, _, i, ok = lexTemplate(src, i); !ok {
				return i, false
			}
		default:
			i++
		}
	}
	return i, false
}

func skipRegex(src []byte, i int) int {
	inClass := false
	i++
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			return i
		case c == '\\':
			i += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			return i + 1
		}
		i++
	}
	return i
}
