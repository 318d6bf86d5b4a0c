package emola

import (
	"strings"
	"unicode"
)

// Tokenize splits source text into parens, quoted string literals (quotes
// included) and bare words. A string literal left open at end of input is a
// LexError marked incomplete.
func Tokenize(src string) ([]string, error) {
	var (
		tokens []string
		buf    strings.Builder
		inStr  bool
	)
	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	for _, ch := range src {
		if inStr {
			buf.WriteRune(ch)
			if ch == '"' {
				inStr = false
				flush()
			}
			continue
		}
		switch {
		case unicode.IsSpace(ch):
			flush()
		case ch == '(' || ch == ')':
			flush()
			tokens = append(tokens, string(ch))
		case ch == '"' && buf.Len() == 0:
			inStr = true
			buf.WriteRune(ch)
		default:
			buf.WriteRune(ch)
		}
	}

	if inStr {
		return nil, incompleteError(LexError, "unterminated string literal")
	}
	flush()
	return tokens, nil
}
