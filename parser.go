package emola

import (
	"fmt"
	"strings"
)

type TreeKind int

const (
	TreeLeaf TreeKind = iota
	TreeNode
)

// Tree is the parse tree: a Leaf holds one token verbatim, a Node holds the
// children of a parenthesized form in source order.
type Tree struct {
	Kind     TreeKind
	Token    string
	Children []*Tree
}

func NewLeaf(token string) *Tree { return &Tree{Kind: TreeLeaf, Token: token} }

func NewNode(children ...*Tree) *Tree {
	if children == nil {
		children = []*Tree{}
	}
	return &Tree{Kind: TreeNode, Children: children}
}

func (t *Tree) IsLeaf() bool { return t.Kind == TreeLeaf }

// String re-serializes the tree: leaves joined by single spaces, nodes
// wrapped in parentheses.
func (t *Tree) String() string {
	if t.Kind == TreeLeaf {
		return t.Token
	}
	parts := make([]string, len(t.Children))
	for i, c := range t.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Equal reports whether two trees have the same shape and tokens.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Token != o.Token || len(t.Children) != len(o.Children) {
		return false
	}
	for i := range t.Children {
		if !t.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// Parse builds exactly one tree from tokens. Leftover tokens are an error.
func Parse(tokens []string) (*Tree, error) {
	if len(tokens) == 0 {
		return nil, incompleteError(ParseError, "empty input")
	}
	p := &parser{tokens: tokens}
	t, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, newError(ParseError, "unexpected %q after expression", p.tokens[p.pos])
	}
	return t, nil
}

// ParseAll parses a sequence of top-level expressions, as found in a file.
func ParseAll(tokens []string) ([]*Tree, error) {
	p := &parser{tokens: tokens}
	var trees []*Tree
	for p.pos < len(p.tokens) {
		t, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// ParseString tokenizes and parses a single expression.
func ParseString(src string) (*Tree, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseAllString tokenizes and parses every top-level expression in src.
func ParseAllString(src string) ([]*Tree, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseAll(tokens)
}

func (p *parser) parseExpr() (*Tree, error) {
	tok, ok := p.next()
	if !ok {
		return nil, incompleteError(ParseError, "expression expected, input exhausted")
	}
	switch tok {
	case "(":
		return p.parseList()
	case ")":
		return nil, newError(ParseError, "unexpected ')' at token %d", p.pos-1)
	default:
		return NewLeaf(tok), nil
	}
}

func (p *parser) parseList() (*Tree, error) {
	children := []*Tree{}
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, incompleteError(ParseError, "unclosed list")
		}
		if tok == ")" {
			p.pos++ // skip ')'
			return NewNode(children...), nil
		}
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

// GoString is used by test failure output.
func (t *Tree) GoString() string {
	if t.Kind == TreeLeaf {
		return fmt.Sprintf("Leaf(%q)", t.Token)
	}
	parts := make([]string, len(t.Children))
	for i, c := range t.Children {
		parts[i] = c.GoString()
	}
	return "Node(" + strings.Join(parts, ", ") + ")"
}
