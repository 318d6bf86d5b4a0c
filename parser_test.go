package emola

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLeaf(t *testing.T) {
	n, err := Parse([]string{"42"})
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsLeaf() || n.Token != "42" {
		t.Fatalf("expected Leaf 42, got %#v", n)
	}
}

func TestParseDefFn(t *testing.T) {
	tokens := []string{"(", "def", "plus", "(", "fn", "(", "x", "y", ")", "(", "+", "x", "y", ")", ")", ")"}
	n, err := Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	want := NewNode(
		NewLeaf("def"),
		NewLeaf("plus"),
		NewNode(
			NewLeaf("fn"),
			NewNode(NewLeaf("x"), NewLeaf("y")),
			NewNode(NewLeaf("+"), NewLeaf("x"), NewLeaf("y")),
		),
	)
	if !n.Equal(want) {
		t.Fatalf("got %#v, want %#v", n, want)
	}
}

func TestParseEmptyList(t *testing.T) {
	n, err := ParseString("()")
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != TreeNode || len(n.Children) != 0 {
		t.Fatalf("expected empty node, got %#v", n)
	}
}

func TestParseLeavesTokensUninterpreted(t *testing.T) {
	n, err := ParseString(`(f "a b" -12 true)`)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{}
	for _, c := range n.Children {
		got = append(got, c.Token)
	}
	if strings.Join(got, "|") != `f|"a b"|-12|true` {
		t.Fatalf("unexpected leaves: %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		input      string
		incomplete bool
	}{
		{"", true},
		{"(+ 1 2", true},
		{"((a)", true},
		{")", false},
		{"(+ 1 2))", false},
		{"(a) (b)", false},
	} {
		_, err := ParseString(tc.input)
		if !errors.Is(err, ErrParse) {
			t.Fatalf("ParseString(%q): expected parse error, got %v", tc.input, err)
		}
		if IsIncomplete(err) != tc.incomplete {
			t.Fatalf("ParseString(%q): incomplete = %v, want %v", tc.input, IsIncomplete(err), tc.incomplete)
		}
	}
}

func TestParseAll(t *testing.T) {
	trees, err := ParseAllString("(def x 1)\n(+ x 2)\nx")
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 3 {
		t.Fatalf("expected 3 trees, got %d", len(trees))
	}
	if trees[2].Token != "x" {
		t.Fatalf("expected leaf x last, got %#v", trees[2])
	}
}

func TestParseAllEmpty(t *testing.T) {
	trees, err := ParseAllString("   ")
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 0 {
		t.Fatalf("expected no trees, got %d", len(trees))
	}
}

// Re-serializing a parsed tree and parsing it again gives the same tree.
func TestParseRoundTrip(t *testing.T) {
	for _, input := range []string{
		"(def plus (fn (x y) (+ x y)))",
		"  ( if (= 1  1)\n (+ 1 2)\t(- 1 2) ) ",
		`(f "a (b) c" ((g)) ())`,
		"(do)",
	} {
		first, err := ParseString(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		text := first.String()
		second, err := ParseString(text)
		if err != nil {
			t.Fatalf("reparse %q: %v", text, err)
		}
		if !first.Equal(second) {
			t.Fatalf("round trip of %q changed the tree: %#v vs %#v", input, first, second)
		}
	}
}

func TestTreeString(t *testing.T) {
	n, err := ParseString("  ( if (= 1  1)\n (+ 1 2)\t(- 1 2) ) ")
	if err != nil {
		t.Fatal(err)
	}
	if got := n.String(); got != "(if (= 1 1) (+ 1 2) (- 1 2))" {
		t.Fatalf("unexpected serialization: %s", got)
	}
}
