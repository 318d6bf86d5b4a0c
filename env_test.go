package emola

import (
	"reflect"
	"testing"
)

func TestEnvironmentLookupWalksOutward(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", IntVal(1))
	global.Define("y", IntVal(2))

	inner := global.Child().Child()
	inner.Define("x", IntVal(10))

	if v, ok := inner.Lookup("x"); !ok || !ValuesEqual(v, IntVal(10)) {
		t.Fatalf("inner x: got %s, %v", v, ok)
	}
	if v, ok := inner.Lookup("y"); !ok || !ValuesEqual(v, IntVal(2)) {
		t.Fatalf("inner y: got %s, %v", v, ok)
	}
	if _, ok := inner.Lookup("z"); ok {
		t.Fatalf("z should be unbound")
	}
}

func TestEnvironmentDefineShadows(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", IntVal(1))
	child := global.Child()
	child.Define("x", IntVal(2))

	if v, _ := global.Lookup("x"); !ValuesEqual(v, IntVal(1)) {
		t.Fatalf("outer binding changed to %s", v)
	}
	if child.Parent() != global {
		t.Fatalf("child parent mismatch")
	}
}

func TestEnvironmentDefineOverwrites(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("x", IntVal(1))
	env.Define("x", StringVal("two"))
	if v, _ := env.Lookup("x"); !ValuesEqual(v, StringVal("two")) {
		t.Fatalf("expected overwrite, got %s", v)
	}
	if env.Len() != 1 {
		t.Fatalf("expected 1 binding, got %d", env.Len())
	}
}

func TestEnvironmentNames(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("b", NilVal())
	env.Define("a", NilVal())
	env.Child().Define("c", NilVal())
	if got := env.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected names: %v", got)
	}
}
