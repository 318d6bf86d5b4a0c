package emola

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestSession(t *testing.T, l Log) *Session {
	t.Helper()
	s, err := NewSession(SessionOptions{Log: l})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustEval(t *testing.T, s *Session, src string) Value {
	t.Helper()
	v, err := s.Eval(src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestSessionBindingsPersistAcrossInputs(t *testing.T) {
	s := newTestSession(t, nil)
	mustEval(t, s, "(def add (fn (x y) (+ x y)))")
	mustEval(t, s, "(def ten 10)")
	if v := mustEval(t, s, "(add ten 5)"); !ValuesEqual(v, IntVal(15)) {
		t.Fatalf("expected 15, got %s", v)
	}

	bindings := s.Bindings()
	if len(bindings) != 2 || bindings[0].Name != "add" || bindings[1].Name != "ten" {
		t.Fatalf("unexpected bindings: %+v", bindings)
	}
}

func TestSessionErrorLeavesBindingsIntact(t *testing.T) {
	s := newTestSession(t, nil)
	mustEval(t, s, "(def x 1)")
	if _, err := s.Eval("(+ x (/ 1 0))"); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if _, err := s.Eval("(+ x"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if v := mustEval(t, s, "(+ x 1)"); !ValuesEqual(v, IntVal(2)) {
		t.Fatalf("expected 2, got %s", v)
	}
}

func TestSessionReplayFileLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.log")

	l, err := OpenFileLog(path)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestSession(t, l)
	mustEval(t, s, "(def base 100)")
	mustEval(t, s, "(def bump (fn (n) (+ base n)))")
	mustEval(t, s, `(def name "emola")`)
	mustEval(t, s, "(bump 1)")
	if _, err := s.Eval("(def broken nope)"); err == nil {
		t.Fatalf("expected unbound name error")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	l2, err := OpenFileLog(path)
	if err != nil {
		t.Fatal(err)
	}
	s2 := newTestSession(t, l2)
	defer s2.Close()

	if v := mustEval(t, s2, "(bump 5)"); !ValuesEqual(v, IntVal(105)) {
		t.Fatalf("expected 105 after replay, got %s", v)
	}
	if v := mustEval(t, s2, "name"); !ValuesEqual(v, StringVal("emola")) {
		t.Fatalf("expected name after replay, got %s", v)
	}
	if _, ok := s2.Global().Lookup("broken"); ok {
		t.Fatalf("failed def should not be replayed")
	}
	entries, _ := l2.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected only the 3 successful defs in the log, got %q", entries)
	}
}

func TestSessionClear(t *testing.T) {
	l := &MemLog{}
	s := newTestSession(t, l)
	mustEval(t, s, "(def x 1)")
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval("x"); !errors.Is(err, ErrUnboundName) {
		t.Fatalf("expected x to be gone, got %v", err)
	}
	if entries, _ := l.Entries(); len(entries) != 0 {
		t.Fatalf("expected empty log, got %q", entries)
	}
	if n := len(s.Traces(0)); n != 1 {
		t.Fatalf("expected only the post-clear trace, got %d", n)
	}
}

func TestSessionTraces(t *testing.T) {
	s := newTestSession(t, nil)
	mustEval(t, s, "(def x 2)")
	mustEval(t, s, "(* x 3)")
	s.Eval("(if 1 2 3)")

	traces := s.Traces(0)
	if len(traces) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(traces))
	}
	if traces[0].Defined != "x" {
		t.Fatalf("first trace should record the definition: %+v", traces[0])
	}
	if !ValuesEqual(traces[1].Result, IntVal(6)) || traces[1].Steps == 0 {
		t.Fatalf("unexpected second trace: %+v", traces[1])
	}
	if !traces[2].Failed() || traces[2].ErrorKind != "type mismatch" {
		t.Fatalf("unexpected third trace: %+v", traces[2])
	}
	if got := s.Traces(1); len(got) != 1 || got[0].Entry != "(if 1 2 3)" {
		t.Fatalf("unexpected Traces(1): %+v", got)
	}
}

func TestSessionMaxTraces(t *testing.T) {
	s, err := NewSession(SessionOptions{MaxTraces: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{"1", "2", "3"} {
		mustEval(t, s, src)
	}
	traces := s.Traces(0)
	if len(traces) != 2 || traces[0].Entry != "2" {
		t.Fatalf("unexpected traces: %+v", traces)
	}
}

func TestSessionEvalAll(t *testing.T) {
	s := newTestSession(t, nil)
	v, err := s.EvalAll(`
(def square (fn (x) (* x x)))
(def sum-sq (fn (a b) (+ (square a) (square b))))
(sum-sq 3 4)
`)
	if err != nil {
		t.Fatal(err)
	}
	if !ValuesEqual(v, IntVal(25)) {
		t.Fatalf("expected 25, got %s", v)
	}
	if v, err := s.EvalAll(""); err != nil || !ValuesEqual(v, NilVal()) {
		t.Fatalf("empty program: %s, %v", v, err)
	}
}

func TestSessionReplayRejectsBadLog(t *testing.T) {
	l := &MemLog{}
	l.Append("(def x nope)")
	if _, err := NewSession(SessionOptions{Log: l}); err == nil {
		t.Fatalf("expected replay error")
	}
}

func TestSessionMaxDepth(t *testing.T) {
	s, err := NewSession(SessionOptions{MaxDepth: 50})
	if err != nil {
		t.Fatal(err)
	}
	mustEval(t, s, "(def down (fn (n) (if (= n 0) 0 (down (- n 1)))))")
	if _, err := s.Eval("(down 100)"); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected depth exceeded, got %v", err)
	}
	if v := mustEval(t, s, "(down 3)"); !ValuesEqual(v, IntVal(0)) {
		t.Fatalf("expected 0, got %s", v)
	}
}

// failingLog accepts replay but refuses new entries once armed.
type failingLog struct {
	MemLog
	fail bool
}

func (l *failingLog) Append(entry string) error {
	if l.fail {
		return errors.New("disk full")
	}
	return l.MemLog.Append(entry)
}

func TestSessionUnloggedDefIsUndone(t *testing.T) {
	l := &failingLog{}
	s := newTestSession(t, l)
	mustEval(t, s, "(def x 1)")

	l.fail = true
	if _, err := s.Eval("(def x 2)"); err == nil {
		t.Fatalf("expected log write error")
	}
	if _, err := s.Eval("(def y 3)"); err == nil {
		t.Fatalf("expected log write error")
	}

	if v := mustEval(t, s, "x"); !ValuesEqual(v, IntVal(1)) {
		t.Fatalf("x should keep its logged value, got %s", v)
	}
	if _, ok := s.Global().Lookup("y"); ok {
		t.Fatalf("y was never logged and should not be bound")
	}
	traces := s.Traces(0)
	if last := traces[len(traces)-2]; !last.Failed() || last.Defined != "" {
		t.Fatalf("failed def should be traced as an error: %+v", last)
	}

	l.fail = false
	replayed := newTestSession(t, l)
	if v, _ := replayed.Global().Lookup("x"); !ValuesEqual(v, IntVal(1)) {
		t.Fatalf("replay disagrees with live session: x = %s", v)
	}
}
