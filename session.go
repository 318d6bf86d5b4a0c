package emola

import (
	"fmt"
	"time"
)

// DefaultMaxTraces caps the trace ring when SessionOptions leaves it unset.
const DefaultMaxTraces = 1000

type SessionOptions struct {
	Log       Log // nil keeps definitions in memory only
	MaxDepth  int
	MaxTraces int
}

// Session owns the process-lifetime global environment. Top-level
// definitions are appended to its log and replayed when a new session is
// opened on the same log.
type Session struct {
	global *Environment
	eval   *Evaluator
	log    Log
	traces traceRing
}

// Binding is one name in the global scope.
type Binding struct {
	Name  string
	Value Value
}

func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Log == nil {
		opts.Log = &MemLog{}
	}
	if opts.MaxTraces == 0 {
		opts.MaxTraces = DefaultMaxTraces
	}
	s := &Session{
		global: NewEnvironment(nil),
		eval:   &Evaluator{MaxDepth: opts.MaxDepth},
		log:    opts.Log,
		traces: traceRing{max: opts.MaxTraces},
	}
	if err := s.replay(); err != nil {
		return nil, fmt.Errorf("replay session: %w", err)
	}
	return s, nil
}

func (s *Session) replay() error {
	entries, err := s.log.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		t, err := ParseString(entry)
		if err != nil {
			return fmt.Errorf("replaying %q: %w", entry, err)
		}
		s.eval.Reset()
		if _, err := s.eval.Eval(t, s.global); err != nil {
			return fmt.Errorf("replaying %q: %w", entry, err)
		}
	}
	return nil
}

// Global returns the session's global scope.
func (s *Session) Global() *Environment {
	return s.global
}

// Eval parses and evaluates one expression in the global scope.
func (s *Session) Eval(src string) (Value, error) {
	t, err := ParseString(src)
	if err != nil {
		s.record(&Trace{Entry: src}, Value{}, err)
		return Value{}, err
	}
	return s.EvalTree(t)
}

// EvalAll evaluates every top-level expression in src and returns the value
// of the last one. It stops at the first error.
func (s *Session) EvalAll(src string) (Value, error) {
	trees, err := ParseAllString(src)
	if err != nil {
		return Value{}, err
	}
	result := NilVal()
	for _, t := range trees {
		if result, err = s.EvalTree(t); err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

// EvalTree evaluates an already parsed tree in the global scope. Successful
// top-level defs are written to the log.
func (s *Session) EvalTree(t *Tree) (Value, error) {
	trace := &Trace{Entry: t.String()}
	name, isDef := DefinedName(t)
	prev, existed := s.global.local(name)

	s.eval.Reset()
	val, err := s.eval.Eval(t, s.global)
	trace.Steps = s.eval.Steps()
	if err == nil && isDef {
		if logErr := s.log.Append(t.String()); logErr != nil {
			// An unlogged def would vanish on replay, so undo it.
			s.global.restore(name, prev, existed)
			err = fmt.Errorf("write log, %s not defined: %w", name, logErr)
		} else {
			trace.Defined = name
		}
	}
	s.record(trace, val, err)
	if err != nil {
		return Value{}, err
	}
	return val, nil
}

func (s *Session) record(t *Trace, val Value, err error) {
	t.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		t.Error = err.Error()
		if kind, ok := KindOf(err); ok {
			t.ErrorKind = kind.String()
		}
	} else {
		t.Result = val
	}
	s.traces.append(*t)
}

// Bindings lists the global scope, sorted by name.
func (s *Session) Bindings() []Binding {
	names := s.global.Names()
	out := make([]Binding, len(names))
	for i, name := range names {
		v, _ := s.global.Lookup(name)
		out[i] = Binding{Name: name, Value: v}
	}
	return out
}

// Traces returns up to n of the most recent traces, oldest first.
func (s *Session) Traces(n int) []Trace {
	return s.traces.last(n)
}

// Clear drops every global binding, truncates the log and forgets traces.
func (s *Session) Clear() error {
	if err := s.log.Truncate(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	s.global = NewEnvironment(nil)
	s.traces.reset()
	return nil
}

func (s *Session) Close() error {
	return s.log.Close()
}
