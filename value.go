package emola

import (
	"fmt"
	"strconv"
	"strings"
)

type ValueKind int

const (
	ValNil ValueKind = iota
	ValInt
	ValBool
	ValString
	ValFn
)

// Closure is a function value. Env is the scope that was active where the
// fn form was evaluated; calls run in a child of it.
type Closure struct {
	Params []string
	Body   *Tree
	Env    *Environment
}

type Value struct {
	Kind ValueKind
	Int  int64
	Bool bool
	Str  string
	Fn   *Closure
}

func IntVal(n int64) Value     { return Value{Kind: ValInt, Int: n} }
func BoolVal(b bool) Value     { return Value{Kind: ValBool, Bool: b} }
func StringVal(s string) Value { return Value{Kind: ValString, Str: s} }
func FnVal(fn *Closure) Value  { return Value{Kind: ValFn, Fn: fn} }
func NilVal() Value            { return Value{Kind: ValNil} }

func (v Value) String() string {
	switch v.Kind {
	case ValInt:
		return strconv.FormatInt(v.Int, 10)
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValString:
		return v.Str
	case ValFn:
		return fmt.Sprintf("<fn(%s)>", strings.Join(v.Fn.Params, ", "))
	case ValNil:
		return "nil"
	default:
		return fmt.Sprintf("<unknown:%d>", v.Kind)
	}
}

// Repr renders v for the REPL: strings come back quoted.
func (v Value) Repr() string {
	if v.Kind == ValString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

func (v Value) KindName() string {
	switch v.Kind {
	case ValInt:
		return "Int"
	case ValBool:
		return "Bool"
	case ValString:
		return "String"
	case ValFn:
		return "Fn"
	case ValNil:
		return "Nil"
	default:
		return "Unknown"
	}
}

// ValuesEqual is structural equality: same kind and same payload. A closure
// is only equal to itself.
func ValuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValInt:
		return a.Int == b.Int
	case ValBool:
		return a.Bool == b.Bool
	case ValString:
		return a.Str == b.Str
	case ValFn:
		return a.Fn == b.Fn
	case ValNil:
		return true
	}
	return false
}

// ValueToGo converts a Value to a native Go value for JSON serialization.
func ValueToGo(v Value) (any, error) {
	switch v.Kind {
	case ValInt:
		return v.Int, nil
	case ValBool:
		return v.Bool, nil
	case ValString:
		return v.Str, nil
	case ValNil:
		return nil, nil
	case ValFn:
		return nil, fmt.Errorf("cannot serialize Fn to JSON")
	default:
		return nil, fmt.Errorf("unknown value kind")
	}
}
