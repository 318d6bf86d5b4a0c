package emola

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds nested evaluation when an Evaluator has no MaxDepth.
const DefaultMaxDepth = 10000

// specialForms are the leading keywords the evaluator handles itself.
// They cannot be rebound with def or used as parameter names.
var specialForms = map[string]bool{
	"do": true, "if": true, "=": true, "fn": true, "def": true,
	"+": true, "-": true, "*": true, "/": true,
}

// Evaluator evaluates parse trees against an environment. It keeps no
// bindings of its own; depth and step counters only live for the duration
// of one top-level evaluation.
type Evaluator struct {
	MaxDepth int
	depth    int
	steps    int
}

// Eval evaluates t in env with a fresh evaluator and the default depth limit.
func Eval(t *Tree, env *Environment) (Value, error) {
	return (&Evaluator{}).Eval(t, env)
}

// EvalString tokenizes, parses and evaluates a single expression.
func (e *Evaluator) EvalString(src string, env *Environment) (Value, error) {
	t, err := ParseString(src)
	if err != nil {
		return Value{}, err
	}
	return e.Eval(t, env)
}

// Steps returns the number of trees evaluated since the last Reset.
func (e *Evaluator) Steps() int { return e.steps }

// Reset clears the per-evaluation counters.
func (e *Evaluator) Reset() {
	e.depth = 0
	e.steps = 0
}

func (e *Evaluator) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}
	return DefaultMaxDepth
}

func (e *Evaluator) Eval(t *Tree, env *Environment) (Value, error) {
	e.steps++
	if e.depth >= e.maxDepth() {
		return Value{}, newError(DepthExceeded, "evaluation nested deeper than %d", e.maxDepth())
	}
	e.depth++
	defer func() { e.depth-- }()

	if t.Kind == TreeLeaf {
		return toValue(t.Token, env)
	}
	return e.evalNode(t, env)
}

// toValue turns a leaf token into a value: string literal, integer, boolean,
// or the binding of an identifier.
func toValue(tok string, env *Environment) (Value, error) {
	if strings.HasPrefix(tok, `"`) {
		if len(tok) < 2 || !strings.HasSuffix(tok, `"`) {
			return Value{}, newError(LexError, "malformed string literal %s", tok)
		}
		return StringVal(tok[1 : len(tok)-1]), nil
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return IntVal(n), nil
	} else if errors.Is(err, strconv.ErrRange) {
		return Value{}, newError(TypeMismatch, "integer literal %s out of range", tok)
	}
	switch tok {
	case "true":
		return BoolVal(true), nil
	case "false":
		return BoolVal(false), nil
	}
	if v, ok := env.Lookup(tok); ok {
		return v, nil
	}
	return Value{}, newError(UnboundName, "%s", tok)
}

func (e *Evaluator) evalNode(t *Tree, env *Environment) (Value, error) {
	if len(t.Children) == 0 {
		return Value{}, newError(SyntaxError, "cannot evaluate empty list")
	}

	head := t.Children[0]
	args := t.Children[1:]

	if head.Kind == TreeLeaf {
		switch head.Token {
		case "do":
			return e.evalDo(args, env)
		case "if":
			return e.evalIf(args, env)
		case "=":
			return e.evalEqual(args, env)
		case "+":
			return e.evalArith(head.Token, args, env, 0, func(acc, n int64) (int64, error) { return acc + n, nil })
		case "*":
			return e.evalArith(head.Token, args, env, 1, func(acc, n int64) (int64, error) { return acc * n, nil })
		case "-":
			return e.evalSeeded(head.Token, args, env, func(acc, n int64) (int64, error) { return acc - n, nil })
		case "/":
			return e.evalSeeded(head.Token, args, env, divide)
		case "fn":
			return e.evalFn(args, env)
		case "def":
			return e.evalDef(args, env)
		}
	}

	fn, err := e.evalHead(head, env)
	if err != nil {
		return Value{}, err
	}
	return e.callFn(fn, args, env)
}

// evalHead resolves the call head to a closure.
func (e *Evaluator) evalHead(head *Tree, env *Environment) (*Closure, error) {
	val, err := e.Eval(head, env)
	if err != nil {
		return nil, err
	}
	if val.Kind != ValFn {
		if head.Kind == TreeLeaf {
			return nil, newError(NotCallable, "cannot call %s: %s is not a function", head.Token, val.KindName())
		}
		return nil, newError(NotCallable, "cannot call %s value", val.KindName())
	}
	return val.Fn, nil
}

// callFn evaluates argument trees in the caller's env and runs the body in a
// fresh child of the closure's captured env.
func (e *Evaluator) callFn(fn *Closure, argTrees []*Tree, env *Environment) (Value, error) {
	if len(argTrees) != len(fn.Params) {
		return Value{}, newError(ArityMismatch, "fn: expected %d args, got %d", len(fn.Params), len(argTrees))
	}
	args := make([]Value, len(argTrees))
	for i, a := range argTrees {
		val, err := e.Eval(a, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = val
	}
	return e.Apply(fn, args)
}

// Apply calls fn with already evaluated arguments.
func (e *Evaluator) Apply(fn *Closure, args []Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, newError(ArityMismatch, "fn: expected %d args, got %d", len(fn.Params), len(args))
	}
	scope := fn.Env.Child()
	for i, p := range fn.Params {
		scope.Define(p, args[i])
	}
	return e.Eval(fn.Body, scope)
}

// evalDo evaluates (do expr1 ... exprN) in its own block scope and returns the
// last value, nil when empty.
func (e *Evaluator) evalDo(body []*Tree, env *Environment) (Value, error) {
	scope := env.Child()
	result := NilVal()
	for _, t := range body {
		val, err := e.Eval(t, scope)
		if err != nil {
			return Value{}, err
		}
		result = val
	}
	return result, nil
}

// evalIf evaluates (if cond then else). cond must be a Bool.
func (e *Evaluator) evalIf(args []*Tree, env *Environment) (Value, error) {
	if len(args) != 3 {
		return Value{}, newError(SyntaxError, "if: expected 3 args (cond then else), got %d", len(args))
	}
	cond, err := e.Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if cond.Kind != ValBool {
		return Value{}, newError(TypeMismatch, "if: condition must be Bool, got %s", cond.KindName())
	}
	if cond.Bool {
		return e.Eval(args[1], env)
	}
	return e.Eval(args[2], env)
}

func (e *Evaluator) evalEqual(args []*Tree, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, newError(SyntaxError, "=: expected 2 args, got %d", len(args))
	}
	a, err := e.Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	b, err := e.Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	return BoolVal(ValuesEqual(a, b)), nil
}

func (e *Evaluator) evalInts(op string, args []*Tree, env *Environment) ([]int64, error) {
	ns := make([]int64, len(args))
	for i, a := range args {
		val, err := e.Eval(a, env)
		if err != nil {
			return nil, err
		}
		if val.Kind != ValInt {
			return nil, newError(TypeMismatch, "%s: expected Int, got %s", op, val.KindName())
		}
		ns[i] = val.Int
	}
	return ns, nil
}

// evalArith folds every operand into identity.
func (e *Evaluator) evalArith(op string, args []*Tree, env *Environment, identity int64, f func(acc, n int64) (int64, error)) (Value, error) {
	ns, err := e.evalInts(op, args, env)
	if err != nil {
		return Value{}, err
	}
	return fold(identity, ns, f)
}

// evalSeeded folds left starting from the first operand, so (- 5) is 5 and
// (- 10 3 2) is 5.
func (e *Evaluator) evalSeeded(op string, args []*Tree, env *Environment, f func(acc, n int64) (int64, error)) (Value, error) {
	if len(args) == 0 {
		return Value{}, newError(ArityMismatch, "%s: expected at least 1 arg", op)
	}
	ns, err := e.evalInts(op, args, env)
	if err != nil {
		return Value{}, err
	}
	return fold(ns[0], ns[1:], f)
}

func fold(acc int64, ns []int64, f func(acc, n int64) (int64, error)) (Value, error) {
	for _, n := range ns {
		var err error
		if acc, err = f(acc, n); err != nil {
			return Value{}, err
		}
	}
	return IntVal(acc), nil
}

func divide(acc, n int64) (int64, error) {
	if n == 0 {
		return 0, newError(DivisionByZero, "%d / 0", acc)
	}
	return acc / n, nil
}

// evalFn builds a closure over env from (fn (params...) body).
func (e *Evaluator) evalFn(args []*Tree, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, newError(SyntaxError, "fn: expected (fn (params...) body)")
	}
	paramsTree := args[0]
	if paramsTree.Kind != TreeNode {
		return Value{}, newError(SyntaxError, "fn: params must be a list")
	}
	params := make([]string, len(paramsTree.Children))
	seen := make(map[string]bool, len(params))
	for i, p := range paramsTree.Children {
		if err := checkIdentifier("fn", p); err != nil {
			return Value{}, err
		}
		if seen[p.Token] {
			return Value{}, newError(SyntaxError, "fn: duplicate param %s", p.Token)
		}
		seen[p.Token] = true
		params[i] = p.Token
	}
	return FnVal(&Closure{
		Params: params,
		Body:   args[1],
		Env:    env,
	}), nil
}

// evalDef binds (def name expr) in the current scope and returns nil.
func (e *Evaluator) evalDef(args []*Tree, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, newError(SyntaxError, "def: expected (def name expr)")
	}
	if err := checkIdentifier("def", args[0]); err != nil {
		return Value{}, err
	}
	val, err := e.Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	env.Define(args[0].Token, val)
	return NilVal(), nil
}

// checkIdentifier rejects anything toValue would not treat as a name.
func checkIdentifier(form string, t *Tree) error {
	if t.Kind != TreeLeaf {
		return newError(SyntaxError, "%s: name must be a symbol, got %s", form, t)
	}
	tok := t.Token
	switch {
	case strings.HasPrefix(tok, `"`):
		return newError(SyntaxError, "%s: name must be a symbol, got string %s", form, tok)
	case tok == "true" || tok == "false":
		return newError(SyntaxError, "%s: cannot bind %s", form, tok)
	case specialForms[tok]:
		return newError(SyntaxError, "%s: cannot bind special form %s", form, tok)
	}
	if _, err := strconv.ParseInt(tok, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return newError(SyntaxError, "%s: cannot bind integer %s", form, tok)
	}
	return nil
}

// DefinedName returns the name bound by a top-level (def name expr) form.
func DefinedName(t *Tree) (string, bool) {
	if t.Kind != TreeNode || len(t.Children) != 3 {
		return "", false
	}
	head, name := t.Children[0], t.Children[1]
	if head.Kind != TreeLeaf || head.Token != "def" || name.Kind != TreeLeaf {
		return "", false
	}
	return name.Token, true
}
