package emola

import (
	"errors"
	"fmt"
)

// ErrorKind classifies interpreter failures.
type ErrorKind int

const (
	LexError ErrorKind = iota
	ParseError
	UnboundName
	TypeMismatch
	ArityMismatch
	NotCallable
	DivisionByZero
	SyntaxError
	DepthExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case UnboundName:
		return "unbound name"
	case TypeMismatch:
		return "type mismatch"
	case ArityMismatch:
		return "arity mismatch"
	case NotCallable:
		return "not callable"
	case DivisionByZero:
		return "division by zero"
	case SyntaxError:
		return "syntax error"
	case DepthExceeded:
		return "depth exceeded"
	default:
		return fmt.Sprintf("error(%d)", int(k))
	}
}

// Error is returned by every stage of the interpreter. Incomplete marks
// inputs that could still become valid if more text were appended.
type Error struct {
	Kind       ErrorKind
	Msg        string
	Incomplete bool
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrLex            = &Error{Kind: LexError}
	ErrParse          = &Error{Kind: ParseError}
	ErrUnboundName    = &Error{Kind: UnboundName}
	ErrTypeMismatch   = &Error{Kind: TypeMismatch}
	ErrArityMismatch  = &Error{Kind: ArityMismatch}
	ErrNotCallable    = &Error{Kind: NotCallable}
	ErrDivisionByZero = &Error{Kind: DivisionByZero}
	ErrSyntax         = &Error{Kind: SyntaxError}
	ErrDepthExceeded  = &Error{Kind: DepthExceeded}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func incompleteError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Incomplete: true}
}

// IsIncomplete reports whether err is an interpreter error caused by input
// that ended too early (an unclosed list or string literal).
func IsIncomplete(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Incomplete
}

// KindOf returns the kind of an interpreter error found in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}
