package evaluator

import (
	"fmt"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/diagnostics"
)

type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota
	UndefinedFunction
	NotCallable
	TypeMismatch
	NotANumber
	MixedBodyResult
	InvalidArgument
	KernelError
)

var kindNames = [...]string{
	UndefinedVariable: "UndefinedVariable",
	UndefinedFunction: "UndefinedFunction",
	NotCallable:       "NotCallable",
	TypeMismatch:      "TypeMismatch",
	NotANumber:        "NotANumber",
	MixedBodyResult:   "MixedBodyResult",
	InvalidArgument:   "InvalidArgument",
	KernelError:       "KernelError",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Code maps the kind to its diagnostic code.
func (k ErrorKind) Code() diagnostics.ErrorCode {
	switch k {
	case UndefinedVariable:
		return diagnostics.ErrR001
	case UndefinedFunction:
		return diagnostics.ErrR002
	case NotCallable:
		return diagnostics.ErrR003
	case TypeMismatch:
		return diagnostics.ErrR004
	case NotANumber:
		return diagnostics.ErrR005
	case MixedBodyResult:
		return diagnostics.ErrR006
	case InvalidArgument:
		return diagnostics.ErrR007
	}
	return diagnostics.ErrK001
}

// Error is an evaluation failure located at the node that caused it.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    ast.Span
	// Err is the kernel error behind a KernelError.
	Err error

	located bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Span, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, span ast.Span, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...), Span: span, located: true}
}

// argError is returned by builtins, which do not know where they were
// called from. The evaluator fills in the span of the call.
func argError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// at returns e located at span unless it already carries a location.
// e itself is not modified; singleflight may share it between callers.
func (e *Error) at(span ast.Span) *Error {
	if e.located {
		return e
	}
	located := *e
	located.Span = span
	located.located = true
	return &located
}

// ToDiagnostic converts an evaluation error for reporting against source.
func (e *Error) ToDiagnostic(source string) *diagnostics.DiagnosticError {
	return diagnostics.NewSpanError(e.Kind.Code(), source, e.Span, e.Message)
}
