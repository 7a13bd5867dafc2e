package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/token"
)

type ErrorCode string

const (
	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // missing ';'
	ErrP003 ErrorCode = "P003" // positional argument after named argument
	ErrP004 ErrorCode = "P004" // duplicate named argument
	ErrP005 ErrorCode = "P005" // unterminated construct
	ErrP006 ErrorCode = "P006" // trailing input
	ErrP007 ErrorCode = "P007" // illegal character or malformed literal
	ErrP008 ErrorCode = "P008" // nesting too deep

	// Runtime
	ErrR001 ErrorCode = "R001" // undefined variable
	ErrR002 ErrorCode = "R002" // undefined function
	ErrR003 ErrorCode = "R003" // not callable
	ErrR004 ErrorCode = "R004" // type mismatch
	ErrR005 ErrorCode = "R005" // not a number
	ErrR006 ErrorCode = "R006" // body both produced geometry and returned a value
	ErrR007 ErrorCode = "R007" // invalid builtin argument
	ErrR008 ErrorCode = "R008" // evaluation cancelled

	// Kernel
	ErrK001 ErrorCode = "K001"
)

// DiagnosticError is a positioned error reported by any pipeline stage.
type DiagnosticError struct {
	Code    ErrorCode
	Span    ast.Span
	Line    int
	Column  int
	File    string
	Message string
}

func (e *DiagnosticError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	return fmt.Sprintf("%s: [%s] %s", loc, e.Code, e.Message)
}

// NewError builds a diagnostic located at tok.
func NewError(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Span:    ast.Span{Start: tok.Offset, End: tok.End()},
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewSpanError builds a diagnostic for a span of source, computing the line
// and column of its start.
func NewSpanError(code ErrorCode, source string, span ast.Span, message string) *DiagnosticError {
	line, col := LineColumn(source, span.Start)
	return &DiagnosticError{
		Code:    code,
		Span:    span,
		Line:    line,
		Column:  col,
		Message: message,
	}
}

// LineColumn converts a byte offset to a 1-based line and rune column.
func LineColumn(source string, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	line, col := 1, 1
	for _, r := range source[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Render writes err followed by the offending source line and a caret
// underline of its span.
func Render(w io.Writer, source string, err *DiagnosticError, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	fmt.Fprintln(w, paint(ansiBold, err.Error()))

	if err.Line < 1 {
		return
	}
	lines := strings.Split(source, "\n")
	if err.Line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[err.Line-1], "\r")
	fmt.Fprintf(w, "  %s\n", text)

	width := err.Span.Len()
	if lineRest := len(text) - (err.Column - 1); width > lineRest {
		width = lineRest
	}
	if width < 1 {
		width = 1
	}
	pad := strings.Repeat(" ", err.Column-1)
	fmt.Fprintf(w, "  %s%s\n", pad, paint(ansiRed, strings.Repeat("^", width)))
}
