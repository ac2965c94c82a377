// Package diag carries the runtime's error taxonomy (spec §7) and the
// position-aware syntax-error rendering shared by the expression and
// instruction parsers.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure the way the runtime's abstract error
// taxonomy does. It is carried on wrapped errors via errors.Is so
// callers can branch on the kind without string-matching messages.
type Kind int

const (
	// InvalidArg: null/missing input where one was required, an
	// out-of-range index, or an unknown agent/method id.
	InvalidArg Kind = iota
	// TypeMismatch: an accessor or operator applied to the wrong Value
	// variant.
	TypeMismatch
	// SyntaxError: expression or instruction parse failure.
	SyntaxError
	// RuntimeFailure: a runtime precondition was unmet (borrow-only
	// assignment RHS, send to a destroyed queue, method lookup miss).
	RuntimeFailure
	// PersistenceCorruption: the persistence validator rejected a file.
	PersistenceCorruption
	// CapacityExceeded: a registry limit (methods, versions) was hit.
	CapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case InvalidArg:
		return "InvalidArg"
	case TypeMismatch:
		return "TypeMismatch"
	case SyntaxError:
		return "SyntaxError"
	case RuntimeFailure:
		return "RuntimeFailure"
	case PersistenceCorruption:
		return "PersistenceCorruption"
	case CapacityExceeded:
		return "CapacityExceeded"
	default:
		return "Unknown"
	}
}

// kindError pairs a Kind with a message so errors.Is(err, diag.InvalidArg)
// style checks work via a sentinel comparator below.
type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

// Is lets kind sentinels (see below) match any error of that Kind.
func (e *kindError) Is(target error) bool {
	var sentinel *kindError
	if errors.As(target, &sentinel) {
		return e.kind == sentinel.kind
	}
	return false
}

func newSentinel(k Kind) error { return &kindError{kind: k, msg: k.String()} }

// Sentinels for errors.Is comparisons, e.g. errors.Is(err, diag.ErrTypeMismatch).
var (
	ErrInvalidArg            = newSentinel(InvalidArg)
	ErrTypeMismatch          = newSentinel(TypeMismatch)
	ErrSyntax                = newSentinel(SyntaxError)
	ErrRuntimeFailure        = newSentinel(RuntimeFailure)
	ErrPersistenceCorruption = newSentinel(PersistenceCorruption)
	ErrCapacityExceeded      = newSentinel(CapacityExceeded)
)

// Errorf builds an error of the given kind, matching both errors.Is
// against the kind's sentinel and normal %w wrapping.
func Errorf(k Kind, format string, args ...any) error {
	return &kindError{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Position is a 1-based line/column location in source text.
type Position struct {
	Line   int
	Column int
}

// Error records a parse failure (Kind SyntaxError) together with
// enough context to render a caret pointing at the offending column,
// the same shape as go-dws's internal/errors.CompilerError.
type Error struct {
	Pos     Position
	Message string
	Source  string
}

func (e *Error) Error() string { return e.Format(false) }

func (e *Error) Is(target error) bool { return target == ErrSyntax }

// Format renders the error with a source-line excerpt and caret,
// optionally with ANSI color for terminal output.
func (e *Error) Format(color bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "syntax error at line %d, column %d\n", e.Pos.Line, e.Pos.Column)

	if line := sourceLine(e.Source, e.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}
