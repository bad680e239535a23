package diagnostic

import (
	"fmt"
	"strings"
)

// Kind classifies a semantic error.
type Kind int

const (
	TypeMismatch Kind = iota
	UndeclaredIdentifier
	UndeclaredField
	UndeclaredMethod
	UndeclaredClass
	NotAnArray
	NotAClass
	WrongArgumentCount
	ArgumentTypeMismatch
	InvalidThisContext
)

func (k Kind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case UndeclaredIdentifier:
		return "undeclared identifier"
	case UndeclaredField:
		return "undeclared field"
	case UndeclaredMethod:
		return "undeclared method"
	case UndeclaredClass:
		return "undeclared class"
	case NotAnArray:
		return "not an array"
	case NotAClass:
		return "not a class"
	case WrongArgumentCount:
		return "wrong argument count"
	case ArgumentTypeMismatch:
		return "argument type mismatch"
	case InvalidThisContext:
		return "invalid this context"
	default:
		return "unknown"
	}
}

// Diagnostic is a single semantic error tied to a source position.
type Diagnostic struct {
	Kind    Kind
	Message string
	Line    int
	Column  int
	Types   []string // names of the offending types, if any
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d:%d: %s", d.Line, d.Column, d.Message)
}

// List collects diagnostics in the order they were reported.
type List struct {
	items []Diagnostic
}

func New() *List {
	return &List{items: make([]Diagnostic, 0)}
}

// Report appends a diagnostic with a formatted message.
func (l *List) Report(kind Kind, line, col int, types []string, format string, args ...interface{}) Diagnostic {
	d := Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
		Types:   types,
	}
	l.items = append(l.items, d)
	return d
}

func (l *List) Len() int { return len(l.items) }

func (l *List) HasErrors() bool { return len(l.items) > 0 }

// Errors returns a copy of the collected diagnostics.
func (l *List) Errors() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// OfKind returns the diagnostics of the given kind.
func (l *List) OfKind(kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.items {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Messages renders every diagnostic as "line L:C: message".
func (l *List) Messages() []string {
	out := make([]string, len(l.items))
	for i, d := range l.items {
		out[i] = d.String()
	}
	return out
}

func (l *List) String() string {
	return strings.Join(l.Messages(), "\n")
}
