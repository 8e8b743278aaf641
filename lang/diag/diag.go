// Package diag implements the diagnostic rendering shared by every stage of
// the Tonic pipeline (spec.md §6.5, §7). Centralizing it here, rather than
// duplicating it once per stage the way the teacher's scanner.ErrorList does
// for lexing alone, lets the lexer, parser, resolver, type inferencer and
// runtime all produce the same three message shapes.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mikeyobrien/tonic/lang/token"
)

// Known diagnostic codes (spec.md §3.1, §7).
const (
	CodeUndefinedSymbol  = "E1001"
	CodeTypeMismatch     = "E2001"
	CodeQuestionNonResult = "E3001"
	CodeNonExhaustive    = "E3002"
)

// Diagnostic is a single compiler error or warning. A Diagnostic with an
// empty Code renders as "untyped" (spec.md §6.5's second bullet); one with a
// Code renders as "typed". Offset, when not token.NoPos, is a byte offset
// used to append "at offset N" to an untyped message and, when File is
// non-nil, the derived line/column/snippet/caret lines.
type Diagnostic struct {
	Code    string
	Message string
	Offset  token.Pos // token.NoPos if not applicable
	File    *token.File
}

// New creates an untyped diagnostic carrying no offset.
func New(message string) Diagnostic {
	return Diagnostic{Message: message, Offset: token.NoPos}
}

// At creates an untyped diagnostic with an offset.
func At(message string, offset token.Pos) Diagnostic {
	return Diagnostic{Message: message, Offset: offset}
}

// Coded creates a typed diagnostic. The message is expected to already
// contain any "at offset N" suffix the code's documented format calls for,
// matching how the type inferencer (spec.md §4.4) embeds the offset in its
// own message text.
func Coded(code, message string) Diagnostic {
	return Diagnostic{Code: code, Message: message, Offset: token.NoPos}
}

// CodedAt creates a typed diagnostic with an offset recorded for snippet
// rendering, without duplicating it textually in Message.
func CodedAt(code, message string, offset token.Pos, file *token.File) Diagnostic {
	return Diagnostic{Code: code, Message: message, Offset: offset, File: file}
}

// Error renders the diagnostic per spec.md §6.5.
func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString("error: ")
	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	} else if d.Offset.IsValid() {
		fmt.Fprintf(&b, "%s at offset %d", d.Message, int(d.Offset))
	} else {
		b.WriteString(d.Message)
	}

	if d.Offset.IsValid() && d.File != nil {
		pos := d.File.Position(d.Offset)
		fmt.Fprintf(&b, "\n  --> %s:%d:%d", pos.Filename, pos.Line, pos.Column)
		if line := d.File.LineText(pos.Line); line != "" {
			fmt.Fprintf(&b, "\n%s", line)
			caretCol := pos.Column
			if caretCol < 1 {
				caretCol = 1
			}
			fmt.Fprintf(&b, "\n%s^", strings.Repeat(" ", caretCol-1))
		}
	}
	return b.String()
}

// List accumulates diagnostics across a compilation stage, mirroring the
// behavior of go/scanner.ErrorList (sort by offset, Err returns nil when
// empty) that the teacher leans on directly in lang/scanner.
type List struct {
	items []Diagnostic
}

// Add appends d to the list.
func (l *List) Add(d Diagnostic) { l.items = append(l.items, d) }

// Addf appends an untyped, offset-less diagnostic built from a format
// string.
func (l *List) Addf(format string, args ...interface{}) {
	l.Add(New(fmt.Sprintf(format, args...)))
}

// Len reports the number of diagnostics accumulated.
func (l *List) Len() int { return len(l.items) }

// Items returns the accumulated diagnostics in their current order.
func (l *List) Items() []Diagnostic { return l.items }

// Sort orders diagnostics by offset (invalid offsets sort first), stable
// for diagnostics sharing an offset.
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		return l.items[i].Offset < l.items[j].Offset
	})
}

// Err returns nil if the list is empty, or an *Error wrapping every
// accumulated diagnostic otherwise.
func (l *List) Err() error {
	if len(l.items) == 0 {
		return nil
	}
	return &Error{items: l.items}
}

// Error is the error implementation returned by List.Err.
type Error struct {
	items []Diagnostic
}

func (e *Error) Error() string {
	lines := make([]string, len(e.items))
	for i, d := range e.items {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// Diagnostics returns the wrapped diagnostics.
func (e *Error) Diagnostics() []Diagnostic { return e.items }

// Unwrap supports errors.Is/As over the individual diagnostics.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.items))
	for i, d := range e.items {
		d := d
		errs[i] = &d
	}
	return errs
}
