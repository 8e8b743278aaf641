package runtime

import "strconv"

// Int is a 64-bit signed integer value (spec.md §3.5's RuntimeValue::Int).
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Kind() string   { return "int" }
func (i Int) Truth() bool    { return true }

// Float carries a float literal through the pipeline as opaque text: no
// arithmetic path exists for it in the core (spec.md §9 open question 3), so
// unlike Int it is stored and rendered from its original textual form rather
// than a parsed float64, matching ast.FloatExpr.Value.
type Float string

func (f Float) String() string { return string(f) }
func (f Float) Kind() string   { return "float" }
func (f Float) Truth() bool    { return true }

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Kind() string { return "bool" }
func (b Bool) Truth() bool  { return bool(b) }

// Nil is the unit/absent value.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Kind() string   { return "nil" }
func (Nil) Truth() bool    { return false }

// String is a Tonic text string.
type String string

func (s String) String() string { return strconv.Quote(string(s)) }
func (s String) Kind() string   { return "string" }
func (s String) Truth() bool    { return true }

// Raw returns the string's unquoted contents, used by host functions and
// builtins (byte_size, concat, host_call's atom-key handling) that need the
// literal bytes rather than the quoted rendering.
func (s String) Raw() string { return string(s) }

// Atom is an interned-by-value symbol, e.g. `:ok`.
type Atom string

func (a Atom) String() string { return ":" + string(a) }
func (a Atom) Kind() string   { return "atom" }
func (a Atom) Truth() bool    { return true }

// Raw returns the atom's name without the leading colon.
func (a Atom) Raw() string { return string(a) }
