// Package runtime implements spec.md §3.5/§4.9: the RuntimeValue model shared
// by the interpreter and the native backend, the pattern engine used to
// evaluate case/try/for patterns, and the builtin/host-call dispatch tables.
// The value-model shape (Int, Float, Bool, Nil, String, Atom, Tuple, List,
// Map, Keyword, Result, Closure) and the builtin/ops/pattern split across
// files is grounded directly on original_source/src/runtime.rs and
// original_source/src/native_runtime/{mod,ops,pattern}.rs; see DESIGN.md for
// the full ledger entry, including where collections.rs (referenced by
// native_runtime/mod.rs but absent from the retrieval pack) had to be
// reconstructed from spec.md §3.5 and the call sites that survived.
//
// Unlike the teacher's lang/machine value model, Tonic values are immutable:
// spec.md §9 describes Tonic as "a dynamically-typed functional language"
// with no in-place mutation, so there is no Freeze/SetIndex/checkMutable
// machinery here. `map_put` and `keyword_append` build and return a new
// collection rather than mutating the receiver.
package runtime

// Value is implemented by every Tonic runtime value.
type Value interface {
	// String renders the value per spec.md §3.5's fixed rendering rules.
	String() string
	// Kind names the value's runtime type, matching the original's
	// runtime_value_kind dispatch table (used by protocol_dispatch,
	// is_* guard predicates, and error messages).
	Kind() string
	// Truth reports the value's boolean coercion: only Nil and Bool(false)
	// are falsy, matching original_source's truthy_bang.
	Truth() bool
}

// Equal reports structural equality between two values, used by the pattern
// engine's Bind (repeated-name) and Pin checks, map/keyword key lookup, and
// the `in` operator over lists.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Atom:
		bv, ok := b.(Atom)
		return ok && av == bv
	case Tuple:
		bv, ok := b.(Tuple)
		return ok && Equal(av.Left, bv.Left) && Equal(av.Right, bv.Right)
	case *List:
		bv, ok := b.(*List)
		return ok && equalSlices(av.Elems, bv.Elems)
	case *Map:
		bv, ok := b.(*Map)
		return ok && equalPairs(av.Entries, bv.Entries)
	case *Keyword:
		bv, ok := b.(*Keyword)
		return ok && equalPairs(av.Entries, bv.Entries)
	case ResultOk:
		bv, ok := b.(ResultOk)
		return ok && Equal(av.Value, bv.Value)
	case ResultErr:
		bv, ok := b.(ResultErr)
		return ok && Equal(av.Value, bv.Value)
	case Range:
		bv, ok := b.(Range)
		return ok && av == bv
	case SteppedRange:
		bv, ok := b.(SteppedRange)
		return ok && av == bv
	case *Closure:
		return a == b
	default:
		return false
	}
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalPairs(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i].Key, b[i].Key) || !Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// render is a small helper shared by collection String() implementations.
func renderAll(values []Value) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v.String()
	}
	return out
}
