package runtime

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/token"
)

// Tuple is an immutable, exactly-arity-2 pair (spec.md §3.5). A tuple
// pattern/value of any other arity is rejected earlier in the pipeline (the
// type inferencer), not here.
type Tuple struct {
	Left, Right Value
}

// NewTuple builds a Tuple, adapted from
// original_source/src/native_runtime/mod.rs's "tuple" builtin arm
// (collections::tuple, reconstructed: the collections.rs source file itself
// was not present in the retrieval pack, see DESIGN.md).
func NewTuple(left, right Value) Tuple { return Tuple{Left: left, Right: right} }

func (t Tuple) String() string { return fmt.Sprintf("{%s, %s}", t.Left.String(), t.Right.String()) }
func (t Tuple) Kind() string   { return "tuple" }
func (t Tuple) Truth() bool    { return true }

// List is an immutable, ordered sequence of values.
type List struct {
	Elems []Value
}

// NewList builds a List containing elems. Callers must not mutate elems
// afterward.
func NewList(elems []Value) *List { return &List{Elems: elems} }

func (l *List) String() string { return "[" + renderAll(l.Elems) + "]" }
func (l *List) Kind() string   { return "list" }
func (l *List) Truth() bool    { return len(l.Elems) > 0 }

// Concat returns a new List with other's elements appended.
func (l *List) Concat(other *List) *List {
	out := make([]Value, 0, len(l.Elems)+len(other.Elems))
	out = append(out, l.Elems...)
	out = append(out, other.Elems...)
	return NewList(out)
}

// Subtract returns a new List with the first occurrence of each of other's
// elements removed, matching original_source's list_subtract.
func (l *List) Subtract(other *List) *List {
	out := append([]Value(nil), l.Elems...)
	for _, item := range other.Elems {
		for i, v := range out {
			if Equal(v, item) {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return NewList(out)
}

// Contains reports whether v appears in l, used by the `in` operator.
func (l *List) Contains(v Value) bool {
	for _, e := range l.Elems {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// Pair is one key/value entry of a Map or Keyword.
type Pair struct {
	Key, Value Value
}

// Map is an ordered mapping that preserves insertion order (spec.md §3.5).
// Lookup is linear: Tonic maps are expected to be small (function
// environments, config-shaped literals), so a swiss-table-backed index would
// add complexity without a component that needs its throughput — the
// high-churn, string- and int-keyed tables in this repo (host registry, pattern and
// closure fingerprint registries, §4.16) are where that library is wired
// instead.
type Map struct {
	Entries []Pair
}

// MapEmpty returns a new, empty Map (the "map_empty" builtin).
func MapEmpty() *Map { return &Map{} }

// NewMapPair builds a single-entry Map from one key/value pair, matching
// original_source's "map" builtin arm, which (per
// native_runtime/mod.rs's expect_pair_builtin_args call) takes exactly one
// pair rather than a variadic list of pairs.
func NewMapPair(key, value Value) *Map {
	return &Map{Entries: []Pair{{Key: key, Value: value}}}
}

func (m *Map) String() string {
	out := "%{"
	for i, p := range m.Entries {
		if i > 0 {
			out += ", "
		}
		out += p.Key.String() + " => " + p.Value.String()
	}
	return out + "}"
}
func (m *Map) Kind() string { return "map" }
func (m *Map) Truth() bool  { return true }

func (m *Map) indexOf(key Value) int {
	for i, p := range m.Entries {
		if Equal(p.Key, key) {
			return i
		}
	}
	return -1
}

// Put updates the entry for key in place if present, else appends a new one
// (spec.md §3.5's map_put semantics).
func (m *Map) Put(key, value Value) *Map {
	out := append([]Pair(nil), m.Entries...)
	if i := m.indexOf(key); i >= 0 {
		out[i] = Pair{Key: key, Value: value}
	} else {
		out = append(out, Pair{Key: key, Value: value})
	}
	return &Map{Entries: out}
}

// Update replaces the entry for key, failing if key is absent (spec.md
// §3.5's map_update semantics).
func (m *Map) Update(key, value Value, offset token.Pos) (*Map, error) {
	i := m.indexOf(key)
	if i < 0 {
		return nil, newError(BadArg, offset, "map_update: key not found")
	}
	out := append([]Pair(nil), m.Entries...)
	out[i] = Pair{Key: key, Value: value}
	return &Map{Entries: out}, nil
}

// Access looks up key, failing if absent.
func (m *Map) Access(key Value, offset token.Pos) (Value, error) {
	if i := m.indexOf(key); i >= 0 {
		return m.Entries[i].Value, nil
	}
	return nil, newError(BadArg, offset, "map_access: key not found")
}

// Keyword is an ordered, duplicate-key-permitting association list (spec.md
// §3.5). Unlike Map, appending never replaces an existing entry.
type Keyword struct {
	Entries []Pair
}

// NewKeywordPair builds a single-entry Keyword, mirroring Map's single-pair
// "map" builtin constructor for the analogous "keyword" builtin.
func NewKeywordPair(key, value Value) *Keyword {
	return &Keyword{Entries: []Pair{{Key: key, Value: value}}}
}

func (k *Keyword) String() string {
	out := "["
	for i, p := range k.Entries {
		if i > 0 {
			out += ", "
		}
		out += keywordKeyText(p.Key) + ": " + p.Value.String()
	}
	return out + "]"
}

// keywordKeyText renders a keyword entry's key the way the `k: v` literal
// syntax writes it: bare, without the atom's leading colon (spec.md §3.5's
// `[k: v]` rendering rule), falling back to the value's ordinary String for
// the (non-surface-syntax) case of a non-atom keyword key.
func keywordKeyText(key Value) string {
	if a, ok := key.(Atom); ok {
		return a.Raw()
	}
	return key.String()
}
func (k *Keyword) Kind() string { return "keyword" }
func (k *Keyword) Truth() bool  { return true }

// Append always adds a new entry, never updating an existing one (spec.md
// §3.5: "Keywords allow duplicate keys and always append").
func (k *Keyword) Append(key, value Value) *Keyword {
	out := append([]Pair(nil), k.Entries...)
	out = append(out, Pair{Key: key, Value: value})
	return &Keyword{Entries: out}
}

// Range is an inclusive integer range (spec.md §3.5's Range(i64,i64)).
type Range struct {
	Start, End int64
}

func (r Range) String() string { return fmt.Sprintf("%d..%d", r.Start, r.End) }
func (r Range) Kind() string   { return "range" }
func (r Range) Truth() bool    { return true }

// Contains reports whether i falls within the inclusive range.
func (r Range) Contains(i int64) bool { return i >= r.Start && i <= r.End }

// SteppedRange is an inclusive integer range with an explicit step (spec.md
// §3.5's SteppedRange(i64,i64,i64)). The surface grammar (spec.md §4.1/§4.2)
// does not expose a stepped-range literal; this variant exists in the value
// model for builtins/host functions that construct one programmatically.
type SteppedRange struct {
	Start, End, Step int64
}

func (r SteppedRange) String() string {
	return fmt.Sprintf("%d..%d//%d", r.Start, r.End, r.Step)
}
func (r SteppedRange) Kind() string { return "range" }
func (r SteppedRange) Truth() bool  { return true }
