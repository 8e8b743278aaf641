package ast

import (
	"encoding/json"
	"fmt"

	"github.com/mikeyobrien/tonic/lang/token"
)

// Pattern is implemented by every pattern node usable in a case branch
// (spec.md §3.2, §4.2). Tonic has no assignment statements: every binding
// happens through pattern matching, either in a case branch or a function
// parameter list.
type Pattern interface {
	Node
	patternNode()
}

type PatternBase struct {
	NodeID string
	Offset token.Pos
}

func (b *PatternBase) ID() string                   { return b.NodeID }
func (b *PatternBase) Span() (start, end token.Pos) { return b.Offset, b.Offset }
func (b *PatternBase) patternNode()                 {}

// WildcardPattern matches anything and binds nothing (`_`).
type WildcardPattern struct {
	PatternBase
}

func (p *WildcardPattern) String() string { return "_" }
func (p *WildcardPattern) Walk(Visitor)   {}

// BindPattern matches anything and binds it to Name.
type BindPattern struct {
	PatternBase
	Name string
}

func (p *BindPattern) String() string { return "bind " + p.Name }
func (p *BindPattern) Walk(Visitor)   {}

// PinPattern matches only if the value equals the already-bound variable
// Name (the `&name` pin operator), rather than rebinding it.
type PinPattern struct {
	PatternBase
	Name string
}

func (p *PinPattern) String() string { return "pin ^" + p.Name }
func (p *PinPattern) Walk(Visitor)   {}

// IntPattern matches an exact integer literal.
type IntPattern struct {
	PatternBase
	Value int64
}

func (p *IntPattern) String() string { return "int pattern" }
func (p *IntPattern) Walk(Visitor)   {}

// BoolPattern matches an exact boolean literal.
type BoolPattern struct {
	PatternBase
	Value bool
}

func (p *BoolPattern) String() string { return "bool pattern" }
func (p *BoolPattern) Walk(Visitor)   {}

// NilPattern matches the nil value.
type NilPattern struct {
	PatternBase
}

func (p *NilPattern) String() string { return "nil pattern" }
func (p *NilPattern) Walk(Visitor)   {}

// StringPattern matches an exact string literal.
type StringPattern struct {
	PatternBase
	Value string
}

func (p *StringPattern) String() string { return "string pattern" }
func (p *StringPattern) Walk(Visitor)   {}

// AtomPattern matches an exact atom literal.
type AtomPattern struct {
	PatternBase
	Value string
}

func (p *AtomPattern) String() string { return "atom pattern :" + p.Value }
func (p *AtomPattern) Walk(Visitor)   {}

// TuplePattern matches a tuple by matching each of Items against the
// corresponding tuple slot. Per the value model, a tuple pattern that does
// not have exactly two Items can never match (spec.md §3.5) and is flagged
// by the type inferencer rather than rejected at parse time.
type TuplePattern struct {
	PatternBase
	Items []Pattern
}

func (p *TuplePattern) String() string { return "tuple pattern" }
func (p *TuplePattern) Walk(v Visitor) {
	for _, it := range p.Items {
		Walk(v, it)
	}
}

// ListPattern matches a list. Tail, if non-nil, binds the remainder after
// Items (the `[head \ tail]` cons pattern); if nil, the list must have
// exactly len(Items) elements.
type ListPattern struct {
	PatternBase
	Items []Pattern
	Tail  Pattern // nil unless this is a cons pattern
}

func (p *ListPattern) String() string { return "list pattern" }
func (p *ListPattern) Walk(v Visitor) {
	for _, it := range p.Items {
		Walk(v, it)
	}
	if p.Tail != nil {
		Walk(v, p.Tail)
	}
}

// MapEntryPattern is one `key -> pattern` pair of a map pattern. Key is a
// literal expression (atom, int, string, bool), never itself a pattern: map
// keys must match exactly, only values are matched structurally.
type MapEntryPattern struct {
	Key   Expr
	Value Pattern
}

// MapPattern matches a map that contains at least the given Entries (a
// partial match: extra keys in the scrutinee are ignored, per spec.md
// §4.2's guard/pattern semantics mirroring Elixir's map pattern).
type MapPattern struct {
	PatternBase
	Entries []MapEntryPattern
}

func (p *MapPattern) String() string { return "map pattern" }
func (p *MapPattern) Walk(v Visitor) {
	for _, en := range p.Entries {
		Walk(v, en.Key)
		Walk(v, en.Value)
	}
}

// --- JSON codec ---
//
// Patterns need a lossless wire form for the same reason lang/ir's Op does
// (SPEC_FULL.md §6.2's cache artifacts embed case branches, which embed
// patterns): `lang/cache` round-trips a whole IrProgram through disk.
// Tagged with a "pattern" discriminator, mirroring ir.go's "op" tag.
// MapEntryPattern.Key is always one of the six literal expression kinds
// (int/float/bool/nil/string/atom); no other Expr ever appears there
// (spec.md §4.2's map pattern grammar), so the codec below only needs to
// cover those six rather than all of Expr.

func (p *WildcardPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
	}{"wildcard"})
}

func (p *BindPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
		Name    string `json:"name"`
	}{"bind", p.Name})
}

func (p *PinPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
		Name    string `json:"name"`
	}{"pin", p.Name})
}

func (p *IntPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
		Value   int64  `json:"value"`
	}{"int", p.Value})
}

func (p *BoolPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
		Value   bool   `json:"value"`
	}{"bool", p.Value})
}

func (p *NilPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
	}{"nil"})
}

func (p *StringPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
		Value   string `json:"value"`
	}{"string", p.Value})
}

func (p *AtomPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string `json:"pattern"`
		Value   string `json:"value"`
	}{"atom", p.Value})
}

func (p *TuplePattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string    `json:"pattern"`
		Items   []Pattern `json:"items"`
	}{"tuple", p.Items})
}

func (p *ListPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern string    `json:"pattern"`
		Items   []Pattern `json:"items"`
		Tail    Pattern   `json:"tail,omitempty"`
	}{"list", p.Items, p.Tail})
}

type rawMapEntryPattern struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (p *MapPattern) MarshalJSON() ([]byte, error) {
	entries := make([]rawMapEntryPattern, len(p.Entries))
	for i, en := range p.Entries {
		key, err := marshalLiteralKey(en.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(en.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = rawMapEntryPattern{Key: key, Value: value}
	}
	return json.Marshal(struct {
		Pattern string               `json:"pattern"`
		Entries []rawMapEntryPattern `json:"entries"`
	}{"map", entries})
}

// UnmarshalPattern decodes one tagged pattern node, the Pattern-side
// counterpart to lang/ir's op decoding.
func UnmarshalPattern(data []byte) (Pattern, error) {
	var tag struct {
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode pattern tag: %w", err)
	}

	switch tag.Pattern {
	case "wildcard":
		return &WildcardPattern{}, nil
	case "bind":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &BindPattern{Name: body.Name}, nil
	case "pin":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &PinPattern{Name: body.Name}, nil
	case "int":
		var body struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &IntPattern{Value: body.Value}, nil
	case "bool":
		var body struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &BoolPattern{Value: body.Value}, nil
	case "nil":
		return &NilPattern{}, nil
	case "string":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &StringPattern{Value: body.Value}, nil
	case "atom":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &AtomPattern{Value: body.Value}, nil
	case "tuple":
		var body struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		items, err := unmarshalPatternList(body.Items)
		if err != nil {
			return nil, err
		}
		return &TuplePattern{Items: items}, nil
	case "list":
		var body struct {
			Items []json.RawMessage `json:"items"`
			Tail  json.RawMessage   `json:"tail,omitempty"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		items, err := unmarshalPatternList(body.Items)
		if err != nil {
			return nil, err
		}
		var tail Pattern
		if len(body.Tail) > 0 {
			tail, err = UnmarshalPattern(body.Tail)
			if err != nil {
				return nil, err
			}
		}
		return &ListPattern{Items: items, Tail: tail}, nil
	case "map":
		var body struct {
			Entries []rawMapEntryPattern `json:"entries"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		entries := make([]MapEntryPattern, len(body.Entries))
		for i, raw := range body.Entries {
			key, err := unmarshalLiteralKey(raw.Key)
			if err != nil {
				return nil, err
			}
			value, err := UnmarshalPattern(raw.Value)
			if err != nil {
				return nil, err
			}
			entries[i] = MapEntryPattern{Key: key, Value: value}
		}
		return &MapPattern{Entries: entries}, nil
	default:
		return nil, fmt.Errorf("unknown pattern tag %q", tag.Pattern)
	}
}

func unmarshalPatternList(raw []json.RawMessage) ([]Pattern, error) {
	if raw == nil {
		return nil, nil
	}
	items := make([]Pattern, len(raw))
	for i, r := range raw {
		item, err := UnmarshalPattern(r)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

func marshalLiteralKey(e Expr) ([]byte, error) {
	switch v := e.(type) {
	case *IntExpr:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value int64  `json:"value"`
		}{"int", v.Value})
	case *FloatExpr:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value string `json:"value"`
		}{"float", v.Value})
	case *BoolExpr:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value bool   `json:"value"`
		}{"bool", v.Value})
	case *NilExpr:
		return json.Marshal(struct {
			Kind string `json:"kind"`
		}{"nil"})
	case *StringExpr:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value string `json:"value"`
		}{"string", v.Value})
	case *AtomExpr:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value string `json:"value"`
		}{"atom", v.Value})
	default:
		return nil, fmt.Errorf("map pattern key must be a literal expression, found %T", e)
	}
}

func unmarshalLiteralKey(data []byte) (Expr, error) {
	var tag struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode map pattern key tag: %w", err)
	}

	switch tag.Kind {
	case "int":
		var body struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &IntExpr{Value: body.Value}, nil
	case "float":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &FloatExpr{Value: body.Value}, nil
	case "bool":
		var body struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &BoolExpr{Value: body.Value}, nil
	case "nil":
		return &NilExpr{}, nil
	case "string":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &StringExpr{Value: body.Value}, nil
	case "atom":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return &AtomExpr{Value: body.Value}, nil
	default:
		return nil, fmt.Errorf("unknown map pattern key tag %q", tag.Kind)
	}
}
