package ir

// Decoding side of the op/pattern JSON codec declared in ir.go. Needed
// because lang/cache persists a whole Program to `.ir.json` and must be
// able to read it back (spec.md §6.2 "round-trips losslessly"); nothing in
// the pipeline needed to deserialize IR before the cache existed, so only
// the encode half was written alongside each Op's MarshalJSON.

import (
	"encoding/json"
	"fmt"

	"github.com/mikeyobrien/tonic/lang/ast"
)

func (t *CallTarget) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "builtin":
		*t = CallTarget{Builtin: raw.Name}
	case "function":
		*t = CallTarget{Function: raw.Name}
	default:
		return fmt.Errorf("unknown call target kind %q", raw.Kind)
	}
	return nil
}

func decodeOps(raw []json.RawMessage) ([]Op, error) {
	if raw == nil {
		return nil, nil
	}
	ops := make([]Op, len(raw))
	for i, r := range raw {
		op, err := UnmarshalOp(r)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

type rawCaseBranch struct {
	Pattern  json.RawMessage   `json:"pattern"`
	GuardOps []json.RawMessage `json:"guard_ops,omitempty"`
	Ops      []json.RawMessage `json:"ops"`
}

func (b CaseBranch) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern  ast.Pattern `json:"pattern"`
		GuardOps []Op        `json:"guard_ops,omitempty"`
		Ops      []Op        `json:"ops"`
	}{b.Pattern, b.GuardOps, b.Ops})
}

func (b *CaseBranch) UnmarshalJSON(data []byte) error {
	var raw rawCaseBranch
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pattern, err := ast.UnmarshalPattern(raw.Pattern)
	if err != nil {
		return err
	}
	guardOps, err := decodeOps(raw.GuardOps)
	if err != nil {
		return err
	}
	ops, err := decodeOps(raw.Ops)
	if err != nil {
		return err
	}
	*b = CaseBranch{Pattern: pattern, GuardOps: guardOps, Ops: ops}
	return nil
}

type rawForGenerator struct {
	Pattern   json.RawMessage   `json:"pattern"`
	SourceOps []json.RawMessage `json:"source_ops"`
}

func (g ForGenerator) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern   ast.Pattern `json:"pattern"`
		SourceOps []Op        `json:"source_ops"`
	}{g.Pattern, g.SourceOps})
}

func (g *ForGenerator) UnmarshalJSON(data []byte) error {
	var raw rawForGenerator
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pattern, err := ast.UnmarshalPattern(raw.Pattern)
	if err != nil {
		return err
	}
	sourceOps, err := decodeOps(raw.SourceOps)
	if err != nil {
		return err
	}
	*g = ForGenerator{Pattern: pattern, SourceOps: sourceOps}
	return nil
}

type rawCondBranch struct {
	GuardOps []json.RawMessage `json:"guard_ops"`
	Ops      []json.RawMessage `json:"ops"`
}

func (b CondBranch) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		GuardOps []Op `json:"guard_ops"`
		Ops      []Op `json:"ops"`
	}{b.GuardOps, b.Ops})
}

func (b *CondBranch) UnmarshalJSON(data []byte) error {
	var raw rawCondBranch
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	guardOps, err := decodeOps(raw.GuardOps)
	if err != nil {
		return err
	}
	ops, err := decodeOps(raw.Ops)
	if err != nil {
		return err
	}
	*b = CondBranch{GuardOps: guardOps, Ops: ops}
	return nil
}

// UnmarshalOp decodes one tagged Op, dispatching on the "op" discriminator
// every MarshalJSON implementation in ir.go writes.
func UnmarshalOp(data []byte) (Op, error) {
	var tag struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode op tag: %w", err)
	}

	switch tag.Op {
	case "const_int":
		var body struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return ConstInt{Value: body.Value}, nil
	case "const_float":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return ConstFloat{Value: body.Value}, nil
	case "const_bool":
		var body struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return ConstBool{Value: body.Value}, nil
	case "const_nil":
		return ConstNil{}, nil
	case "const_atom":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return ConstAtom{Value: body.Value}, nil
	case "const_string":
		var body struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return ConstString{Value: body.Value}, nil
	case "load_variable":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return LoadVariable{Name: body.Name}, nil
	case "call":
		var body struct {
			Callee CallTarget `json:"callee"`
			Argc   int        `json:"argc"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return Call{Callee: body.Callee, Argc: body.Argc}, nil
	case "call_value":
		var body struct {
			Argc int `json:"argc"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return CallValue{Argc: body.Argc}, nil
	case "binary":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return BinaryOp{Name: body.Name}, nil
	case "unary":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return UnaryOp{Name: body.Name}, nil
	case "question":
		return Question{}, nil
	case "return":
		return Return{}, nil
	case "case":
		var body struct {
			Branches []CaseBranch `json:"branches"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return Case{Branches: body.Branches}, nil
	case "cond":
		var body struct {
			Branches []CondBranch `json:"branches"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return Cond{Branches: body.Branches}, nil
	case "short_circuit":
		var body struct {
			Kind     string            `json:"kind"`
			RightOps []json.RawMessage `json:"right_ops"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		rightOps, err := decodeOps(body.RightOps)
		if err != nil {
			return nil, err
		}
		return ShortCircuit{Kind: body.Kind, RightOps: rightOps}, nil
	case "try":
		var body struct {
			BodyOps  []json.RawMessage `json:"body_ops"`
			Rescue   []CaseBranch      `json:"rescue"`
			Catch    []CaseBranch      `json:"catch"`
			AfterOps []json.RawMessage `json:"after_ops,omitempty"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		bodyOps, err := decodeOps(body.BodyOps)
		if err != nil {
			return nil, err
		}
		afterOps, err := decodeOps(body.AfterOps)
		if err != nil {
			return nil, err
		}
		return Try{BodyOps: bodyOps, Rescue: body.Rescue, Catch: body.Catch, AfterOps: afterOps}, nil
	case "for":
		var body struct {
			Generators []ForGenerator    `json:"generators"`
			BodyOps    []json.RawMessage `json:"body_ops"`
			GuardOps   []json.RawMessage `json:"guard_ops,omitempty"`
			IntoOps    []json.RawMessage `json:"into_ops,omitempty"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		bodyOps, err := decodeOps(body.BodyOps)
		if err != nil {
			return nil, err
		}
		guardOps, err := decodeOps(body.GuardOps)
		if err != nil {
			return nil, err
		}
		intoOps, err := decodeOps(body.IntoOps)
		if err != nil {
			return nil, err
		}
		return For{Generators: body.Generators, BodyOps: bodyOps, GuardOps: guardOps, IntoOps: intoOps}, nil
	case "make_closure":
		var body struct {
			Params []string          `json:"params"`
			Ops    []json.RawMessage `json:"ops"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		ops, err := decodeOps(body.Ops)
		if err != nil {
			return nil, err
		}
		return MakeClosure{Params: body.Params, Ops: ops}, nil
	default:
		return nil, fmt.Errorf("unknown ir op tag %q", tag.Op)
	}
}

type rawFunction struct {
	Name          string            `json:"name"`
	Params        []string          `json:"params"`
	ParamPatterns []json.RawMessage `json:"param_patterns,omitempty"`
	GuardOps      []json.RawMessage `json:"guard_ops,omitempty"`
	Ops           []json.RawMessage `json:"ops"`
}

func (f Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name          string        `json:"name"`
		Params        []string      `json:"params"`
		ParamPatterns []ast.Pattern `json:"param_patterns,omitempty"`
		GuardOps      []Op          `json:"guard_ops,omitempty"`
		Ops           []Op          `json:"ops"`
	}{f.Name, f.Params, f.ParamPatterns, f.GuardOps, f.Ops})
}

func (f *Function) UnmarshalJSON(data []byte) error {
	var raw rawFunction
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var paramPatterns []ast.Pattern
	if raw.ParamPatterns != nil {
		paramPatterns = make([]ast.Pattern, len(raw.ParamPatterns))
		for i, r := range raw.ParamPatterns {
			pattern, err := ast.UnmarshalPattern(r)
			if err != nil {
				return err
			}
			paramPatterns[i] = pattern
		}
	}

	guardOps, err := decodeOps(raw.GuardOps)
	if err != nil {
		return err
	}
	ops, err := decodeOps(raw.Ops)
	if err != nil {
		return err
	}

	*f = Function{
		Name:          raw.Name,
		Params:        raw.Params,
		ParamPatterns: paramPatterns,
		GuardOps:      guardOps,
		Ops:           ops,
	}
	return nil
}

func (p Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Functions []*Function `json:"functions"`
	}{p.Functions})
}

func (p *Program) UnmarshalJSON(data []byte) error {
	var raw struct {
		Functions []*Function `json:"functions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Program{Functions: raw.Functions}
	return nil
}
