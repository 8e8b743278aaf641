// pattern.go implements spec.md §4.9's pattern engine: backtracking match
// over Map entries, Bind-enforces-equality-if-already-bound, Pin-requires
// already-bound. Adapted from
// original_source/src/native_runtime/pattern.rs's match_pattern, generalized
// from that file's flat IrPattern enum to lang/ast's richer Pattern
// hierarchy (see DESIGN.md: IR/MIR reuse lang/ast.Pattern directly rather
// than redefining an equivalent type, unlike the original's separate
// IrPattern).
package runtime

import "github.com/mikeyobrien/tonic/lang/ast"

// Match attempts to match value against pattern, recording every name the
// pattern binds into bindings. env supplies already-bound names from the
// enclosing frame, consulted only by Pin. bindings accumulates new bindings
// introduced by this pattern; on failure its contents are unspecified and
// the caller must discard it (case/try/for branch selection tries a fresh
// bindings map per candidate branch).
func Match(value Value, pattern ast.Pattern, env map[string]Value, bindings map[string]Value) bool {
	switch p := pattern.(type) {
	case *ast.WildcardPattern:
		return true
	case *ast.BindPattern:
		if existing, ok := bindings[p.Name]; ok {
			return Equal(existing, value)
		}
		bindings[p.Name] = value
		return true
	case *ast.PinPattern:
		pinned, ok := bindings[p.Name]
		if !ok {
			pinned, ok = env[p.Name]
		}
		return ok && Equal(pinned, value)
	case *ast.IntPattern:
		v, ok := value.(Int)
		return ok && int64(v) == p.Value
	case *ast.BoolPattern:
		v, ok := value.(Bool)
		return ok && bool(v) == p.Value
	case *ast.NilPattern:
		_, ok := value.(Nil)
		return ok
	case *ast.StringPattern:
		v, ok := value.(String)
		return ok && v.Raw() == p.Value
	case *ast.AtomPattern:
		v, ok := value.(Atom)
		return ok && v.Raw() == p.Value
	case *ast.TuplePattern:
		return matchTuple(value, p, env, bindings)
	case *ast.ListPattern:
		return matchList(value, p, env, bindings)
	case *ast.MapPattern:
		return matchMap(value, p, env, bindings)
	default:
		return false
	}
}

func matchTuple(value Value, p *ast.TuplePattern, env, bindings map[string]Value) bool {
	t, ok := value.(Tuple)
	if !ok || len(p.Items) != 2 {
		return false
	}
	return Match(t.Left, p.Items[0], env, bindings) && Match(t.Right, p.Items[1], env, bindings)
}

func matchList(value Value, p *ast.ListPattern, env, bindings map[string]Value) bool {
	l, ok := value.(*List)
	if !ok || len(l.Elems) < len(p.Items) {
		return false
	}
	for i, item := range p.Items {
		if !Match(l.Elems[i], item, env, bindings) {
			return false
		}
	}
	rest := l.Elems[len(p.Items):]
	if p.Tail == nil {
		return len(rest) == 0
	}
	return Match(NewList(append([]Value(nil), rest...)), p.Tail, env, bindings)
}

// matchMap performs a backtracking partial match: every entry pattern must
// match some entry of the scrutinee map, trying each candidate in turn and
// speculatively cloning bindings until one commits (original_source's
// match_pattern for IrPattern::Map).
func matchMap(value Value, p *ast.MapPattern, env, bindings map[string]Value) bool {
	m, ok := value.(*Map)
	if !ok {
		return false
	}
	for _, entry := range p.Entries {
		key, ok := evalLiteralKey(entry.Key)
		if !ok {
			return false
		}
		matched := false
		for _, candidate := range m.Entries {
			if !Equal(candidate.Key, key) {
				continue
			}
			trial := make(map[string]Value, len(bindings))
			for k, v := range bindings {
				trial[k] = v
			}
			if Match(candidate.Value, entry.Value, env, trial) {
				for k := range bindings {
					delete(bindings, k)
				}
				for k, v := range trial {
					bindings[k] = v
				}
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// evalLiteralKey evaluates a map pattern's key expression, which per
// ast.MapEntryPattern's contract is always a literal (atom, int, string, or
// bool), never itself a pattern.
func evalLiteralKey(e ast.Expr) (Value, bool) {
	switch x := e.(type) {
	case *ast.IntExpr:
		return Int(x.Value), true
	case *ast.BoolExpr:
		return Bool(x.Value), true
	case *ast.StringExpr:
		return String(x.Value), true
	case *ast.AtomExpr:
		return Atom(x.Value), true
	default:
		return nil, false
	}
}

// SelectBranch tries each of patterns in order, returning the index of the
// first whose pattern matches and its accumulated bindings, or -1 if none
// match (spec.md §4.9's select_case_branch).
func SelectBranch(value Value, patterns []ast.Pattern, env map[string]Value) (int, map[string]Value) {
	for i, pattern := range patterns {
		bindings := make(map[string]Value)
		if Match(value, pattern, env, bindings) {
			return i, bindings
		}
	}
	return -1, nil
}
