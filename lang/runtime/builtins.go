// builtins.go implements spec.md §4.5's fixed builtin catalog plus the guard
// predicates (is_int, is_bool, ...), adapted from
// original_source/src/native_runtime/mod.rs's evaluate_builtin_call match.
package runtime

import "github.com/mikeyobrien/tonic/lang/token"

// EvaluateBuiltinCall dispatches a builtin call by name. It is the runtime
// counterpart of lang/ir's IrCallTarget::Builtin resolution (spec.md §4.5):
// once IR lowering has identified a bare call as a builtin rather than a
// user function, this is where it actually executes.
func EvaluateBuiltinCall(name string, args []Value, offset token.Pos) (Value, error) {
	switch name {
	case "ok":
		arg, err := expectSingle(name, args, offset)
		if err != nil {
			return nil, err
		}
		return ResultOk{Value: arg}, nil
	case "err":
		arg, err := expectSingle(name, args, offset)
		if err != nil {
			return nil, err
		}
		return ResultErr{Value: arg}, nil
	case "tuple":
		left, right, err := expectPair(name, args, offset)
		if err != nil {
			return nil, err
		}
		return NewTuple(left, right), nil
	case "list":
		return NewList(append([]Value(nil), args...)), nil
	case "map_empty":
		if len(args) != 0 {
			return nil, arityError(name, 0, len(args), offset)
		}
		return MapEmpty(), nil
	case "map":
		key, value, err := expectPair(name, args, offset)
		if err != nil {
			return nil, err
		}
		return NewMapPair(key, value), nil
	case "map_put":
		base, key, value, err := expectTriple(name, args, offset)
		if err != nil {
			return nil, err
		}
		m, ok := base.(*Map)
		if !ok {
			return nil, badArg(offset)
		}
		return m.Put(key, value), nil
	case "map_update":
		base, key, value, err := expectTriple(name, args, offset)
		if err != nil {
			return nil, err
		}
		m, ok := base.(*Map)
		if !ok {
			return nil, badArg(offset)
		}
		return m.Update(key, value, offset)
	case "map_access":
		base, key, err := expectPair(name, args, offset)
		if err != nil {
			return nil, err
		}
		m, ok := base.(*Map)
		if !ok {
			return nil, badArg(offset)
		}
		return m.Access(key, offset)
	case "keyword":
		key, value, err := expectPair(name, args, offset)
		if err != nil {
			return nil, err
		}
		return NewKeywordPair(key, value), nil
	case "keyword_append":
		base, key, value, err := expectTriple(name, args, offset)
		if err != nil {
			return nil, err
		}
		k, ok := base.(*Keyword)
		if !ok {
			return nil, badArg(offset)
		}
		return k.Append(key, value), nil
	case "div":
		left, right, err := expectPair(name, args, offset)
		if err != nil {
			return nil, err
		}
		return DivBuiltin(left, right, offset)
	case "rem":
		left, right, err := expectPair(name, args, offset)
		if err != nil {
			return nil, err
		}
		return RemBuiltin(left, right, offset)
	case "byte_size":
		arg, err := expectSingle(name, args, offset)
		if err != nil {
			return nil, err
		}
		return ByteSize(arg, offset)
	case "bit_size":
		arg, err := expectSingle(name, args, offset)
		if err != nil {
			return nil, err
		}
		return BitSize(arg, offset)
	case "protocol_dispatch":
		arg, err := expectSingle(name, args, offset)
		if err != nil {
			return nil, err
		}
		return protocolDispatch(arg, offset)
	case "host_call":
		return DefaultHostRegistry.EvaluateHostCall(args, offset)
	default:
		if guard, ok := guardPredicates[name]; ok {
			arg, err := expectSingle(name, args, offset)
			if err != nil {
				return nil, err
			}
			return Bool(guard(arg)), nil
		}
		return nil, newError(UnsupportedBuiltin, offset, "unsupported builtin call in runtime evaluator: %s", name)
	}
}

// guardPredicates backs the is_int/is_bool/... family of spec.md §4.5 guard
// builtins; each takes exactly one argument and returns a Bool.
var guardPredicates = map[string]func(Value) bool{
	"is_int":     func(v Value) bool { _, ok := v.(Int); return ok },
	"is_bool":    func(v Value) bool { _, ok := v.(Bool); return ok },
	"is_nil":     func(v Value) bool { _, ok := v.(Nil); return ok },
	"is_atom":    func(v Value) bool { _, ok := v.(Atom); return ok },
	"is_string":  func(v Value) bool { _, ok := v.(String); return ok },
	"is_list":    func(v Value) bool { _, ok := v.(*List); return ok },
	"is_tuple":   func(v Value) bool { _, ok := v.(Tuple); return ok },
	"is_map":     func(v Value) bool { _, ok := v.(*Map); return ok },
	"is_closure": func(v Value) bool { _, ok := v.(*Closure); return ok },
	"is_result": func(v Value) bool {
		switch v.(type) {
		case ResultOk, ResultErr:
			return true
		default:
			return false
		}
	},
}

// protocolDispatchTable maps a runtime kind to an integer implementation id,
// matching original_source's PROTOCOL_DISPATCH_TABLE.
var protocolDispatchTable = map[string]int64{
	"tuple": 1,
	"map":   2,
}

func protocolDispatch(value Value, offset token.Pos) (Value, error) {
	impl, ok := protocolDispatchTable[value.Kind()]
	if !ok {
		return nil, newError(BadArg, offset, "protocol_dispatch has no implementation for %s", value.Kind())
	}
	return Int(impl), nil
}

func arityError(name string, expected, found int, offset token.Pos) error {
	return newError(ArityMismatch, offset,
		"arity mismatch for runtime builtin %s: expected %d args, found %d", name, expected, found)
}

func expectSingle(name string, args []Value, offset token.Pos) (Value, error) {
	if len(args) != 1 {
		return nil, arityError(name, 1, len(args), offset)
	}
	return args[0], nil
}

func expectPair(name string, args []Value, offset token.Pos) (Value, Value, error) {
	if len(args) != 2 {
		return nil, nil, arityError(name, 2, len(args), offset)
	}
	return args[0], args[1], nil
}

func expectTriple(name string, args []Value, offset token.Pos) (Value, Value, Value, error) {
	if len(args) != 3 {
		return nil, nil, nil, arityError(name, 3, len(args), offset)
	}
	return args[0], args[1], args[2], nil
}
