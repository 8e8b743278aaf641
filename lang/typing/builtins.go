package typing

// builtinSignature describes a builtin's parameter/return types for call
// type-checking. Variadic is true for builtins whose argument count is not
// fixed (`list` and `host_call`): every argument is still inferred (for nested error
// propagation) but none is unified against a fixed parameter type.
//
// This table mirrors lang/resolver's builtinNames set for the same
// canonical list (spec.md §4.5); see DESIGN.md for why the two packages
// each carry their own copy rather than sharing one from lang/runtime.
var builtinSignatures = map[string]builtinSignature{
	"ok":                {params: []Type{typeDynamic}, ret: typeResult},
	"err":               {params: []Type{typeDynamic}, ret: typeResult},
	"tuple":             {params: []Type{typeDynamic, typeDynamic}, ret: typeDynamic},
	"list":              {variadic: true, ret: typeDynamic},
	"map":               {params: []Type{typeDynamic, typeDynamic}, ret: typeDynamic},
	"map_empty":         {params: []Type{}, ret: typeDynamic},
	"map_put":           {params: []Type{typeDynamic, typeDynamic, typeDynamic}, ret: typeDynamic},
	"map_update":        {params: []Type{typeDynamic, typeDynamic, typeDynamic}, ret: typeDynamic},
	"map_access":        {params: []Type{typeDynamic, typeDynamic}, ret: typeDynamic},
	"keyword":           {params: []Type{typeDynamic, typeDynamic}, ret: typeDynamic},
	"keyword_append":    {params: []Type{typeDynamic, typeDynamic, typeDynamic}, ret: typeDynamic},
	"host_call":         {variadic: true, ret: typeDynamic},
	"protocol_dispatch":  {params: []Type{typeDynamic}, ret: typeInt},
	"div":               {params: []Type{typeInt, typeInt}, ret: typeInt},
	"rem":               {params: []Type{typeInt, typeInt}, ret: typeInt},
	"byte_size":         {params: []Type{typeString}, ret: typeInt},
	"bit_size":          {params: []Type{typeString}, ret: typeInt},
	"is_int":            {params: []Type{typeDynamic}, ret: typeBool},
	"is_bool":           {params: []Type{typeDynamic}, ret: typeBool},
	"is_nil":            {params: []Type{typeDynamic}, ret: typeBool},
	"is_atom":           {params: []Type{typeDynamic}, ret: typeBool},
	"is_string":         {params: []Type{typeDynamic}, ret: typeBool},
	"is_list":           {params: []Type{typeDynamic}, ret: typeBool},
	"is_tuple":          {params: []Type{typeDynamic}, ret: typeBool},
	"is_map":             {params: []Type{typeDynamic}, ret: typeBool},
	"is_result":          {params: []Type{typeDynamic}, ret: typeBool},
	"is_closure":         {params: []Type{typeDynamic}, ret: typeBool},
}

type builtinSignature struct {
	params   []Type
	variadic bool
	ret      Type
}
