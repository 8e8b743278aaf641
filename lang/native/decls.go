package native

// runtimeDeclarations is the fixed block of `declare` lines every emitted
// module carries up front, one per tn_runtime_* helper the generated code
// may call into. Grounded verbatim on
// original_source/src/llvm_backend/codegen.rs's
// lower_mir_subset_to_llvm_ir_impl declaration list, plus tn_runtime_not_in/
// tn_runtime_byte_size/tn_runtime_bit_size added for
// the binary/builtin operators Tonic's surface grammar exercises that the
// toy subset in that file's own doc comments omits.
var runtimeDeclarations = []string{
	"declare i64 @tn_runtime_error_no_matching_clause()",
	"declare i64 @tn_runtime_error_bad_match()",
	"declare i64 @tn_runtime_error_arity_mismatch()",
	"declare i64 @tn_runtime_make_ok(i64)",
	"declare i64 @tn_runtime_make_err(i64)",
	"declare i64 @tn_runtime_question(i64)",
	"declare i64 @tn_runtime_raise(i64)",
	"declare i64 @tn_runtime_try(i64)",
	"declare i64 @tn_runtime_for(i64)",
	"declare i64 @tn_runtime_make_closure(i64, i64, i64)",
	"declare i64 (i64, i64, ...) @tn_runtime_call_closure",
	"declare i64 @tn_runtime_const_atom(i64)",
	"declare i64 @tn_runtime_const_string(i64)",
	"declare i64 @tn_runtime_const_float(i64)",
	"declare i64 @tn_runtime_to_string(i64)",
	"declare i64 @tn_runtime_not(i64)",
	"declare i64 @tn_runtime_bang(i64)",
	"declare i64 @tn_runtime_load_binding(i64)",
	"declare i64 @tn_runtime_match_operator(i64, i64)",
	"declare i64 @tn_runtime_make_tuple(i64, i64)",
	"declare i64 (i64, ...) @tn_runtime_make_list",
	"declare i64 @tn_runtime_map_empty()",
	"declare i64 @tn_runtime_make_map(i64, i64)",
	"declare i64 @tn_runtime_map_put(i64, i64, i64)",
	"declare i64 @tn_runtime_map_update(i64, i64, i64)",
	"declare i64 @tn_runtime_map_access(i64, i64)",
	"declare i64 @tn_runtime_make_keyword(i64, i64)",
	"declare i64 @tn_runtime_keyword_append(i64, i64, i64)",
	"declare i64 (i64, ...) @tn_runtime_host_call",
	"declare i64 @tn_runtime_protocol_dispatch(i64)",
	"declare i64 @tn_runtime_guard_is_int(i64)",
	"declare i64 @tn_runtime_guard_is_bool(i64)",
	"declare i64 @tn_runtime_guard_is_nil(i64)",
	"declare i64 @tn_runtime_guard_is_atom(i64)",
	"declare i64 @tn_runtime_guard_is_string(i64)",
	"declare i64 @tn_runtime_guard_is_list(i64)",
	"declare i64 @tn_runtime_guard_is_tuple(i64)",
	"declare i64 @tn_runtime_guard_is_map(i64)",
	"declare i64 @tn_runtime_guard_is_closure(i64)",
	"declare i64 @tn_runtime_guard_is_result(i64)",
	"declare i64 @tn_runtime_concat(i64, i64)",
	"declare i64 @tn_runtime_in(i64, i64)",
	"declare i64 @tn_runtime_not_in(i64, i64)",
	"declare i64 @tn_runtime_list_concat(i64, i64)",
	"declare i64 @tn_runtime_list_subtract(i64, i64)",
	"declare i64 @tn_runtime_range(i64, i64)",
	"declare i64 @tn_runtime_byte_size(i64)",
	"declare i64 @tn_runtime_bit_size(i64)",
	"declare i1 @tn_runtime_pattern_matches(i64, i64)",
}

// guardBuiltinHelper returns the tn_runtime_guard_* declaration name for one
// of runtime's single-argument is_* predicates, and whether the builtin is
// one of them. Grounded on original_source's guard_builtins::llvm_helper_name,
// adapted to the names lang/runtime.guardPredicates actually registers
// (is_int/is_string/... rather than the original's is_integer/is_binary/...).
func guardBuiltinHelper(name string) (string, bool) {
	switch name {
	case "is_int", "is_bool", "is_nil", "is_atom", "is_string",
		"is_list", "is_tuple", "is_map", "is_closure", "is_result":
		return "tn_runtime_guard_" + name, true
	default:
		return "", false
	}
}
