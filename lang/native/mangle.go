package native

import (
	"fmt"
	"strings"
)

// LLVMCompatibilityVersion is recorded in the emitted module's header
// comment and in every native artifact manifest's llvm_compatibility field
// (lang/artifact), matching original_source/src/llvm_backend/mod.rs's
// LLVM_COMPATIBILITY_VERSION.
const LLVMCompatibilityVersion = "18.1.8"

// mangleFunctionName implements spec.md §4.8's name mangling scheme:
// tn_<sanitized_name>__arity<N>, where sanitized_name replaces every
// non-ASCII-alphanumeric byte with '_'.
func mangleFunctionName(name string, arity int) string {
	return fmt.Sprintf("tn_%s__arity%d", sanitizeIdentifier(name), arity)
}

func sanitizeIdentifier(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// valueRegister names the SSA register an IR ValueID lowers to.
func valueRegister(id uint32) string {
	return fmt.Sprintf("%%v%d", id)
}
