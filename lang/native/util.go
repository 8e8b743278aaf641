package native

import (
	"encoding/json"

	"golang.org/x/exp/slices"
)

func jsonMarshalString(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", fail("llvm backend failed to serialize hash input: %s", err)
	}
	return string(encoded), nil
}

// sortStrings gives captureSet's map iteration (closureCaptureNames) a
// stable order: the rendered LLVM IR, and therefore its fingerprint hash,
// must not depend on Go's randomized map iteration order.
func sortStrings(values []string) { slices.Sort(values) }
