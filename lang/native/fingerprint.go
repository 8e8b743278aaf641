package native

import (
	"encoding/json"
	"sync"

	"github.com/dolthub/swiss"

	"github.com/mikeyobrien/tonic/internal/fnv1a"
	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/ir"
)

// hashBytes computes the same FNV-1a 64-bit hash original_source's
// hash_bytes_i64 does, reinterpreted as a signed i64 the way the LLVM IR's
// i64 constants need it (spec.md §4.8.1/§4.8.2: "an FNV-1a hash of a
// deterministic encoding").
func hashBytes(data []byte) int64 {
	return int64(fnv1a.Sum64(data))
}

func hashText(s string) int64 { return hashBytes([]byte(s)) }

func hashJSON(v any) (int64, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return 0, fail("llvm backend failed to serialize hash input: %s", err)
	}
	return hashBytes(encoded), nil
}

func hashPattern(pattern ast.Pattern) (int64, error) { return hashJSON(pattern) }
func hashOp(op ir.Op) (int64, error)                 { return hashJSON(op) }

// closureDescriptor is the (params, ops, captures) triple spec.md §4.8.2
// hashes to identify a closure at codegen time.
type closureDescriptor struct {
	Params   []string `json:"params"`
	Ops      []ir.Op  `json:"ops"`
	Captures []string `json:"captures"`
}

func hashClosureDescriptor(params []string, ops []ir.Op, captures []string) (int64, error) {
	return hashJSON(closureDescriptor{Params: params, Ops: ops, Captures: captures})
}

// FingerprintRegistry is the append-only hash to descriptor table backing
// both the pattern-fingerprint registry (§4.8.1) and the closure-descriptor
// registry (§4.8.2): every pattern or closure the backend lowers is recorded
// here under its FNV-1a hash so a later collision can be detected, and so
// lang/artifact's manifest can embed the descriptor set a compiled module
// actually references. Backed by github.com/dolthub/swiss per SPEC_FULL.md
// §4.16, matching lang/runtime.HostRegistry's own swiss-table-under-mutex
// shape for a process-wide string/int-keyed lookup table.
type FingerprintRegistry struct {
	mu      sync.Mutex
	entries *swiss.Map[int64, string]
}

// NewFingerprintRegistry returns an empty registry.
func NewFingerprintRegistry() *FingerprintRegistry {
	return &FingerprintRegistry{entries: swiss.NewMap[int64, string](16)}
}

// Record stores encoding under hash, verifying that a prior entry under the
// same hash (if any) has the identical encoding. A mismatch is a genuine
// fingerprint collision, which the backend treats as a compilation error
// rather than silently aliasing two distinct patterns/closures.
func (r *FingerprintRegistry) Record(hash int64, encoding string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries.Get(hash); ok {
		if existing != encoding {
			return fail("llvm backend fingerprint collision at hash %d", hash)
		}
		return nil
	}
	r.entries.Put(hash, encoding)
	return nil
}

// Len reports how many distinct fingerprints have been recorded.
func (r *FingerprintRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Count()
}
