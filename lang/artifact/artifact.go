// Package artifact implements spec.md §3.7/§4.11: the native artifact
// manifest persisted alongside a compiled executable, grounded directly on
// original_source/src/native_artifact.rs. Loading a manifest validates
// schema version, backend, emit mode, host target triple, tonic version,
// LLVM compatibility and the recomputed cache key; any mismatch is a hard
// refusal with a deterministic message naming the expected and found
// values.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/mikeyobrien/tonic/internal/buildinfo"
	"github.com/mikeyobrien/tonic/internal/fnv1a"
	"github.com/mikeyobrien/tonic/lang/cache"
	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/native"
)

// SchemaVersion is the current manifest schema (spec.md §4.11: "validates
// schema ... Mismatches are refused").
const SchemaVersion = 1

const (
	BackendLLVM      = "llvm"
	EmitExecutable   = "executable"
	manifestSuffix   = ".tnx.json"
)

// Files names the three artifacts a manifest points to, all relative to the
// manifest's own directory (spec.md §6.4: `<name>.tnx.json`, `<name>.ll`,
// `<name>.tir.json`, plus the host executable itself).
type Files struct {
	IR     string `json:"ir"`
	LLVMIR string `json:"llvm_ir"`
	Object string `json:"object"`
}

// Manifest is the `.tnx.json` sidecar written next to a compiled executable
// (spec.md §3.7, §4.11).
type Manifest struct {
	SchemaVersion     int    `json:"schema_version"`
	Backend           string `json:"backend"`
	Emit              string `json:"emit"`
	TargetTriple      string `json:"target_triple"`
	TonicVersion      string `json:"tonic_version"`
	LLVMCompatibility string `json:"llvm_compatibility"`
	SourceHash        string `json:"source_hash"`
	CacheKey          string `json:"cache_key"`
	Artifacts         Files  `json:"artifacts"`
}

// Error is the artifact package's error type, shaped like the rest of the
// pipeline's per-package Error (lang/ir.Error, lang/mir.Error, lang/native.Error).
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsNativeArtifactPath reports whether path names a native artifact
// manifest by its conventional suffix.
func IsNativeArtifactPath(path string) bool {
	return strings.HasSuffix(path, manifestSuffix)
}

// HostTargetTriple renders the running process's OS-ARCH pair. A thin
// re-export of cache.HostTargetTriple so lang/artifact does not duplicate
// the goruntime.GOOS/GOARCH formatting original_source computes twice
// (once in cache.rs, once in native_artifact.rs) in two places either.
func HostTargetTriple() string { return cache.HostTargetTriple() }

// SourceHash computes the manifest's source_hash field.
func SourceHash(source string) string { return fnv1a.HexString(source) }

// joinKeyParts mirrors cache.FromParts's length-prefixed join, kept as its
// own function here (rather than reusing cache.CacheKey) because the
// native artifact cache key has a different, fixed arity of parts
// (spec.md §3.7: "source_hash | backend | target | emit | tonic_version |
// llvm_compatibility") than the run cache key's five-part shape.
func joinKeyParts(parts []string) string {
	joined := ""
	for i, part := range parts {
		if i > 0 {
			joined += "|"
		}
		joined += fmt.Sprintf("%d:%s", len(part), part)
	}
	return joined
}

// CacheKey computes the native artifact cache key from its six
// dimensions (spec.md §3.7).
func CacheKey(sourceHash, backend, targetTriple, emit string) string {
	return joinKeyParts([]string{
		sourceHash,
		backend,
		targetTriple,
		emit,
		buildinfo.Version,
		native.LLVMCompatibilityVersion,
	})
}

// BuildExecutableManifest assembles the manifest for a freshly-compiled
// executable. manifestPath is where the manifest itself will be written;
// the artifact paths are recorded relative to its directory.
func BuildExecutableManifest(source, manifestPath, llvmIRPath, objectPath, irPath string) Manifest {
	sourceHash := SourceHash(source)
	targetTriple := HostTargetTriple()
	key := CacheKey(sourceHash, BackendLLVM, targetTriple, EmitExecutable)

	return Manifest{
		SchemaVersion:     SchemaVersion,
		Backend:           BackendLLVM,
		Emit:              EmitExecutable,
		TargetTriple:      targetTriple,
		TonicVersion:      buildinfo.Version,
		LLVMCompatibility: native.LLVMCompatibilityVersion,
		SourceHash:        sourceHash,
		CacheKey:          key,
		Artifacts: Files{
			IR:     relativeArtifactPath(manifestPath, irPath),
			LLVMIR: relativeArtifactPath(manifestPath, llvmIRPath),
			Object: relativeArtifactPath(manifestPath, objectPath),
		},
	}
}

// WriteManifest serializes manifest and writes it atomically via
// cache.WriteAtomic, sharing the same write-then-rename scheme the IR cache
// uses (spec.md §4.10's atomicity guarantee applies to both artifact
// kinds).
func WriteManifest(path string, manifest Manifest) error {
	serialized, err := json.Marshal(manifest)
	if err != nil {
		return fail("failed to serialize native artifact manifest: %s", err)
	}
	if err := cache.WriteAtomic(path, serialized); err != nil {
		return fail("failed to write native artifact manifest %s: %s", path, err)
	}
	return nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fail("failed to read native artifact manifest %s: %s", path, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return Manifest{}, fail("failed to parse native artifact manifest %s: %s", path, err)
	}
	return manifest, nil
}

// ValidateForHost checks manifest against the running host and the
// compiler that is about to use it, refusing on any mismatch with a
// message naming both the expected and found value (spec.md §4.11).
func ValidateForHost(manifest Manifest) error {
	if manifest.SchemaVersion != SchemaVersion {
		return fail("native artifact schema mismatch: expected %d, found %d", SchemaVersion, manifest.SchemaVersion)
	}
	if manifest.Backend != BackendLLVM {
		return fail("native artifact backend mismatch: expected %s, found %s", BackendLLVM, manifest.Backend)
	}
	if manifest.Emit != EmitExecutable {
		return fail("native artifact emit mismatch: expected %s, found %s", EmitExecutable, manifest.Emit)
	}

	hostTarget := HostTargetTriple()
	if manifest.TargetTriple != hostTarget {
		return fail("native artifact target mismatch: artifact=%s host=%s", manifest.TargetTriple, hostTarget)
	}
	if manifest.TonicVersion != buildinfo.Version {
		return fail("native artifact tonic version mismatch: artifact=%s host=%s", manifest.TonicVersion, buildinfo.Version)
	}
	if manifest.LLVMCompatibility != native.LLVMCompatibilityVersion {
		return fail("native artifact llvm compatibility mismatch: artifact=%s host=%s", manifest.LLVMCompatibility, native.LLVMCompatibilityVersion)
	}

	expectedKey := CacheKey(manifest.SourceHash, manifest.Backend, manifest.TargetTriple, manifest.Emit)
	if manifest.CacheKey != expectedKey {
		return fail("native artifact cache key mismatch: expected %s, found %s", expectedKey, manifest.CacheKey)
	}

	return nil
}

// LoadIRFromManifest reads and deserializes the IR sidecar a manifest
// points to, resolving its path relative to manifestPath's directory
// (spec.md §6.4's `<name>.tir.json`).
func LoadIRFromManifest(manifestPath string, manifest Manifest) (*ir.Program, error) {
	irPath := resolveArtifactPath(manifestPath, manifest.Artifacts.IR)
	serialized, err := os.ReadFile(irPath)
	if err != nil {
		return nil, fail("failed to read native artifact ir %s: %s", irPath, err)
	}

	var program ir.Program
	if err := json.Unmarshal(serialized, &program); err != nil {
		return nil, fail("failed to parse native artifact ir %s: %s", irPath, err)
	}
	return &program, nil
}

func relativeArtifactPath(manifestPath, artifactPath string) string {
	parent := filepath.Dir(manifestPath)
	rel, err := filepath.Rel(parent, artifactPath)
	if err != nil {
		return artifactPath
	}
	return rel
}

func resolveArtifactPath(manifestPath, relOrAbsArtifact string) string {
	if filepath.IsAbs(relOrAbsArtifact) {
		return relOrAbsArtifact
	}
	return filepath.Join(filepath.Dir(manifestPath), relOrAbsArtifact)
}
