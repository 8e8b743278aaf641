// Package cache implements spec.md §3.7/§4.10: a content-addressed IR
// compile cache under `.tonic/cache/`, grounded directly on
// original_source/src/cache.rs. A CacheKey is built from five
// length-prefixed parts (entry hash, dependency hash, runtime version,
// target triple, flags) and used to name a `.ir.json` artifact; misses
// compute and atomically write the artifact, hits deserialize it, and a
// corrupt artifact is treated as a miss after deleting the bad file
// (self-healing, matching the original's load_cached_ir).
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mikeyobrien/tonic/internal/buildinfo"
	"github.com/mikeyobrien/tonic/internal/fnv1a"
	"github.com/mikeyobrien/tonic/lang/ir"
)

const (
	directoryName    = ".tonic/cache"
	artifactExtension = "ir.json"
	flags             = "none"
)

// Error is the cache package's error type, shaped like lang/ir.Error and
// lang/mir.Error for consistency across the pipeline.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// CacheKey is the opaque, stable string a compile run's inputs reduce to
// (spec.md §3.7). Two runs with identical source, lockfile content,
// compiler version, target triple and flags produce equal keys.
type CacheKey struct {
	value string
}

// String returns the key's wire form, also used as the cache artifact's
// file-name stem.
func (k CacheKey) String() string { return k.value }

// FromParts builds a CacheKey from its five dimensions, each length-prefixed
// ("<len>:<part>") and joined with "|" so no part can be confused for a
// delimiter inside another (original_source/src/cache.rs's CacheKey::from_parts).
func FromParts(entryHash, dependencyHash, runtimeVersion, targetTriple, flagSet string) CacheKey {
	parts := []string{entryHash, dependencyHash, runtimeVersion, targetTriple, flagSet}
	value := ""
	for i, part := range parts {
		if i > 0 {
			value += "|"
		}
		value += fmt.Sprintf("%d:%s", len(part), part)
	}
	return CacheKey{value: value}
}

// HostTargetTriple renders the running process's OS-ARCH pair, the same
// shape original_source's `host_target_triple`/inline `target` computation
// uses (spec.md §3.7's target_triple = OS-ARCH).
func HostTargetTriple() string {
	return fmt.Sprintf("%s-%s", goruntime.GOOS, goruntime.GOARCH)
}

// BuildRunCacheKey computes the cache key for an interpreted/compiled run of
// source under projectRoot (spec.md §3.7). A missing or unreadable
// tonic.yaml lockfile degrades to the documented "no dependencies" empty
// hash rather than failing the build, matching
// original_source/src/cache.rs's build_run_cache_key.
func BuildRunCacheKey(source, projectRoot string) (CacheKey, error) {
	entryHash := fnv1a.HexString(source)

	dependencyHash := fnv1a.HexString("")
	if lockfile, err := LoadLockfile(projectRoot); err == nil && lockfile != nil {
		encoded, err := json.Marshal(lockfile)
		if err == nil {
			dependencyHash = fnv1a.HexString(string(encoded))
		}
	}

	return FromParts(entryHash, dependencyHash, buildinfo.Version, HostTargetTriple(), flags), nil
}

// ArtifactPath returns the on-disk path of the IR artifact for key, rooted
// at cacheRoot (pass "" to use the current working directory's
// `.tonic/cache`, matching the original's std::env::current_dir() default).
func ArtifactPath(cacheRoot string, key CacheKey) (string, error) {
	root := cacheRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fail("failed to resolve current directory for cache: %s", err)
		}
		root = filepath.Join(cwd, directoryName)
	}
	return filepath.Join(root, fmt.Sprintf("%s.%s", key.String(), artifactExtension)), nil
}

// Load reads and deserializes the cached IR program for key, if any. A
// missing file is a plain miss (nil, nil); a file that fails to parse is
// deleted and also reported as a miss, self-healing the cache the way
// original_source/src/cache.rs's load_cached_ir does.
func Load(cacheRoot string, key CacheKey) (*ir.Program, error) {
	path, err := ArtifactPath(cacheRoot, key)
	if err != nil {
		return nil, err
	}

	serialized, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}

	var program ir.Program
	if err := json.Unmarshal(serialized, &program); err != nil {
		_ = os.Remove(path)
		return nil, nil
	}
	return &program, nil
}

// Store serializes program and writes it atomically under key's artifact
// path, creating parent directories as needed.
func Store(cacheRoot string, key CacheKey, program *ir.Program) error {
	path, err := ArtifactPath(cacheRoot, key)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(program)
	if err != nil {
		return fail("failed to serialize cache artifact: %s", err)
	}

	if err := WriteAtomic(path, payload); err != nil {
		return fail("failed to write cache artifact %s: %s", path, err)
	}
	return nil
}

// WriteAtomic writes content to targetPath by writing a uniquely-suffixed
// temporary file in the same directory, then renaming it into place, so
// concurrent writers and crashed writes never leave a partially-written
// file visible at targetPath (spec.md §4.10, §5). The original Rust
// implementation disambiguates the temp name with a nanosecond timestamp
// plus pid; this uses a UUIDv4 instead (SPEC_FULL.md §4.16), which is
// simpler to generate correctly in Go and just as collision-free across
// concurrent writers without reading the clock.
func WriteAtomic(targetPath string, content []byte) error {
	if info, err := os.Stat(targetPath); err == nil && info.IsDir() {
		_ = os.RemoveAll(targetPath)
	}

	parent := filepath.Dir(targetPath)
	if _, err := os.Stat(parent); os.IsNotExist(err) {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
	}

	tempPath := filepath.Join(parent, fmt.Sprintf("%s.tmp.%s", filepath.Base(targetPath), uuid.NewString()))

	if err := os.WriteFile(tempPath, content, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

const debugCacheEnvVar = "TONIC_DEBUG_CACHE"

// ShouldTraceStatus reports whether TONIC_DEBUG_CACHE tracing is enabled
// (spec.md's should_trace_cache_status; consulted by internal/driver to set
// its slog level per SPEC_FULL.md §4.13).
func ShouldTraceStatus() bool {
	_, ok := os.LookupEnv(debugCacheEnvVar)
	return ok
}

// Lockfile is the subset of tonic.yaml consulted for the cache key's
// dependency_hash component (SPEC_FULL.md §4.16): a flat name-to-version
// map. Absent in most projects, in which case BuildRunCacheKey falls back
// to hashing the empty string, matching
// original_source/src/cache.rs's Lockfile::load miss handling.
type Lockfile struct {
	Dependencies map[string]string `yaml:"dependencies" json:"dependencies"`
}

const lockfileName = "tonic.yaml"

// LoadLockfile reads tonic.yaml from projectRoot. A missing file returns
// (nil, nil); any other read or parse error is returned as-is so callers
// that care can distinguish "absent" from "broken" (BuildRunCacheKey itself
// treats both the same way, per the original's behavior).
func LoadLockfile(projectRoot string) (*Lockfile, error) {
	path := filepath.Join(projectRoot, lockfileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var lockfile Lockfile
	if err := yaml.Unmarshal(raw, &lockfile); err != nil {
		return nil, fail("invalid tonic.yaml: %s", err)
	}
	return &lockfile, nil
}
