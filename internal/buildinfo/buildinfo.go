// Package buildinfo holds the one compiler version string that
// lang/cache's cache key and lang/artifact's manifest both embed
// (original_source/src/cache.rs and src/native_artifact.rs each read
// `env!("CARGO_PKG_VERSION")` for this; Go has no build-time equivalent
// without a linker flag, so it is a plain constant here).
package buildinfo

// Version is the tonic_version field of every cache key and native
// artifact manifest.
const Version = "0.1.0"
