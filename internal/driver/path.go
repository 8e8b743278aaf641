package driver

import "path/filepath"

// resolveSiblingPath resolves relOrAbs against the directory containing
// anchorPath, mirroring lang/artifact's own (unexported)
// resolveArtifactPath for manifest-relative artifact paths.
func resolveSiblingPath(anchorPath, relOrAbs string) string {
	if filepath.IsAbs(relOrAbs) {
		return relOrAbs
	}
	return filepath.Join(filepath.Dir(anchorPath), relOrAbs)
}
