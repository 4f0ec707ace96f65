// Package config captures host configuration for the sbpak tool, the way
// the teacher's internal/env package captures DISTRIROOT: read once from
// the environment, with a documented fallback.
package config

import "os"

// TempDirOverride is the directory Archive.Save should create its sibling
// temp file in when non-empty, overriding the archive's own directory.
// Set via the SBPAK_TMPDIR environment variable. Empty means "no
// override" — Save defaults to the archive's own directory, which is what
// spec.md's "maximize rename atomicity" guidance calls for.
var TempDirOverride = findTempDirOverride()

func findTempDirOverride() string {
	return os.Getenv("SBPAK_TMPDIR")
}
