// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

import (
	"fmt"
	"io"
)

// Populated by -ldflags at build time; defaults used for local dev.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Print writes the build data in a human readable form.
func Print(w io.Writer) {
	fmt.Fprintf(w, "kenala %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
