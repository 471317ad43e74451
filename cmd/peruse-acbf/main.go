// Command peruse-acbf inspects the identified objects and internal references
// of ACBF comic books, serves them to a frontend, and lists book libraries.
package main

import (
	"fmt"
	"os"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd()
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
