package main

import (
	"fmt"
	"os"

	"github.com/Yass5002/Lyrebird/internal/cmd"
)

// Populated by the linker at release time.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lyrebird:", err)
		os.Exit(1)
	}
}
