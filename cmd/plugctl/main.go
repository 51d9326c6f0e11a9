// Package main is the entry point for the plugctl CLI.
//
// This binary converges Docker Engine plugins to a declared state. It
// delegates all functionality to the internal/cli package, which defines
// cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// at release time. During development, they
// default to "dev", "none", and "unknown" respectively.
package main

import (
	"github.com/mmr-tortoise/plugctl/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time
// via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
