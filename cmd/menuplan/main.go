// menuplan is the command-line interface for the menu planning write model.
//
// Usage:
//
//	menuplan <command> [flags]
//
// Commands:
//
//	demo         Run the meal/menu scenario against an in-memory store
//	config init  Write a default menuplan.yaml
//	config show  Show the effective configuration
//	version      Show version information
//
// Examples:
//
//	# Write a config, then run the scenario with it
//	menuplan config init
//	menuplan demo
//
//	# Use a config file elsewhere
//	menuplan demo --config ./deploy/menuplan.yaml
package main

import (
	"os"

	"github.com/menu-planning/go-menuplan/cli/commands"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.BuildDate = buildDate

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
