// Package commands provides the menuplan CLI commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menu-planning/go-menuplan/cli/styles"
	"github.com/menu-planning/go-menuplan/cli/ui"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command for the menuplan CLI
func NewRootCommand() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "menuplan",
		Short: "Menu planning write model",
		Long: ui.SimpleBanner() + `

menuplan runs meal, menu and client commands through an in-memory message
bus and shows the events that keep them consistent.

` + styles.Title.Render("Quick Start:") + `

  ` + styles.Code.Render("menuplan config init") + `   Write a menuplan.yaml
  ` + styles.Code.Render("menuplan demo") + `          Run the meal/menu scenario
  ` + styles.Code.Render("menuplan config show") + `   Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				styles.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default: search for "+configFileHint+")")

	rootCmd.AddCommand(NewDemoCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand(Version, Commit, BuildDate))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), styles.FormatError(err.Error()))
		return err
	}

	return nil
}
