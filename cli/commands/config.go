package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/menu-planning/go-menuplan/cli/config"
	"github.com/menu-planning/go-menuplan/cli/styles"
	"github.com/menu-planning/go-menuplan/cli/ui"
)

const configFileHint = config.ConfigFileName

// loadConfig reads --config when given, otherwise searches upward from the
// working directory, and falls back to defaults when nothing is found.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return cfg, path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	dir, cfg, err := config.FindConfig(cwd)
	if errors.Is(err, os.ErrNotExist) {
		return config.DefaultConfig(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Join(dir, config.ConfigFileName), nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect menuplan.yaml",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		dir            string
		force          bool
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.ConfigFileName,
		Long: `Write a ` + config.ConfigFileName + ` configuration file.

Without --non-interactive a form asks for the bus timeouts, the logging
mode and the notification destination; defaults fill everything else.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if config.Exists(dir) && !force {
				return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.ConfigFileName, dir)
			}

			cfg := config.DefaultConfig()
			if !nonInteractive {
				answers := newInitAnswers(cfg)
				form := newInitForm(answers).
					WithInput(cmd.InOrStdin()).
					WithOutput(out)
				if err := form.Run(); err != nil {
					return err
				}
				if err := answers.apply(cfg); err != nil {
					return err
				}
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := os.WriteFile(path, []byte(config.GenerateYAML(cfg)), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Fprintln(out, styles.FormatSuccess("Created "+path))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the config file to")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Write defaults without prompting")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, source, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if asYAML {
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			if source == "" {
				source = "defaults"
			}
			fmt.Fprintln(out, styles.FormatKeyValue("Source", source))

			table := ui.NewTable("Setting", "Value")
			table.AddRow("bus.command_timeout_seconds", strconv.FormatFloat(cfg.Bus.CommandTimeoutSeconds, 'f', -1, 64))
			table.AddRow("bus.event_timeout_seconds", strconv.FormatFloat(cfg.Bus.EventTimeoutSeconds, 'f', -1, 64))
			table.AddRow("logging.mode", cfg.Logging.Mode)
			table.AddRow("logging.level", cfg.Logging.Level)
			table.AddRow("metrics.enabled", strconv.FormatBool(cfg.Metrics.Enabled))
			table.AddRow("metrics.namespace", cfg.Metrics.Namespace)
			table.AddRow("tracing.enabled", strconv.FormatBool(cfg.Tracing.Enabled))
			table.AddRow("notify.destination", orNone(cfg.Notify.Destination))
			table.AddRow("notify.format", cfg.Notify.Format)
			table.AddRow("notify.kafka.brokers", orNone(strings.Join(cfg.Notify.Kafka.Brokers, ",")))
			fmt.Fprintln(out, table.Render())

			if problems := cfg.Validate(); len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(out, styles.FormatWarning(p))
				}
				return fmt.Errorf("configuration has %d problem(s)", len(problems))
			}
			fmt.Fprintln(out, styles.FormatSuccess("Configuration is valid"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the configuration as YAML")
	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.SimpleBanner())

			table := ui.NewTable("", "")
			table.AddRow("Version", version)
			table.AddRow("Commit", commit)
			table.AddRow("Built", date)
			table.AddRow("Go", runtime.Version())
			table.AddRow("OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))

			fmt.Fprintln(out, table.Render())
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
