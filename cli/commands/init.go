package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/cli/config"
)

// initAnswers holds what the config init form asks for, as typed.
type initAnswers struct {
	CommandTimeout string
	EventTimeout   string
	LoggingMode    string
	Destination    string
}

func newInitAnswers(cfg *config.Config) *initAnswers {
	return &initAnswers{
		CommandTimeout: strconv.FormatFloat(cfg.Bus.CommandTimeoutSeconds, 'f', -1, 64),
		EventTimeout:   strconv.FormatFloat(cfg.Bus.EventTimeoutSeconds, 'f', -1, 64),
		LoggingMode:    cfg.Logging.Mode,
		Destination:    cfg.Notify.Destination,
	}
}

// apply copies the answers into cfg.
func (a *initAnswers) apply(cfg *config.Config) error {
	command, err := parseSeconds(a.CommandTimeout)
	if err != nil {
		return fmt.Errorf("command timeout: %w", err)
	}
	event, err := parseSeconds(a.EventTimeout)
	if err != nil {
		return fmt.Errorf("event timeout: %w", err)
	}
	if err := validateDestination(a.Destination); err != nil {
		return err
	}
	cfg.Bus.CommandTimeoutSeconds = command
	cfg.Bus.EventTimeoutSeconds = event
	if a.LoggingMode != "" {
		cfg.Logging.Mode = a.LoggingMode
	}
	cfg.Notify.Destination = strings.TrimSpace(a.Destination)
	return nil
}

func newInitForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Command timeout (seconds)").
				Description("Deadline for one command handler, 0 disables it").
				Value(&a.CommandTimeout).
				Validate(validateSeconds),

			huh.NewInput().
				Title("Event timeout (seconds)").
				Description("Deadline shared by the handlers of one event, 0 disables it").
				Value(&a.EventTimeout).
				Validate(validateSeconds),
		).Title("Message Bus"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Logging Mode").
				Options(
					huh.NewOption("Development (console)", "development"),
					huh.NewOption("Production (JSON)", "production"),
				).
				Value(&a.LoggingMode),
		).Title("Logging"),

		huh.NewGroup(
			huh.NewInput().
				Title("Notification Destination").
				Description("Where MenuDeleted is sent, e.g. kafka:menus. Leave empty to disable").
				Value(&a.Destination).
				Validate(validateDestination),
		).Title("Notifications"),
	).WithTheme(huh.ThemeDracula())
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%q must not be negative", s)
	}
	return v, nil
}

func validateSeconds(s string) error {
	_, err := parseSeconds(s)
	return err
}

func validateDestination(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	switch menuplan.DestinationPrefix(s) {
	case "kafka", "sns", "webhook":
		return nil
	}
	return fmt.Errorf("destination must start with kafka:, sns: or webhook:")
}
