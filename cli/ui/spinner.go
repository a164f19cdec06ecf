package ui

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/menu-planning/go-menuplan/cli/styles"
)

// SpinnerModel shows a spinner next to a message until SpinnerDoneMsg arrives.
type SpinnerModel struct {
	spinner  spinner.Model
	message  string
	quitting bool
	done     bool
	result   string
	err      error
}

// SpinnerDoneMsg ends the spinner with a result line.
type SpinnerDoneMsg struct {
	Result string
	Err    error
}

// NewSpinner creates a dot spinner with the given message.
func NewSpinner(message string) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return SpinnerModel{spinner: s, message: message}
}

func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case SpinnerDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SpinnerModel) View() string {
	if m.done {
		if m.err != nil {
			return styles.FormatError(m.err.Error()) + "\n"
		}
		return styles.FormatSuccess(m.result) + "\n"
	}
	if m.quitting {
		return styles.FormatWarning("Cancelled") + "\n"
	}
	return m.spinner.View() + " " + styles.Normal.Render(m.message) + "\n"
}

// RunWithSpinner runs work while a spinner renders to out and returns
// work's error. Keyboard input is not read.
func RunWithSpinner(out io.Writer, message string, work func() error) error {
	p := tea.NewProgram(NewSpinner(message), tea.WithInput(nil), tea.WithOutput(out))

	result := make(chan error, 1)
	go func() {
		err := work()
		result <- err
		p.Send(SpinnerDoneMsg{Result: message, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return <-result
}
