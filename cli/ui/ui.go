// Package ui renders tables, banners and badges for the menuplan CLI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/menu-planning/go-menuplan/cli/styles"
)

// Table is a bordered table with an optional header row.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table with headers. Empty headers render no header row.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow adds a row. Missing cells are left blank; extra cells are dropped.
func (t *Table) AddRow(values ...string) {
	width := len(t.headers)
	if width == 0 {
		width = len(values)
	}
	row := make([]string, width)
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the formatted table string
func (t *Table) Render() string {
	if len(t.rows) == 0 && !t.hasHeaders() {
		return ""
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Primary).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Rows(t.rows...)
	if t.hasHeaders() {
		tbl = tbl.Headers(t.headers...)
	}
	return tbl.String()
}

func (t *Table) hasHeaders() bool {
	for _, h := range t.headers {
		if h != "" {
			return true
		}
	}
	return false
}

// StatusBadge returns a styled status badge
func StatusBadge(status string) string {
	badge := lipgloss.NewStyle().Padding(0, 1)
	switch strings.ToLower(status) {
	case "ok", "success", "committed", "delivered":
		return badge.Background(styles.Success).Foreground(lipgloss.Color("#000000")).Render(status)
	case "skipped", "pending", "disabled":
		return badge.Background(styles.Warning).Foreground(lipgloss.Color("#000000")).Render(status)
	case "error", "failed", "timeout":
		return badge.Background(styles.Error).Foreground(lipgloss.Color("#FFFFFF")).Render(status)
	default:
		return badge.Background(styles.Surface).Foreground(styles.Text).Render(status)
	}
}

// SimpleBanner returns the one-line CLI banner.
func SimpleBanner() string {
	return styles.IconMenu + " " + lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Primary).
		Render("menuplan") +
		" " +
		styles.Muted.Render("- menus, meals and the events between them")
}

// Divider returns a horizontal divider line
func Divider(width int) string {
	return styles.Muted.Render(strings.Repeat("─", width))
}

// ListItems formats a list of items with bullets
func ListItems(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("  " + styles.Title.Render(styles.IconDot) + " " + styles.Normal.Render(item) + "\n")
	}
	return sb.String()
}
