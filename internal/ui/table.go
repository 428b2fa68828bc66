package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is a simple left-aligned column layout.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// Render returns the table as a string with a trailing newline.
func (t *Table) Render() string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := range widths {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	var b strings.Builder
	b.WriteString(t.line(t.Headers, widths, TableHeaderStyle))
	for _, row := range t.Rows {
		b.WriteString(t.line(row, widths, lipgloss.NewStyle()))
	}
	return b.String()
}

func (t *Table) line(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", w-lipgloss.Width(cell))
		parts[i] = Render(style, cell) + pad
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ") + "\n"
}
