package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SimpleTable renders static rows with a header, a divider and an optional
// selection marker. Used for the service list, the cart and order history.
type SimpleTable struct {
	Title    string
	Headers  []string
	Rows     [][]string
	Selected int // -1 for no selection
	right    map[int]bool
}

// NewSimpleTable creates a new SimpleTable with the given title and headers.
func NewSimpleTable(title string, headers []string) *SimpleTable {
	return &SimpleTable{
		Title:    title,
		Headers:  headers,
		Rows:     make([][]string, 0),
		Selected: -1,
		right:    make(map[int]bool),
	}
}

// AddRow adds a row to the table.
func (t *SimpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// RightAlign right-aligns column col (prices, quantities).
func (t *SimpleTable) RightAlign(col int) {
	t.right[col] = true
}

// View renders the table using the provided styles.
func (t *SimpleTable) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	// lipgloss Width includes padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Bold.Copy().Padding(0, 1)
	rowStyle := styles.Body.Copy().Padding(0, 1)
	selStyle := styles.NavActive.Copy()
	marker := styles.NavHighlight.Render("▸")

	cell := func(st lipgloss.Style, i int, s string) string {
		st = st.Width(colWidths[i])
		if t.right[i] {
			st = st.Align(lipgloss.Right)
		}
		return st.Render(s)
	}

	sb.WriteString("  ")
	for i, h := range t.Headers {
		sb.WriteString(cell(headerStyle, i, h))
	}
	sb.WriteString("\n")

	totalWidth := 0
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString("  " + styles.RenderDivider(totalWidth) + "\n")

	for r, row := range t.Rows {
		st := rowStyle
		if r == t.Selected {
			st = selStyle
			sb.WriteString(marker + " ")
		} else {
			sb.WriteString("  ")
		}
		for i, c := range row {
			if i < len(colWidths) {
				sb.WriteString(cell(st, i, c))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
