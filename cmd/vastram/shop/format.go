package shop

import (
	"strings"

	"vastram/cmd/vastram/ui"

	"github.com/dustin/go-humanize"
)

func (m *Model) price(amount int64) string {
	sym := m.sf.Config.Checkout.CurrencySymbol
	if sym == "" {
		sym = "₹"
	}
	return sym + humanize.Comma(amount)
}

// summaryRow renders "label ....... value" padded to width.
func summaryRow(s ui.Styles, label, value string, width int, bold bool) string {
	pad := width - len([]rune(label)) - len([]rune(value))
	if pad < 1 {
		pad = 1
	}
	line := label + strings.Repeat(" ", pad) + value
	if bold {
		return s.Bold.Render(line)
	}
	return s.Body.Render(line)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// clamp keeps a selection index inside a list of n rows.
func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
