package ui

import (
	"strings"
	"testing"
)

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Dry Cleaning (2)", []string{"SERVICE", "PRICE"})
	table.AddRow("Suit (2-piece)", "₹499")
	table.AddRow("Blazer", "₹349")
	table.RightAlign(1)
	table.Selected = 1

	view := table.View(DefaultStyles())
	t.Logf("View:\n%q", view)

	if !strings.Contains(view, "Dry Cleaning (2)") {
		t.Error("View missing title")
	}
	if !strings.Contains(view, "Suit (2-piece)") || !strings.Contains(view, "₹349") {
		t.Error("View missing cell content")
	}
	if strings.Count(view, "▸") != 1 {
		t.Error("expected exactly one selection marker")
	}
	lines := strings.Split(strings.TrimRight(view, "\n"), "\n")
	if !strings.Contains(lines[len(lines)-1], "▸") {
		t.Error("selection marker should be on the last row")
	}
}

func TestSimpleTable_Empty(t *testing.T) {
	table := NewSimpleTable("Orders", []string{"ORDER"})
	if got := table.View(DefaultStyles()); got != "" {
		t.Errorf("empty table should render nothing, got %q", got)
	}
}
