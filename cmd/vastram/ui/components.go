package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// LOADING SPINNER
// =============================================================================

// Spinner is a spinner with a message, e.g. "Loading services...".
type Spinner struct {
	Model   spinner.Model
	Message string
}

// NewSpinner creates a spinner styled for s.
func NewSpinner(s Styles, message string) Spinner {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner))
	if message == "" {
		message = "Loading..."
	}
	return Spinner{Model: sp, Message: message}
}

// Tick starts the spinner.
func (sp Spinner) Tick() tea.Cmd { return sp.Model.Tick }

// Update forwards spinner ticks.
func (sp Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	sp.Model, cmd = sp.Model.Update(msg)
	return sp, cmd
}

// View renders the spinner and message.
func (sp Spinner) View(s Styles) string {
	return sp.Model.View() + " " + s.Muted.Render(sp.Message)
}

// =============================================================================
// ERROR MESSAGE
// =============================================================================

// ErrorMessage renders msg with an optional retry hint. Empty msg renders
// nothing.
func ErrorMessage(s Styles, msg string, retryKey string) string {
	if msg == "" {
		return ""
	}
	out := s.Error.Render("✗ " + msg)
	if retryKey != "" {
		out += "  " + s.Muted.Render("["+retryKey+"] Try Again")
	}
	return out
}

// Flash renders a one-line success or error notice.
func Flash(s Styles, msg string, isErr bool) string {
	if msg == "" {
		return ""
	}
	if isErr {
		return s.Error.Render("✗ " + msg)
	}
	return s.Success.Render("✓ " + msg)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// RenderMarkdown renders md with glamour in the theme's standard style,
// falling back to the raw text if rendering fails.
func RenderMarkdown(s Styles, md string, width int) string {
	if width <= 0 {
		width = 80
	}
	style := "light"
	if s.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
