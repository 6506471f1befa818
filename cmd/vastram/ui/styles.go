// Package ui provides the visual styling and shared widgets for the Vastram
// interactive shop. Uses the Vastram blue/orange palette with light and dark
// variants.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names, matching config.ui.theme.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f9fafb") // gray-50
	LightForeground = lipgloss.Color("#111827") // gray-900
	LightPrimary    = lipgloss.Color("#2563eb") // blue-600
	LightAccent     = lipgloss.Color("#f97316") // orange-500
	LightSecondary  = lipgloss.Color("#dbeafe") // blue-100
	LightMuted      = lipgloss.Color("#6b7280") // gray-500
	LightBorder     = lipgloss.Color("#e5e7eb") // gray-200
	LightCard       = lipgloss.Color("#ffffff")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#111827") // gray-900
	DarkForeground = lipgloss.Color("#f3f4f6") // gray-100
	DarkPrimary    = lipgloss.Color("#60a5fa") // blue-400
	DarkAccent     = lipgloss.Color("#fb923c") // orange-400
	DarkSecondary  = lipgloss.Color("#1e3a8a") // blue-900
	DarkMuted      = lipgloss.Color("#9ca3af") // gray-400
	DarkBorder     = lipgloss.Color("#374151") // gray-700
	DarkCard       = lipgloss.Color("#1f2937") // gray-800

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#dc2626") // red-600
	Success     = lipgloss.Color("#16a34a") // green-600
	Warning     = lipgloss.Color("#ca8a04") // yellow-600
	Info        = lipgloss.Color("#2563eb") // blue-600
)

// Theme holds the current color scheme
type Theme struct {
	Name       string
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Name:       ThemeLight,
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Name:       ThemeDark,
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme picks light or dark from the terminal.
// COLORFGBG wins when set; otherwise lipgloss queries the terminal.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		// Format is usually "foreground;background"
		parts := strings.Split(colorTerm, ";")
		if bgIdx, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			// 0-6 and 8 (dark grey) are dark backgrounds
			if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
				return DarkTheme()
			}
			return LightTheme()
		}
	}

	if os.Getenv("VASTRAM_DARK_MODE") == "1" || lipgloss.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// ThemeFor resolves a theme name; auto and unknown names are detected.
func ThemeFor(name string) Theme {
	switch name {
	case ThemeLight:
		return LightTheme()
	case ThemeDark:
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// Toggle returns the opposite of t.
func (t Theme) Toggle() Theme {
	if t.IsDark {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	App     lipgloss.Style
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Card    lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Price    lipgloss.Style

	// Navigation
	NavItem      lipgloss.Style
	NavActive    lipgloss.Style
	NavHighlight lipgloss.Style

	// Forms
	Label        lipgloss.Style
	FocusedLabel lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	white := lipgloss.Color("#ffffff")
	return Styles{
		Theme: theme,

		// Layout styles
		App: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(white).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Card: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		// Text styles
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Price: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		// Navigation styles
		NavItem: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(0, 1),

		NavActive: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		NavHighlight: lipgloss.NewStyle().
			Foreground(theme.Accent),

		// Form styles
		Label: lipgloss.NewStyle().
			Foreground(theme.Muted),

		FocusedLabel: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Button: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		ButtonActive: lipgloss.NewStyle().
			Foreground(white).
			Background(theme.Accent).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent),

		// Status styles
		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		// Component styles
		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(white).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles with the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// tierColors follow the membership badge colors of the web storefront.
var tierColors = map[string][2]lipgloss.Color{
	"bronze":   {"#92400e", "#fde68a"},
	"silver":   {"#1f2937", "#e5e7eb"},
	"gold":     {"#854d0e", "#fef08a"},
	"platinum": {"#6b21a8", "#e9d5ff"},
}

// statusColors maps order statuses to light/dark foregrounds.
var statusColors = map[string][2]lipgloss.Color{
	"delivered":        {"#166534", "#bbf7d0"},
	"in-progress":      {"#1e40af", "#bfdbfe"},
	"pending":          {"#854d0e", "#fef08a"},
	"confirmed":        {"#3730a3", "#c7d2fe"},
	"picked-up":        {"#9a3412", "#fed7aa"},
	"ready":            {"#115e59", "#99f6e4"},
	"out-for-delivery": {"#6b21a8", "#e9d5ff"},
	"cancelled":        {"#991b1b", "#fecaca"},
}

func pick(c [2]lipgloss.Color, dark bool) lipgloss.Color {
	if dark {
		return c[1]
	}
	return c[0]
}

// TierBadge renders "Gold Member" in the tier's color.
func (s Styles) TierBadge(tier string) string {
	st := s.Bold.Copy().Padding(0, 1)
	if c, ok := tierColors[tier]; ok {
		st = st.Foreground(pick(c, s.Theme.IsDark))
	}
	if tier == "" {
		tier = "bronze"
	}
	return st.Render(strings.ToUpper(tier[:1]) + tier[1:] + " Member")
}

// Status renders an order status label in its color.
func (s Styles) Status(status string) string {
	st := s.Bold.Copy()
	if c, ok := statusColors[status]; ok {
		st = st.Foreground(pick(c, s.Theme.IsDark))
	} else {
		st = s.Muted.Copy()
	}
	return st.Render(strings.ReplaceAll(status, "-", " "))
}

// Logo returns the Vastram wordmark
func Logo(s Styles) string {
	return s.Title.Copy().MarginBottom(0).Render("VASTRAM") + " " + s.Muted.Render("laundry & dry cleaning")
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
