package config

// Theme names accepted in ui.theme.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ValidThemes = []string{ThemeAuto, ThemeLight, ThemeDark}

// UIConfig holds interactive shop configuration.
type UIConfig struct {
	// Theme is auto, light or dark. auto follows the terminal background
	// unless a preference was saved from the shop.
	Theme string `yaml:"theme"`

	// Animations toggles the navbar highlight spring.
	Animations bool `yaml:"animations"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Theme:      ThemeAuto,
		Animations: true,
	}
}

// IsValidTheme reports whether name is an accepted theme.
func IsValidTheme(name string) bool {
	for _, t := range ValidThemes {
		if name == t {
			return true
		}
	}
	return false
}
