package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Vastram client configuration.
type Config struct {
	// Backend REST API
	API APIConfig `yaml:"api"`

	// Local credential/preference store
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Interactive shop
	UI UIConfig `yaml:"ui"`

	// Checkout pricing
	Checkout CheckoutConfig `yaml:"checkout"`

	// Contact form delivery
	Contact ContactConfig `yaml:"contact"`

	// Tracing
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig configures the local sqlite store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
	Path   string `yaml:"path"`   // relative paths resolve against the data dir
}

// CheckoutConfig configures order quoting.
type CheckoutConfig struct {
	TaxRatePercent int64  `yaml:"tax_rate_percent"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

// ContactConfig configures contact form delivery.
// Without an API key messages are only logged.
type ContactConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	To             string `yaml:"to"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"` // empty = <data-dir>/traces.jsonl
}

const (
	DefaultBaseURL = "http://localhost:5000/api"
	DataDirName    = ".vastram"
	ConfigFileName = "config.yaml"
)

// Storage drivers accepted by Validate.
var ValidDrivers = []string{"sqlite", "sqlite3"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: "15s",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "vastram.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		UI: *DefaultUIConfig(),
		Checkout: CheckoutConfig{
			TaxRatePercent: 18,
			CurrencySymbol: "₹",
		},
		Contact: ContactConfig{
			From: "noreply@vastram.in",
			To:   "care@vastram.in",
		},
	}
}

// DefaultDataDir returns ~/.vastram, falling back to ./.vastram.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDirName
	}
	return filepath.Join(home, DataDirName)
}

// PathIn returns the config file path inside dataDir.
func PathIn(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// VITE_API_URL is what the web storefront used; VASTRAM_API_URL wins.
	if url := os.Getenv("VITE_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if url := os.Getenv("VASTRAM_API_URL"); url != "" {
		c.API.BaseURL = url
	}

	if path := os.Getenv("VASTRAM_DB"); path != "" {
		c.Storage.Path = path
	}
	if theme := os.Getenv("VASTRAM_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		c.Contact.SendGridAPIKey = key
	}
	if v := os.Getenv("VASTRAM_TRACE"); v != "" {
		c.Telemetry.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

// GetAPITimeout returns the per-request timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// DatabasePath resolves the storage path against dataDir.
func (c *Config) DatabasePath(dataDir string) string {
	if c.Storage.Path == "" {
		return filepath.Join(dataDir, "vastram.db")
	}
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(dataDir, c.Storage.Path)
}

// TracePath resolves the trace output file against dataDir.
func (c *Config) TracePath(dataDir string) string {
	if c.Telemetry.File == "" {
		return filepath.Join(dataDir, "traces.jsonl")
	}
	if filepath.IsAbs(c.Telemetry.File) {
		return c.Telemetry.File
	}
	return filepath.Join(dataDir, c.Telemetry.File)
}

// IsContactMailEnabled returns whether contact messages are delivered by SendGrid.
func (c *Config) IsContactMailEnabled() bool {
	return c.Contact.SendGridAPIKey != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url not configured (set VASTRAM_API_URL)")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid api.base_url: %s (must be http or https)", c.API.BaseURL)
	}

	validDriver := false
	for _, d := range ValidDrivers {
		if c.Storage.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}

	if !IsValidTheme(c.UI.Theme) {
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}

	if c.Checkout.TaxRatePercent < 0 || c.Checkout.TaxRatePercent > 100 {
		return fmt.Errorf("invalid checkout.tax_rate_percent: %d", c.Checkout.TaxRatePercent)
	}

	if c.IsContactMailEnabled() && (c.Contact.From == "" || c.Contact.To == "") {
		return fmt.Errorf("contact.from and contact.to are required when sendgrid is configured")
	}

	return nil
}
