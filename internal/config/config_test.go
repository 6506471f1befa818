package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VASTRAM_API_URL", "VITE_API_URL", "VASTRAM_DB", "VASTRAM_THEME", "SENDGRID_API_KEY", "VASTRAM_TRACE"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Errorf("expected default base url, got %s", cfg.API.BaseURL)
	}
	if cfg.Checkout.TaxRatePercent != 18 {
		t.Errorf("expected TaxRatePercent=18, got %d", cfg.Checkout.TaxRatePercent)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", cfg.Storage.Driver)
	}
	if cfg.UI.Theme != ThemeAuto {
		t.Errorf("expected Theme=auto, got %s", cfg.UI.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://api.vastram.in/api"
	cfg.UI.Theme = ThemeDark
	cfg.Logging.DebugMode = true
	cfg.Logging.Categories = map[string]bool{"cart": true, "ui": false}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: light\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, int64(18), cfg.Checkout.TaxRatePercent)
}

func TestLoad_ZeroTaxRate(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checkout:\n  tax_rate_percent: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Checkout.TaxRatePercent)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Run("VASTRAM_API_URL wins over VITE_API_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITE_API_URL", "http://vite:5000/api")
		t.Setenv("VASTRAM_API_URL", "http://vastram:5000/api")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "http://vastram:5000/api", cfg.API.BaseURL)
	})

	t.Run("VITE_API_URL alone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITE_API_URL", "http://vite:5000/api")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "http://vite:5000/api", cfg.API.BaseURL)
	})

	t.Run("storage, theme, sendgrid and trace", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VASTRAM_DB", "/tmp/x.db")
		t.Setenv("VASTRAM_THEME", "DARK")
		t.Setenv("SENDGRID_API_KEY", "SG.key")
		t.Setenv("VASTRAM_TRACE", "true")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
		assert.Equal(t, ThemeDark, cfg.UI.Theme)
		assert.Equal(t, "SG.key", cfg.Contact.SendGridAPIKey)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.True(t, cfg.IsContactMailEnabled())
	})

	t.Run("env applies even without a config file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VASTRAM_API_URL", "http://env-only/api")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "http://env-only/api", cfg.API.BaseURL)
	})
}

func TestGetAPITimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.GetAPITimeout())

	cfg.API.Timeout = "3s"
	assert.Equal(t, 3*time.Second, cfg.GetAPITimeout())

	cfg.API.Timeout = "garbage"
	assert.Equal(t, 15*time.Second, cfg.GetAPITimeout())
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/data", "vastram.db"), cfg.DatabasePath("/data"))
	assert.Equal(t, filepath.Join("/data", "traces.jsonl"), cfg.TracePath("/data"))

	cfg.Storage.Path = "/abs/shop.db"
	assert.Equal(t, "/abs/shop.db", cfg.DatabasePath("/data"))

	assert.Equal(t, filepath.Join("/data", "config.yaml"), PathIn("/data"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"non-http base url", func(c *Config) { c.API.BaseURL = "ftp://x" }},
		{"bad driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"bad tax", func(c *Config) { c.Checkout.TaxRatePercent = 120 }},
		{"negative tax", func(c *Config) { c.Checkout.TaxRatePercent = -1 }},
		{"sendgrid without recipients", func(c *Config) {
			c.Contact.SendGridAPIKey = "SG.x"
			c.Contact.To = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", DebugMode: true, Categories: map[string]bool{"ui": false}}
	assert.True(t, lc.IsCategoryEnabled("cart"))
	assert.False(t, lc.IsCategoryEnabled("ui"))

	s := lc.Settings()
	assert.True(t, s.DebugMode)
	assert.Equal(t, "json", s.Format)
	assert.Equal(t, lc.Categories, s.Categories)

	lc.DebugMode = false
	assert.False(t, lc.IsCategoryEnabled("cart"))
}
