package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetLogging(t *testing.T) {
	t.Helper()
	CloseAll()
	CloseAudit()
	configMu.Lock()
	logsDir = ""
	settings = Settings{}
	configMu.Unlock()
	t.Cleanup(func() {
		CloseAll()
		CloseAudit()
		configMu.Lock()
		logsDir = ""
		settings = Settings{}
		configMu.Unlock()
	})
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	resetLogging(t)
	tempDir := t.TempDir()

	if err := Initialize(tempDir, Settings{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategorySession,
		CategoryCart,
		CategoryAPI,
		CategoryStore,
		CategoryCatalog,
		CategoryCheckout,
		CategoryContact,
		CategoryUI,
		CategoryConfig,
		CategoryMock,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}

		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	// Also test convenience functions
	Boot("Convenience boot log")
	Session("Convenience session log")
	Cart("Convenience cart log")
	API("Convenience api log")
	Store("Convenience store log")
	Catalog("Convenience catalog log")
	Checkout("Convenience checkout log")
	Contact("Convenience contact log")
	UI("Convenience ui log")
	Config("Convenience config log")
	Mock("Convenience mock log")

	CloseAll()

	logsPath := filepath.Join(tempDir, "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), "_"+string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	resetLogging(t)
	tempDir := t.TempDir()

	if err := Initialize(tempDir, Settings{DebugMode: false, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if IsDebugMode() {
		t.Error("Expected debug mode to be DISABLED (production mode)")
	}
	for _, cat := range []Category{CategoryBoot, CategoryCart, CategorySession} {
		if IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be DISABLED when debug_mode=false", cat)
		}
	}

	Boot("This should NOT be logged")
	Cart("This should NOT be logged")
	Get(CategorySession).Error("This should NOT be logged")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, "logs"))
	if err == nil && len(entries) > 0 {
		t.Errorf("Expected NO log files in production mode, but found %d files", len(entries))
	} else if err != nil && !os.IsNotExist(err) {
		t.Fatalf("unexpected error reading logs dir: %v", err)
	}
}

// TestCategoryToggle tests individual category enable/disable
func TestCategoryToggle(t *testing.T) {
	resetLogging(t)
	tempDir := t.TempDir()

	err := Initialize(tempDir, Settings{
		DebugMode: true,
		Level:     "debug",
		Categories: map[string]bool{
			"boot": true,
			"cart": true,
			"api":  false,
			"ui":   false,
		},
	})
	if err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled")
	}
	if !IsCategoryEnabled(CategoryCart) {
		t.Error("cart should be enabled")
	}
	if IsCategoryEnabled(CategoryAPI) {
		t.Error("api should be DISABLED")
	}
	if IsCategoryEnabled(CategoryUI) {
		t.Error("ui should be DISABLED")
	}
	// Not in the map: defaults to enabled while debug_mode=true
	if !IsCategoryEnabled(CategoryCheckout) {
		t.Error("checkout (not in config) should default to enabled")
	}

	Boot("This SHOULD be logged")
	Cart("This SHOULD be logged")
	API("This should NOT be logged")
	UI("This should NOT be logged")
	Checkout("This SHOULD be logged (default enabled)")
	CloseAll()

	entries, _ := os.ReadDir(filepath.Join(tempDir, "logs"))
	has := map[string]bool{}
	for _, e := range entries {
		for _, name := range []string{"boot", "cart", "api", "ui", "checkout"} {
			if strings.HasSuffix(e.Name(), "_"+name+".log") {
				has[name] = true
			}
		}
	}

	if !has["boot"] || !has["cart"] || !has["checkout"] {
		t.Errorf("Expected boot, cart and checkout log files, got %v", has)
	}
	if has["api"] || has["ui"] {
		t.Errorf("Should NOT have api/ui log files (disabled), got %v", has)
	}
}

func TestJSONFormatAndRequestID(t *testing.T) {
	resetLogging(t)
	tempDir := t.TempDir()

	if err := Initialize(tempDir, Settings{DebugMode: true, Level: "info", Format: "json"}); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	WithRequestID(CategoryAPI, "req-123").Info("GET /cart -> %d", 200)
	APIDebug("below the configured level")
	CloseAll()

	matches, _ := filepath.Glob(filepath.Join(tempDir, "logs", "*_api.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one api log file, got %v", matches)
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)
	if !strings.Contains(text, `"req":"req-123"`) {
		t.Errorf("expected request id field in %q", text)
	}
	if !strings.Contains(text, "GET /cart -> 200") {
		t.Errorf("expected formatted message in %q", text)
	}
	if strings.Contains(text, "below the configured level") {
		t.Errorf("debug line should be filtered at info level: %q", text)
	}
}

func TestInitializeRequiresDataDir(t *testing.T) {
	resetLogging(t)
	if err := Initialize("", Settings{DebugMode: true}); err == nil {
		t.Error("expected error for empty data dir")
	}
}

// TestTimerLogging tests the timing helper
func TestTimerLogging(t *testing.T) {
	resetLogging(t)
	if err := Initialize(t.TempDir(), Settings{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatal(err)
	}

	timer := StartTimer(CategoryCart, "TestOperation")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()
	if elapsed <= 0 {
		t.Error("Timer should have recorded non-zero duration")
	}

	slow := StartTimer(CategoryAPI, "SlowOperation")
	time.Sleep(2 * time.Millisecond)
	if got := slow.StopWithThreshold(time.Nanosecond); got <= time.Nanosecond {
		t.Errorf("expected elapsed above threshold, got %v", got)
	}
}
