package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig tests the out-of-the-box settings.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.General.APIPort != 0 {
		t.Errorf("Expected default APIPort 0, got %d", cfg.General.APIPort)
	}
	if !cfg.General.OpenBrowser {
		t.Error("Expected OpenBrowser to default to true")
	}
	if !cfg.General.ReopenLastProject {
		t.Error("Expected ReopenLastProject to default to true")
	}
	if cfg.General.RecordHotkey != "Ctrl+Alt+R" {
		t.Errorf("Expected default record hotkey 'Ctrl+Alt+R', got %q", cfg.General.RecordHotkey)
	}
}

// TestSaveLoadRoundTrip tests that saved settings survive a reload.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m := &Manager{configPath: path, config: DefaultConfig()}

	m.Update(func(c *Config) {
		c.General.APIPort = 8123
		c.General.LastProject = "/tmp/demo.bsr"
	})
	if err := m.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m2 := &Manager{configPath: path, config: DefaultConfig()}
	if err := m2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := m2.Get()
	if cfg.General.APIPort != 8123 {
		t.Errorf("Expected APIPort 8123, got %d", cfg.General.APIPort)
	}
	if cfg.General.LastProject != "/tmp/demo.bsr" {
		t.Errorf("Expected last project '/tmp/demo.bsr', got %q", cfg.General.LastProject)
	}
}

// TestLoadMissingFileUsesDefaults tests that a missing file is not an error.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m := &Manager{
		configPath: filepath.Join(t.TempDir(), "nope.json"),
		config:     DefaultConfig(),
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Expected missing config to load defaults, got %v", err)
	}
	if !m.Get().General.OpenBrowser {
		t.Error("Expected defaults to survive a missing-file load")
	}
}

// TestLoadInvalidJSON tests that a corrupt file reports an error.
func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	m := &Manager{configPath: path, config: DefaultConfig()}
	if err := m.Load(); err == nil {
		t.Error("Expected invalid JSON to be an error")
	}
}

// TestGetReturnsCopy tests that mutating a Get result does not leak back.
func TestGetReturnsCopy(t *testing.T) {
	m := &Manager{configPath: "unused", config: DefaultConfig()}
	cfg := m.Get()
	cfg.General.APIPort = 999
	if m.Get().General.APIPort == 999 {
		t.Error("Expected Get to return a copy, not the live config")
	}
}
