package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"

namespace:
  capacity: 32
  write_mode: "append"

catalog:
  type: "badger"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Namespace.Capacity != 32 {
		t.Errorf("Expected capacity 32, got %d", cfg.Namespace.Capacity)
	}
	if cfg.Namespace.WriteMode != "append" {
		t.Errorf("Expected write_mode 'append', got %q", cfg.Namespace.WriteMode)
	}
	if cfg.Namespace.NamePolicy != "exclusive" {
		t.Errorf("Expected default name_policy 'exclusive', got %q", cfg.Namespace.NamePolicy)
	}
	if cfg.Catalog.Type != "badger" {
		t.Errorf("Expected catalog type 'badger', got %q", cfg.Catalog.Type)
	}
	if cfg.Mount.AttrTimeout != time.Second {
		t.Errorf("Expected default attr_timeout 1s, got %v", cfg.Mount.AttrTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Catalog.Type != "memory" {
		t.Errorf("Expected default catalog type 'memory', got %q", cfg.Catalog.Type)
	}
	if cfg.Namespace.Capacity != 256 {
		t.Errorf("Expected default capacity 256, got %d", cfg.Namespace.Capacity)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("namespace: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("namespace:\n  write_mode: prepend\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown write_mode")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("LSYSFS_LOGGING_LEVEL", "ERROR")
	t.Setenv("LSYSFS_NAMESPACE_NAME_POLICY", "shared")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

namespace:
  name_policy: "exclusive"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Namespace.NamePolicy != "shared" {
		t.Errorf("Expected name_policy 'shared' from env var, got %q", cfg.Namespace.NamePolicy)
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if dir := GetConfigDir(); dir != "/tmp/xdg/lsysfs" {
		t.Errorf("Expected /tmp/xdg/lsysfs, got %q", dir)
	}
	if path := GetDefaultConfigPath(); path != "/tmp/xdg/lsysfs/config.yaml" {
		t.Errorf("Expected /tmp/xdg/lsysfs/config.yaml, got %q", path)
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if ConfigExists() {
		t.Fatal("Expected no config in a fresh directory")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !ConfigExists() {
		t.Fatal("Expected config to exist after InitConfig")
	}
}
