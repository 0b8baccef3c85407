package config

import (
	"os"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Namespace(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	ns := cfg.Namespace
	if ns.Capacity != 256 {
		t.Errorf("Expected capacity 256, got %d", ns.Capacity)
	}
	if ns.WriteMode != "overwrite" {
		t.Errorf("Expected write_mode 'overwrite', got %q", ns.WriteMode)
	}
	if ns.SizeReporting != "content" {
		t.Errorf("Expected size_reporting 'content', got %q", ns.SizeReporting)
	}
	if ns.NominalFileSize != 1024 {
		t.Errorf("Expected nominal_file_size 1024, got %d", ns.NominalFileSize)
	}
	if ns.MaxContentSize != DefaultMaxContentSize {
		t.Errorf("Expected max_content_size %d, got %d", DefaultMaxContentSize, ns.MaxContentSize)
	}
	if ns.MaxNameLength != 255 {
		t.Errorf("Expected max_name_length 255, got %d", ns.MaxNameLength)
	}
	if ns.DirMode != 0755 || ns.FileMode != 0644 {
		t.Errorf("Expected modes 0755/0644, got %o/%o", ns.DirMode, ns.FileMode)
	}
	if ns.UID == nil || *ns.UID != uint32(os.Getuid()) {
		t.Errorf("Expected uid to default to the current user")
	}
	if ns.GID == nil || *ns.GID != uint32(os.Getgid()) {
		t.Errorf("Expected gid to default to the current group")
	}
}

func TestApplyDefaults_Catalog(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Catalog.Type != "memory" {
		t.Errorf("Expected catalog type 'memory', got %q", cfg.Catalog.Type)
	}
	if cfg.Catalog.Badger["index_cache_size_mb"] != 16 {
		t.Errorf("Expected badger index_cache_size_mb 16, got %v", cfg.Catalog.Badger["index_cache_size_mb"])
	}
	if cfg.Catalog.Memory == nil {
		t.Error("Expected memory options map to be initialized")
	}
}

func TestApplyDefaults_MetricsAndMount(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.Mount.FSName != "lsysfs" {
		t.Errorf("Expected fs_name 'lsysfs', got %q", cfg.Mount.FSName)
	}
	if cfg.Mount.EntryTimeout != time.Second {
		t.Errorf("Expected entry_timeout 1s, got %v", cfg.Mount.EntryTimeout)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	uid := uint32(0)
	cfg := &Config{
		Logging:   LoggingConfig{Level: "warn", Format: "json", Output: "stderr"},
		Namespace: NamespaceConfig{Capacity: 8, WriteMode: "append", NamePolicy: "shared", UID: &uid},
		Catalog:   CatalogConfig{Type: "badger", Badger: map[string]any{"index_cache_size_mb": 64}},
		Metrics:   MetricsConfig{Enabled: true, Port: 9100},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level normalized to 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Namespace.Capacity != 8 || cfg.Namespace.WriteMode != "append" || cfg.Namespace.NamePolicy != "shared" {
		t.Errorf("Expected explicit namespace values to be preserved, got %+v", cfg.Namespace)
	}
	if *cfg.Namespace.UID != 0 {
		t.Errorf("Expected explicit uid 0 to be preserved, got %d", *cfg.Namespace.UID)
	}
	if cfg.Catalog.Badger["index_cache_size_mb"] != 64 {
		t.Errorf("Expected explicit index cache size, got %v", cfg.Catalog.Badger["index_cache_size_mb"])
	}
	if cfg.Metrics.Port != 9100 {
		t.Errorf("Expected port 9100, got %d", cfg.Metrics.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}
