package config

import (
	"os"
	"strings"
	"time"

	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/marmos91/lsysfs/pkg/namespace"
)

const (
	// DefaultMaxContentSize bounds a single file's content (64MiB)
	DefaultMaxContentSize = namespace.DefaultMaxContentSize

	// DefaultMetricsPort is the metrics HTTP port
	DefaultMetricsPort = 9090
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are written into the backend's options map
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyNamespaceDefaults(&cfg.Namespace)
	applyCatalogDefaults(&cfg.Catalog)
	applyMetricsDefaults(&cfg.Metrics)
	applyMountDefaults(&cfg.Mount)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyNamespaceDefaults(cfg *NamespaceConfig) {
	if cfg.Capacity == 0 {
		cfg.Capacity = metadata.DefaultCapacity
	}
	if cfg.WriteMode == "" {
		cfg.WriteMode = string(namespace.WriteModeOverwrite)
	}
	if cfg.NamePolicy == "" {
		cfg.NamePolicy = string(namespace.NamePolicyExclusive)
	}
	if cfg.SizeReporting == "" {
		cfg.SizeReporting = string(namespace.SizeReportingContent)
	}
	if cfg.NominalFileSize == 0 {
		cfg.NominalFileSize = namespace.DefaultNominalFileSize
	}
	if cfg.MaxContentSize == 0 {
		cfg.MaxContentSize = DefaultMaxContentSize
	}
	if cfg.MaxNameLength == 0 {
		cfg.MaxNameLength = namespace.DefaultMaxNameLength
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = namespace.DefaultDirMode
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = namespace.DefaultFileMode
	}

	// Entries belong to the mounting user unless configured otherwise.
	if cfg.UID == nil {
		uid := uint32(os.Getuid())
		cfg.UID = &uid
	}
	if cfg.GID == nil {
		gid := uint32(os.Getgid())
		cfg.GID = &gid
	}
}

func applyCatalogDefaults(cfg *CatalogConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	// Written for every type so generated config files document them.
	if _, ok := cfg.Badger["index_cache_size_mb"]; !ok {
		cfg.Badger["index_cache_size_mb"] = 16
	}
	if _, ok := cfg.Badger["block_cache_size_mb"]; !ok {
		cfg.Badger["block_cache_size_mb"] = 16
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

func applyMountDefaults(cfg *MountConfig) {
	if cfg.FSName == "" {
		cfg.FSName = "lsysfs"
	}
	if cfg.EntryTimeout == 0 {
		cfg.EntryTimeout = time.Second
	}
	if cfg.AttrTimeout == 0 {
		cfg.AttrTimeout = time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
