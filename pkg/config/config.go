package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete lsysfs configuration.
//
// This structure captures all configurable aspects of the filesystem:
//   - Logging configuration
//   - Namespace engine behavior (capacity, write semantics, name policy)
//   - Catalog backend selection and backend-specific options
//   - Metrics exposure
//   - FUSE mount options
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LSYSFS_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each catalog backend decodes its own options map. The Config struct holds
// one map per backend and only the map matching catalog.type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Namespace controls the namespace engine
	Namespace NamespaceConfig `mapstructure:"namespace" yaml:"namespace"`

	// Catalog selects the catalog backend
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Mount contains FUSE mount options
	Mount MountConfig `mapstructure:"mount" yaml:"mount"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// NamespaceConfig controls the namespace engine.
type NamespaceConfig struct {
	// Capacity bounds each catalog (directories and files separately)
	Capacity int `mapstructure:"capacity" yaml:"capacity" validate:"gt=0,lte=1048576"`

	// WriteMode selects overwrite-at-offset or legacy append semantics
	WriteMode string `mapstructure:"write_mode" yaml:"write_mode" validate:"required,oneof=overwrite append"`

	// NamePolicy controls whether a file and a directory may share a name
	NamePolicy string `mapstructure:"name_policy" yaml:"name_policy" validate:"required,oneof=exclusive shared"`

	// SizeReporting selects actual content length or a fixed nominal size
	SizeReporting string `mapstructure:"size_reporting" yaml:"size_reporting" validate:"required,oneof=content nominal"`

	// NominalFileSize is the size reported when size_reporting is nominal
	NominalFileSize int64 `mapstructure:"nominal_file_size" yaml:"nominal_file_size" validate:"gte=0"`

	// MaxContentSize bounds the content of a single file in bytes (0 = default)
	MaxContentSize int64 `mapstructure:"max_content_size" yaml:"max_content_size" validate:"gte=0"`

	// MaxNameLength bounds each path segment in bytes
	MaxNameLength int `mapstructure:"max_name_length" yaml:"max_name_length" validate:"gt=0,lte=4096"`

	// RequireParent rejects creation below a missing directory
	RequireParent bool `mapstructure:"require_parent" yaml:"require_parent"`

	// DirMode is the permission bits reported for directories
	DirMode uint32 `mapstructure:"dir_mode" yaml:"dir_mode" validate:"lte=511"` // 511 = 0777

	// FileMode is the permission bits reported for files
	FileMode uint32 `mapstructure:"file_mode" yaml:"file_mode" validate:"lte=511"`

	// UID owns every entry (defaults to the mounting user)
	UID *uint32 `mapstructure:"uid" yaml:"uid,omitempty"`

	// GID owns every entry (defaults to the mounting user's group)
	GID *uint32 `mapstructure:"gid" yaml:"gid,omitempty"`
}

// CatalogConfig specifies the catalog backend.
//
// The Type field determines which implementation is used.
// Only the corresponding type-specific options map is used.
type CatalogConfig struct {
	// Type specifies which catalog implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific options
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific options
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics HTTP server
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host is the bind address (empty binds all interfaces)
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the HTTP port
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// MountConfig contains FUSE mount options.
type MountConfig struct {
	// Mountpoint is the directory to mount on (overridden by the CLI argument)
	Mountpoint string `mapstructure:"mountpoint" yaml:"mountpoint"`

	// FSName is the filesystem name shown in the mount table
	FSName string `mapstructure:"fs_name" yaml:"fs_name" validate:"required"`

	// AllowOther lets users other than the mounting user access the mount
	AllowOther bool `mapstructure:"allow_other" yaml:"allow_other"`

	// EntryTimeout is how long the kernel caches name lookups
	EntryTimeout time.Duration `mapstructure:"entry_timeout" yaml:"entry_timeout" validate:"gte=0"`

	// AttrTimeout is how long the kernel caches attributes
	AttrTimeout time.Duration `mapstructure:"attr_timeout" yaml:"attr_timeout" validate:"gte=0"`

	// Debug logs every FUSE request
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LSYSFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// LSYSFS_NAMESPACE_WRITE_MODE=append overrides namespace.write_mode
	v.SetEnvPrefix("LSYSFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists.
// A missing file is not an error: defaults apply.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lsysfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "lsysfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
