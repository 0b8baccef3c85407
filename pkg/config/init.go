package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# lsysfs Configuration File
#
# Every value below is the built-in default. Any key can be overridden with
# an environment variable: LSYSFS_<SECTION>_<KEY>, e.g.
# LSYSFS_NAMESPACE_WRITE_MODE=append.
#
# namespace.dir_mode and namespace.file_mode are decimal (493 = 0755, 420 = 0644).
# namespace.uid and namespace.gid default to the mounting user when omitted.
#
# catalog.type selects the backend: memory or badger (in-memory BadgerDB).

`

// InitConfig writes a default configuration file to the default location.
//
// Parameters:
//   - force: overwrite an existing file
//
// Returns the path written.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigAt(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigAt writes a default configuration file to path.
//
// Fails if the file exists and force is false.
func InitConfigAt(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := renderDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// renderDefaultConfig returns the commented YAML form of GetDefaultConfig.
func renderDefaultConfig() ([]byte, error) {
	cfg := GetDefaultConfig()

	// Ownership is resolved per mount, not baked into the file.
	cfg.Namespace.UID = nil
	cfg.Namespace.GID = nil

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}

	return buf.Bytes(), nil
}
