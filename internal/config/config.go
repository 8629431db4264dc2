// Package config handles Snap-O CLI configuration.
//
// Configuration lives in ~/.snapo/config.yaml and is entirely optional:
// a missing file yields working defaults, and the adb binary is found
// by searching the usual places when no path is pinned.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	Adb     AdbConfig     `yaml:"adb,omitempty"`
	Capture CaptureConfig `yaml:"capture,omitempty"`
	Mirror  MirrorConfig  `yaml:"mirror,omitempty"`
}

// AdbConfig pins the adb binary location.
type AdbConfig struct {
	// Path to the adb binary. Empty means discover it.
	Path string `yaml:"path,omitempty"`
}

// CaptureConfig carries defaults for screen recordings.
type CaptureConfig struct {
	// BitRate in bits per second.
	BitRate int `yaml:"bitrate,omitempty"`
	// TimeLimitSeconds caps a recording; screenrecord allows up to 180.
	TimeLimitSeconds int `yaml:"time_limit_seconds,omitempty"`
	// Size as WxH, e.g. "720x1600". Empty records at native size.
	Size string `yaml:"size,omitempty"`
}

// MirrorConfig carries defaults for live screen mirroring.
type MirrorConfig struct {
	// BitRate in bits per second.
	BitRate int `yaml:"bitrate,omitempty"`
	// Listen is the default address for the mirror's WebSocket server.
	Listen string `yaml:"listen,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			BitRate:          8_000_000,
			TimeLimitSeconds: 180,
		},
		Mirror: MirrorConfig{
			BitRate: 4_000_000,
			Listen:  "127.0.0.1:7447",
		},
	}
}

// Dir returns the Snap-O config directory, ~/.snapo.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".snapo"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user's configuration, falling back to defaults when
// the file does not exist. Values absent from the file keep their
// defaults, so a file pinning only adb.path still records sensibly.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to its default location, creating the
// directory on first use.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to an explicit path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
