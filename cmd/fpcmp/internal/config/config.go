// Package config loads fpcmp defaults from a YAML file.
//
// The file lives at os.UserConfigDir()/fpcmp/config.yaml unless FPCMP_CONFIG
// or --config names another path:
//
//	length: 60
//	algorithm: test2
//	decoder: ffmpeg
//	format: json
//	options:
//	  silence_threshold: 100
//
// Command-line flags override every value read from the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "fpcmp"

	// fileName is the config file inside appDir.
	fileName = "config.yaml"

	// EnvPath overrides the default config file location.
	EnvPath = "FPCMP_CONFIG"
)

// Config holds the defaults for a comparison.
type Config struct {
	// Length is the analysis window in seconds; 0 or less analyzes
	// whole files.
	Length int `yaml:"length"`

	Algorithm string         `yaml:"algorithm"`
	Options   map[string]int `yaml:"options,omitempty"`
	Format    string         `yaml:"format"`
	Decoder   string         `yaml:"decoder"`

	// Path is the file the config was read from, empty if none.
	Path string `yaml:"-"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Length:    120,
		Algorithm: "default",
		Format:    "raw",
		Decoder:   "ffmpeg",
	}
}

// DefaultPath returns the config file path from FPCMP_CONFIG, or the
// per-user default.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config at path over the defaults. An empty path selects
// DefaultPath, which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes YAML config data over the defaults.
func Parse(path string, data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}
