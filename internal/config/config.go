// Package config loads cl-bindgen configuration and batch files.
//
// The configuration lives in .cl-bindgen/config.yaml, found by walking up
// from the working directory. It holds the default options of every job;
// batch files and command-line flags override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/cl-bindgen/internal/expand"
	"github.com/hargabyte/cl-bindgen/internal/mangle"
)

// ConfigFileName is the name of the configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the configuration directory
const ConfigDirName = ".cl-bindgen"

// Config holds all cl-bindgen configuration
type Config struct {
	Options `yaml:",inline"`
	Cache   CacheConfig `yaml:"cache"`
	Log     LogConfig   `yaml:"log"`
}

// Options are the settings a batch document can override.
type Options struct {
	mangle.SetSpec `yaml:",inline"`

	// Arguments are compiler style arguments such as -I and -D.
	Arguments []string `yaml:"arguments,omitempty"`
	Package   string   `yaml:"package,omitempty"`
	// Output is a file path, :stdout or :stderr.
	Output           string        `yaml:"output,omitempty"`
	Force            *bool         `yaml:"force,omitempty"`
	BestEffort       *bool         `yaml:"best_effort,omitempty"`
	SkipHeaderGuards *bool         `yaml:"skip_header_guards,omitempty"`
	PointerExpansion *expand.Rules `yaml:"pointer_expansion,omitempty"`
}

// CacheConfig holds configuration for the pass cache
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig holds configuration for diagnostics logging
type LogConfig struct {
	Format string `yaml:"format"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .cl-bindgen/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .cl-bindgen directory by walking up from
// startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .cl-bindgen directory if it doesn't exist.
// Returns the path to the directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if err := cfg.Options.Validate(); err != nil {
		return err
	}

	if !IsValidLogFormat(cfg.Log.Format) {
		return fmt.Errorf("%w: log.format must be one of %v, got %q",
			ErrInvalidConfig, ValidLogFormats, cfg.Log.Format)
	}

	return nil
}

// Validate checks that the mangler chains and expansion rules compile.
func (o Options) Validate() error {
	if _, err := o.SetSpec.Build(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if o.PointerExpansion != nil {
		if _, err := o.PointerExpansion.Compile(); err != nil {
			return fmt.Errorf("%w: pointer_expansion: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// SaveDefault writes the default configuration to .cl-bindgen/config.yaml
// in workDir. Creates the directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# cl-bindgen configuration\n# Default options for every job; batch files override them per job.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
