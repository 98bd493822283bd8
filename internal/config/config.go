package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

// Extractor names accepted in scan.extractors.
const (
	ExtractorSubTypes  = "subtypes"
	ExtractorTypes     = "types"
	ExtractorResources = "resources"
)

// Config represents the complete typeindex configuration.
type Config struct {
	Version   int            `yaml:"version" json:"version"`
	Sources   []string       `yaml:"sources" json:"sources"`
	Classpath []string       `yaml:"classpath" json:"classpath"`
	Filter    FilterConfig   `yaml:"filter" json:"filter"`
	Scan      ScanConfig     `yaml:"scan" json:"scan"`
	Snapshot  SnapshotConfig `yaml:"snapshot" json:"snapshot"`
	Log       LogConfig      `yaml:"log" json:"log"`
}

// FilterConfig configures which units are scanned.
// Include and Exclude are regular expressions matched against the dotted
// unit path; Packages are dotted package prefixes.
type FilterConfig struct {
	Include  []string `yaml:"include" json:"include"`
	Exclude  []string `yaml:"exclude" json:"exclude"`
	Packages []string `yaml:"packages" json:"packages"`
}

// ScanConfig configures the scan pipeline.
type ScanConfig struct {
	// Extractors lists the extractors to run (subtypes, types, resources).
	Extractors []string `yaml:"extractors" json:"extractors"`
	// Parallel scans sources on a bounded worker pool.
	Parallel bool `yaml:"parallel" json:"parallel"`
	// Workers bounds the pool; 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`
	// ExpandSupertypes completes the SubTypes hierarchy after scanning.
	ExpandSupertypes bool `yaml:"expand_supertypes" json:"expand_supertypes"`
	// ExcludeObject keeps the root object type out of SubTypes keys.
	ExcludeObject bool `yaml:"exclude_object" json:"exclude_object"`
}

// SnapshotConfig configures where the index is saved.
type SnapshotConfig struct {
	Path string `yaml:"path" json:"path"`
	// Format is json, yaml or sqlite. Empty derives it from Path.
	Format string `yaml:"format" json:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			Extractors:       []string{ExtractorSubTypes, ExtractorTypes, ExtractorResources},
			Parallel:         true,
			Workers:          0,
			ExpandSupertypes: true,
			ExcludeObject:    true,
		},
		Snapshot: SnapshotConfig{
			Path: filepath.Join(".typeindex", "index.json"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
// $XDG_CONFIG_HOME/typeindex/config.yaml, or ~/.config/typeindex/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "typeindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "typeindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "typeindex", "config.yaml")
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/typeindex/config.yaml)
//  3. Project config (.typeindex.yaml in dir)
//  4. Environment variables (TYPEINDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile loads a single configuration file on top of the defaults,
// without user config or environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads .typeindex.yaml, or .typeindex.yml as a fallback.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".typeindex.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".typeindex.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML decodes path over the current values. Keys absent from the file
// keep their current value, so an explicit false still overrides a default.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ierrors.New(ierrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	parsed := *c
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return ierrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithSuggestion("check the YAML syntax of the config file")
	}

	*c = parsed
	return nil
}

// applyEnvOverrides applies TYPEINDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TYPEINDEX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ierrors.ConfigError(fmt.Sprintf("TYPEINDEX_WORKERS must be an integer, got %q", v), err)
		}
		c.Scan.Workers = n
	}
	if v := os.Getenv("TYPEINDEX_PARALLEL"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return ierrors.ConfigError(fmt.Sprintf("TYPEINDEX_PARALLEL must be a boolean, got %q", v), err)
		}
		c.Scan.Parallel = b
	}
	if v := os.Getenv("TYPEINDEX_EXPAND_SUPERTYPES"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return ierrors.ConfigError(fmt.Sprintf("TYPEINDEX_EXPAND_SUPERTYPES must be a boolean, got %q", v), err)
		}
		c.Scan.ExpandSupertypes = b
	}
	if v := os.Getenv("TYPEINDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TYPEINDEX_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = v
	}
	if v := os.Getenv("TYPEINDEX_SNAPSHOT_FORMAT"); v != "" {
		c.Snapshot.Format = v
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return ierrors.ConfigError(fmt.Sprintf("unsupported config version %d", c.Version), nil)
	}

	if c.Scan.Workers < 0 {
		return ierrors.ConfigError(fmt.Sprintf("scan.workers must be non-negative, got %d", c.Scan.Workers), nil)
	}

	if len(c.Scan.Extractors) == 0 {
		return ierrors.ConfigError("scan.extractors must name at least one extractor", nil)
	}
	for _, name := range c.Scan.Extractors {
		switch strings.ToLower(name) {
		case ExtractorSubTypes, ExtractorTypes, ExtractorResources:
		default:
			return ierrors.ConfigError(fmt.Sprintf("scan.extractors: unknown extractor %q", name), nil).
				WithSuggestion("use subtypes, types or resources")
		}
	}

	switch strings.ToLower(c.Snapshot.Format) {
	case "", "json", "yaml", "sqlite":
	default:
		return ierrors.ConfigError(fmt.Sprintf("snapshot.format must be json, yaml, sqlite or empty, got %s", c.Snapshot.Format), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return ierrors.ConfigError(fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil)
	}

	return nil
}

// HasExtractor reports whether the named extractor is enabled.
func (c *Config) HasExtractor(name string) bool {
	for _, e := range c.Scan.Extractors {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
