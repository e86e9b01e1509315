package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level funblocks.yaml configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`

	// dir is the directory of the config file; relative catalog paths resolve against it.
	dir string
}

// CatalogConfig names the catalog source. Exactly one of Path and SQLite is set.
type CatalogConfig struct {
	// Path is a YAML catalog file.
	Path string `yaml:"path,omitempty"`

	// SQLite is a SQLite database holding the classes and functions tables.
	SQLite string `yaml:"sqlite,omitempty"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level,omitempty"`

	// Format is auto, text or json. Auto picks text on a terminal. Defaults to auto.
	Format string `yaml:"format,omitempty"`
}

// Log formats
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{FormatAuto, FormatText, FormatJSON}
)

// Default returns the configuration used when no funblocks.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a funblocks.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses funblocks.yaml content from bytes.
// The path argument is used for error messages and to resolve relative catalog paths.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

// FindConfig searches for funblocks.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error when none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		candidate = filepath.Join(dir, strings.TrimSuffix(DefaultConfigFile, ".yaml")+".yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Catalog.Path != "" && c.Catalog.SQLite != "" {
		return fmt.Errorf("%s: catalog: path and sqlite are mutually exclusive", path)
	}
	if c.Log.Level != "" && !oneOf(c.Log.Level, logLevels) {
		return fmt.Errorf("%s: log: level %q is not one of %s", path, c.Log.Level, strings.Join(logLevels, ", "))
	}
	if c.Log.Format != "" && !oneOf(c.Log.Format, logFormats) {
		return fmt.Errorf("%s: log: format %q is not one of %s", path, c.Log.Format, strings.Join(logFormats, ", "))
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = FormatAuto
	}
}

// CatalogSource returns the configured catalog file, resolved against the
// config file's directory, and whether it is a SQLite database. It returns
// "" when no catalog is configured.
func (c *Config) CatalogSource() (path string, sqlite bool) {
	switch {
	case c.Catalog.SQLite != "":
		return c.resolve(c.Catalog.SQLite), true
	case c.Catalog.Path != "":
		return c.resolve(c.Catalog.Path), false
	default:
		return "", false
	}
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
