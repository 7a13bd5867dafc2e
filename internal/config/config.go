package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the content of solidscript.yaml.
type Config struct {
	// Workers bounds concurrent heavy builtin calls and concurrently
	// evaluated files.
	Workers int `yaml:"workers"`

	// Memoize caches heavy builtin results by call site and argument values.
	Memoize bool `yaml:"memoize"`

	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`
	Cache  CacheConfig  `yaml:"cache"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

type OutputConfig struct {
	// Format is stl or obj.
	Format string `yaml:"format"`
}

type CacheConfig struct {
	// Path of the SQLite mesh cache. Empty disables the cache.
	Path string `yaml:"path"`
}

var (
	LogLevels     = []string{"debug", "info", "warn", "error"}
	LogFormats    = []string{"text", "json"}
	OutputFormats = []string{"stl", "obj"}
)

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a solidscript.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses solidscript.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfig searches for solidscript.yaml starting from dir and walking up
// to parent directories. It returns an empty path if none is found.
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

		candidate = filepath.Join(dir, "solidscript.yml")
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

func (c *Config) setDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Output.Format == "" {
		c.Output.Format = DefaultFormat
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if !oneOf(c.Log.Level, LogLevels) {
		return fmt.Errorf("log.level %q is not one of %v", c.Log.Level, LogLevels)
	}
	if !oneOf(c.Log.Format, LogFormats) {
		return fmt.Errorf("log.format %q is not one of %v", c.Log.Format, LogFormats)
	}
	if !oneOf(c.Output.Format, OutputFormats) {
		return fmt.Errorf("output.format %q is not one of %v", c.Output.Format, OutputFormats)
	}
	return nil
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
