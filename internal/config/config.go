package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcncl/gobound/internal/errors"
	"github.com/mcncl/gobound/internal/textnorm"
	"github.com/mcncl/gobound/serializer"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the gobound CLI. The CLI
// bounds decoded JSON and YAML, which never contains structs, so struct
// expansion and field naming are library options only (serializer.Config).
type Config struct {
	Serializer SerializerConfig `yaml:"serializer"`
	Text       TextConfig       `yaml:"text"`
	Output     OutputConfig     `yaml:"output"`
	Dev        DevConfig        `yaml:"dev"`
}

// SerializerConfig controls expansion limits
type SerializerConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// TextConfig controls text repair
type TextConfig struct {
	FallbackCharset string `yaml:"fallback_charset"`
}

// OutputConfig controls how the bounded value is written
type OutputConfig struct {
	Format string `yaml:"format"` // json or yaml
	Indent bool   `yaml:"indent"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// Overrides holds values given on the command line. Nil fields were not set.
type Overrides struct {
	MaxDepth *int
	Format   string
	Debug    bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Serializer: SerializerConfig{
			MaxDepth: serializer.DefaultMaxDepth,
		},
		Text: TextConfig{
			FallbackCharset: "",
		},
		Output: OutputConfig{
			Format: "json",
			Indent: true,
		},
		Dev: DevConfig{
			Debug: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".gobound.yml", ".gobound.yaml", "gobound.yml", "gobound.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks option values that would otherwise fail later. Failures
// wrap errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Serializer.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative, got %d", errors.ErrInvalidConfig, c.Serializer.MaxDepth)
	}

	if _, err := textnorm.New(c.Text.FallbackCharset); err != nil {
		return fmt.Errorf("%w: invalid text.fallback_charset: %v", errors.ErrInvalidConfig, err)
	}

	switch c.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("%w: output.format must be 'json' or 'yaml', got '%s'", errors.ErrInvalidConfig, c.Output.Format)
	}

	return nil
}

// SerializerConfig converts the file configuration into serializer options
func (c *Config) SerializerConfig() serializer.Config {
	return serializer.Config{
		MaxDepth:        c.Serializer.MaxDepth,
		FallbackCharset: c.Text.FallbackCharset,
	}
}

// LoadConfigWithCLI loads config with CLI argument precedence. Only overrides
// that were explicitly set replace file values.
func LoadConfigWithCLI(configPath string, override Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if override.MaxDepth != nil {
		cfg.Serializer.MaxDepth = *override.MaxDepth
	}
	if override.Format != "" {
		cfg.Output.Format = override.Format
	}
	if override.Debug {
		cfg.Dev.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
