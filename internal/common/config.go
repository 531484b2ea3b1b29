package common

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// MinPageDelay is the pacing floor between member pages. It is a scheduling
// contract with the upstream, not a tunable: configured values below it are
// raised to it.
const MinPageDelay = 500 * time.Millisecond

// Config represents the application configuration
type Config struct {
	CDP     CDPConfig     `toml:"cdp"`
	API     APIConfig     `toml:"api"`
	Export  ExportConfig  `toml:"export"`
	Logging LoggingConfig `toml:"logging"`
}

// CDPConfig configures the connection to the running browser's
// remote-debugging control plane.
type CDPConfig struct {
	URL            string        `toml:"url" validate:"required,url"`         // DevTools endpoint, e.g. http://localhost:9222
	ConnectTimeout time.Duration `toml:"connect_timeout" validate:"required"` // Probe/attach timeout
}

// APIConfig configures the GraphQL client.
type APIConfig struct {
	PageSize       int           `toml:"page_size" validate:"gt=0,lte=100"` // Members requested per page
	PageDelay      time.Duration `toml:"page_delay"`                        // Delay between pages, floored at MinPageDelay
	RequestTimeout time.Duration `toml:"request_timeout" validate:"required"`
}

// ExportConfig configures the output artifact.
type ExportConfig struct {
	Output string `toml:"output" validate:"required"` // Output JSON file path
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output" validate:"dive,oneof=stdout console file"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		CDP: CDPConfig{
			URL:            "http://localhost:9222",
			ConnectTimeout: 5 * time.Second,
		},
		API: APIConfig{
			PageSize:       20, // Upstream page size for list member timelines
			PageDelay:      MinPageDelay,
			RequestTimeout: 30 * time.Second,
		},
		Export: ExportConfig{
			Output: "list_export.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// CLI flag overrides are applied afterwards by ApplyFlagOverrides.
// An empty path auto-discovers recenseo.toml in the working directory.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path == "" {
		if _, err := os.Stat("recenseo.toml"); err == nil {
			path = "recenseo.toml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if url := os.Getenv("RECENSEO_CDP_URL"); url != "" {
		config.CDP.URL = url
	}
	if out := os.Getenv("RECENSEO_OUTPUT"); out != "" {
		config.Export.Output = out
	}
	if level := os.Getenv("RECENSEO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if delay := os.Getenv("RECENSEO_PAGE_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.API.PageDelay = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
// Empty values leave the config untouched.
func ApplyFlagOverrides(config *Config, cdpURL, output string, quiet bool) {
	if cdpURL != "" {
		config.CDP.URL = cdpURL
	}
	if output != "" {
		config.Export.Output = output
	}
	if quiet {
		config.Logging.Level = "error"
	}
}

// Validate checks the merged configuration and normalizes the page delay to
// its floor.
func (c *Config) Validate() error {
	if c.API.PageDelay < MinPageDelay {
		c.API.PageDelay = MinPageDelay
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
