package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stephenfire/go-xlbook"
)

const (
	converterNative  = "native"
	converterSoffice = "soffice"
)

// Config is the tool configuration, read from a TOML file and then
// overridden by command line flags.
type Config struct {
	Verbose       bool          `toml:"verbose"`
	TempDir       string        `toml:"temp_dir"`
	Converter     string        `toml:"converter"`
	DetectCharset bool          `toml:"detect_charset"`
	Soffice       SofficeConfig `toml:"soffice"`
}

type SofficeConfig struct {
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		Converter: converterNative,
		Soffice: SofficeConfig{
			Path:           xlbook.DefaultSofficePath,
			TimeoutSeconds: int(xlbook.DefaultSofficeTimeout / time.Second),
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Converter {
	case converterNative, converterSoffice:
	default:
		return fmt.Errorf("invalid converter %q (must be %s or %s)", c.Converter, converterNative, converterSoffice)
	}
	if c.Soffice.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid soffice timeout %d", c.Soffice.TimeoutSeconds)
	}
	return nil
}
