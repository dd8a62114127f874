package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type HistoryCfg struct {
	DatabasePath string `yaml:"database_path" json:"database_path"` // SQLite file for deletion history; empty disables it
}

type MetricsCfg struct {
	Textfile string `yaml:"textfile" json:"textfile"` // Prometheus textfile written after each run; empty disables it
}

type LoggingCfg struct {
	File         string `yaml:"file" json:"file"`                   // Operational log file; empty keeps the log off disk
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type Config struct {
	Path       string     `yaml:"path" json:"path"`
	Exclude    []string   `yaml:"exclude" json:"exclude"`
	IncludeAll bool       `yaml:"include_all" json:"include_all"`
	History    HistoryCfg `yaml:"history" json:"history"`
	Metrics    MetricsCfg `yaml:"metrics" json:"metrics"`
	Logging    LoggingCfg `yaml:"logging" json:"logging"`
}

var (
	errNegativeRotation = errors.New("logging.rotation_days cannot be negative")
	errInvalidExclude   = errors.New("exclude entries must be plain folder names")
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	// validateAndDefault cannot fail on the zero value
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file is a valid, empty configuration
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = "."
	}

	if c.Logging.RotationDays < 0 {
		return errNegativeRotation
	}
	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	names := make([]string, 0, len(c.Exclude))
	for _, name := range c.Exclude {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := ValidateFolderName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	c.Exclude = names

	c.History.DatabasePath = cleanOptional(c.History.DatabasePath)
	c.Metrics.Textfile = cleanOptional(c.Metrics.Textfile)
	c.Logging.File = cleanOptional(c.Logging.File)

	return nil
}

// ValidateFolderName rejects exclusion entries that could never equal a
// single path segment.
func ValidateFolderName(name string) error {
	if name == "." || name == ".." || strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: %q", errInvalidExclude, name)
	}
	return nil
}

func cleanOptional(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
