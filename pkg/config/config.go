package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

type Scraper struct {
	UserAgent   string        `yaml:"user_agent"`
	Proxies     []string      `yaml:"proxies"`
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	Delay       time.Duration `yaml:"delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Buildings struct {
	MinRooms int               `yaml:"min_rooms"`
	Excluded []string          `yaml:"excluded"`
	Aliases  map[string]string `yaml:"aliases"`
}

type Config struct {
	Timezone string `yaml:"timezone"`
	Schedule struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"schedule"`
	Events struct {
		CsvURL string `yaml:"csv_url"`
	} `yaml:"events"`
	Scraper   Scraper   `yaml:"scraper"`
	Buildings Buildings `yaml:"buildings"`
	Style     struct {
		Source string `yaml:"source"`
	} `yaml:"style"`
	Cron struct {
		Courses string `yaml:"courses"`
		Events  string `yaml:"events"`
	} `yaml:"cron"`
}

// Load reads the compiled-in defaults and overlays the YAML file at path on top
// of them. An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ExcludedSet returns the excluded building names as a set.
func (b Buildings) ExcludedSet() map[string]bool {
	set := make(map[string]bool, len(b.Excluded))
	for _, name := range b.Excluded {
		set[name] = true
	}
	return set
}

// LoadEnv loads variables from an env file into the process environment. A
// missing file is not an error; variables already set are left alone.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Getenv returns the value of key or fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
