package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Entries are the entry-point module specifiers, relative to Root.
	Entries []string `toml:"entries"`
	// Root is the directory bare and entry specifiers resolve against.
	Root string `toml:"root"`
	// Exclude lists specifier glob patterns stubbed out of the graph.
	Exclude []string `toml:"exclude"`
	// IncludeAll also documents non-exported declarations.
	IncludeAll bool `toml:"include_all"`

	Loader  Loader  `toml:"loader"`
	Watch   Watch   `toml:"watch"`
	Output  Output  `toml:"output"`
	History History `toml:"history"`
	Tracing Tracing `toml:"tracing"`
}

type Loader struct {
	// RatePerSecond caps loader reads; zero disables limiting.
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Output struct {
	JSON string `toml:"json"`
}

type History struct {
	Path string `toml:"path"`
}

type Tracing struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if len(cfg.Entries) == 0 {
		return fmt.Errorf("config: at least one entry specifier is required")
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Loader.Burst == 0 {
		cfg.Loader.Burst = 64
	}
	return nil
}

// Default builds a config for CLI invocations without a config file.
func Default(entries []string, root string) (*Config, error) {
	cfg := &Config{Entries: entries, Root: root}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}
