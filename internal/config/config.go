// Package config loads bubblechart.yaml and applies BUBBLECHART_*
// environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/widget"
)

// FileName is the config file looked up in the project directory.
const FileName = "bubblechart.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BUBBLECHART_"

// Config is the tooling and widget configuration.
type Config struct {
	Layout  layout.Settings `yaml:"layout" env:",prefix=LAYOUT_"`
	Timing  widget.Timing   `yaml:"timing" env:",prefix=TIMING_"`
	Dev     DevConfig       `yaml:"dev" env:",prefix=DEV_"`
	Build   BuildConfig     `yaml:"build" env:",prefix=BUILD_"`
	Verbose bool            `yaml:"verbose" env:"VERBOSE"`
}

// DevConfig configures the development server.
type DevConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
	Open bool   `yaml:"open" env:"OPEN"`

	// Static is the directory served at the root, holding the host and
	// widget pages.
	Static string `yaml:"static" env:"STATIC"`

	// Watch lists directories whose Go sources trigger a rebuild.
	Watch []string `yaml:"watch" env:"WATCH"`

	// Dataset is the YAML inventory extract behind the preview page.
	Dataset string `yaml:"dataset" env:"DATASET"`
}

// BuildConfig configures the wasm build.
type BuildConfig struct {
	Package   string `yaml:"package" env:"PACKAGE"`
	Output    string `yaml:"output" env:"OUTPUT"`
	CacheDir  string `yaml:"cache_dir" env:"CACHE_DIR"`
	MaxSizeMB int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Layout: layout.DefaultSettings(),
		Timing: widget.DefaultTiming(),
		Dev: DevConfig{
			Host:    "localhost",
			Port:    8080,
			Static:  "public",
			Watch:   []string{"pkg", "app"},
			Dataset: "data/inventory.yaml",
		},
		Build: BuildConfig{
			Package:   "./app/widget",
			Output:    "public/widget.wasm",
			CacheDir:  ".bubblechart/cache",
			MaxSizeMB: 64,
		},
	}
}

// Load reads FileName from dir, falling back to defaults when the file is
// absent, then applies environment overrides.
func Load(ctx context.Context, dir string) (*Config, error) {
	return LoadWith(ctx, dir, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment source.
func LoadWith(ctx context.Context, dir string, env envconfig.Lookuper) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		applyDefaults(&file)
		cfg = &file
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, env),
		DefaultOverwrite: true,
	}); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as FileName in dir.
func Save(cfg *Config, dir string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// applyDefaults fills missing values.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	cfg.Layout = cfg.Layout.WithDefaults()
	cfg.Timing = cfg.Timing.WithDefaults()

	if cfg.Dev.Host == "" {
		cfg.Dev.Host = defaults.Dev.Host
	}
	if cfg.Dev.Port == 0 {
		cfg.Dev.Port = defaults.Dev.Port
	}
	if cfg.Dev.Static == "" {
		cfg.Dev.Static = defaults.Dev.Static
	}
	if len(cfg.Dev.Watch) == 0 {
		cfg.Dev.Watch = defaults.Dev.Watch
	}
	if cfg.Dev.Dataset == "" {
		cfg.Dev.Dataset = defaults.Dev.Dataset
	}

	if cfg.Build.Package == "" {
		cfg.Build.Package = defaults.Build.Package
	}
	if cfg.Build.Output == "" {
		cfg.Build.Output = defaults.Build.Output
	}
	if cfg.Build.CacheDir == "" {
		cfg.Build.CacheDir = defaults.Build.CacheDir
	}
	if cfg.Build.MaxSizeMB == 0 {
		cfg.Build.MaxSizeMB = defaults.Build.MaxSizeMB
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Dev.Port < 1 || c.Dev.Port > 65535 {
		return fmt.Errorf("dev.port %d out of range", c.Dev.Port)
	}
	if c.Build.MaxSizeMB < 0 {
		return fmt.Errorf("build.max_size_mb must not be negative")
	}
	if c.Layout.MinChartWrapperHeight < c.Layout.MinChartCanvasHeight {
		return fmt.Errorf("layout.min_chart_wrapper_height (%v) is below min_chart_canvas_height (%v)",
			c.Layout.MinChartWrapperHeight, c.Layout.MinChartCanvasHeight)
	}
	return nil
}

// Addr is the dev server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Dev.Host, c.Dev.Port)
}
