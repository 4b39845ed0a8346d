// Package config loads and saves marginfc's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all marginfc configuration.
type Config struct {
	Inputs     InputsConfig     `toml:"inputs"`
	Columns    ColumnsConfig    `toml:"columns"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Cache      CacheConfig      `toml:"cache"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// InputsConfig points at the three input tables.
type InputsConfig struct {
	HistoryPath           string `toml:"history_path,omitempty"`
	GrowthPath            string `toml:"growth_path,omitempty"`
	FuturePath            string `toml:"future_path,omitempty"`
	HistorySheet          string `toml:"history_sheet,omitempty"`
	GrowthSheet           string `toml:"growth_sheet,omitempty"`
	FutureSheet           string `toml:"future_sheet,omitempty"`
	GrowthRatesAsFraction bool   `toml:"growth_rates_as_fraction"`
}

// ColumnsConfig maps table headers to fields.
type ColumnsConfig struct {
	Date           string `toml:"date"`
	Category       string `toml:"category"`
	Margin         string `toml:"margin"`
	GrowthRate     string `toml:"growth_rate"`
	MostLikelyRate string `toml:"most_likely_rate"`
	FutureDate     string `toml:"future_date"`
	FutureValue    string `toml:"future_value"`
}

// PipelineConfig holds the business policy and model tuning knobs.
type PipelineConfig struct {
	ExcludedYears      []int   `toml:"excluded_years"`
	Horizon            int     `toml:"horizon"`
	Uplift             float64 `toml:"uplift"`
	MinPoints          int     `toml:"min_points"`
	SeasonalMinPoints  int     `toml:"seasonal_min_points"`
	Changepoints       int     `toml:"changepoints"`
	ChangepointRange   float64 `toml:"changepoint_range"`
	ChangepointPenalty float64 `toml:"changepoint_penalty"`
	FourierOrder       int     `toml:"fourier_order"`
	IntervalWidth      float64 `toml:"interval_width"`
	TargetYear         int     `toml:"target_year"`
	FallbackToAll      bool    `toml:"fallback_to_all"`
}

// CacheConfig controls the pipeline result cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds HTTP adapter settings.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Columns: ColumnsConfig{
			Date:           "Start Date",
			Category:       "P&L Type",
			Margin:         "margin",
			GrowthRate:     "Growth Rate%",
			MostLikelyRate: "Growth Rate most likely",
			FutureDate:     "ds",
			FutureValue:    "yhat",
		},
		Pipeline: PipelineConfig{
			ExcludedYears:      []int{2024, 2025},
			Horizon:            12,
			Uplift:             1.49,
			MinPoints:          2,
			SeasonalMinPoints:  24,
			Changepoints:       5,
			ChangepointRange:   0.8,
			ChangepointPenalty: 0.05,
			FourierOrder:       3,
			IntervalWidth:      0.8,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 15,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "marginfc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "marginfc")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "marginfc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "marginfc")
}

// CachePath returns the configured cache database path, or the XDG default.
func (c Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "results.db")
}

// Load reads the config at the default path.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyDefaults resets tuning knobs that were left zero or out of range.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	p := &c.Pipeline
	if p.SeasonalMinPoints < 1 {
		p.SeasonalMinPoints = d.Pipeline.SeasonalMinPoints
	}
	if p.Changepoints < 0 {
		p.Changepoints = d.Pipeline.Changepoints
	}
	if p.ChangepointRange <= 0 || p.ChangepointRange > 1 {
		p.ChangepointRange = d.Pipeline.ChangepointRange
	}
	if p.ChangepointPenalty < 0 {
		p.ChangepointPenalty = d.Pipeline.ChangepointPenalty
	}
	// Zero disables yearly seasonality.
	if p.FourierOrder < 0 || p.FourierOrder > 6 {
		p.FourierOrder = d.Pipeline.FourierOrder
	}
	if c.Daemon.Addr == "" {
		c.Daemon.Addr = d.Daemon.Addr
	}
	if c.Daemon.IntervalSec < 2 {
		c.Daemon.IntervalSec = d.Daemon.IntervalSec
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	p := c.Pipeline
	var errs []error
	if p.Horizon < 1 {
		errs = append(errs, fmt.Errorf("pipeline.horizon must be positive, got %d", p.Horizon))
	}
	if p.Uplift <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.uplift must be positive, got %g", p.Uplift))
	}
	if p.MinPoints < 1 {
		errs = append(errs, fmt.Errorf("pipeline.min_points must be at least 1, got %d", p.MinPoints))
	}
	if p.IntervalWidth <= 0 || p.IntervalWidth >= 1 {
		errs = append(errs, fmt.Errorf("pipeline.interval_width must be in (0,1), got %g", p.IntervalWidth))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Save writes the config to path.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-chosen path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
