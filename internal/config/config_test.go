package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFrom_OverridesPolicyKnobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[inputs]
history_path = "frank.xlsx"
growth_rates_as_fraction = true

[pipeline]
excluded_years = []
horizon = 6
uplift = 1.0
fourier_order = 99
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "frank.xlsx", cfg.Inputs.HistoryPath)
	assert.True(t, cfg.Inputs.GrowthRatesAsFraction)
	assert.Empty(t, cfg.Pipeline.ExcludedYears)
	assert.Equal(t, 6, cfg.Pipeline.Horizon)
	assert.InDelta(t, 1.0, cfg.Pipeline.Uplift, 1e-12)
	assert.Equal(t, 3, cfg.Pipeline.FourierOrder, "out-of-range order falls back to default")
	assert.Equal(t, "P&L Type", cfg.Columns.Category, "unset keys keep defaults")
}

func TestLoadFrom_FourierOrderZeroDisablesSeasonality(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "zero.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pipeline]\nfourier_order = 0\n"), 0o600))
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Pipeline.FourierOrder)

	path = filepath.Join(dir, "negative.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pipeline]\nfourier_order = -2\n"), 0o600))
	cfg, err = LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pipeline.FourierOrder)
}

func TestLoadFrom_SheetPerTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[inputs]
history_sheet = "Margins"
future_sheet = "Forecast"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "Margins", cfg.Inputs.HistorySheet)
	assert.Empty(t, cfg.Inputs.GrowthSheet)
	assert.Equal(t, "Forecast", cfg.Inputs.FutureSheet)
}

func TestLoadFrom_RejectsInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pipeline]\nhorizon = 0\nuplift = -1\n"), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.horizon")
	assert.Contains(t, err.Error(), "pipeline.uplift")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Inputs.GrowthPath = "Book1.xlsx"
	cfg.Pipeline.ExcludedYears = []int{2026}

	require.NoError(t, Save(cfg, path))
	require.True(t, Exists(path))

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "Book1.xlsx", got.Inputs.GrowthPath)
	assert.Equal(t, []int{2026}, got.Pipeline.ExcludedYears)
}

func TestCachePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/xdg-cache/marginfc/results.db", cfg.CachePath())

	cfg.Cache.Path = "/var/tmp/custom.db"
	assert.Equal(t, "/var/tmp/custom.db", cfg.CachePath())
}
