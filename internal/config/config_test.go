package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.Weights.RentGrowth)
	assert.Equal(t, 85, cfg.Assumptions.Units)
	assert.Equal(t, 10, cfg.Assumptions.HorizonYears)
	assert.NotEmpty(t, cfg.Sensitivity.RentGrowthDeltas)
	assert.Equal(t, "MARKET_SUMMARY", cfg.Database.Table)
}

func TestLoad(t *testing.T) {
	t.Run("missing yaml file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Weights, cfg.Weights)
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "marketselect.yml")
		require.NoError(t, os.WriteFile(path, []byte(
			"weights:\n  rent_growth: 0.6\n  vacancy: 0.25\n  expense: 0.15\n"+
				"assumptions:\n  acquisition_cost: 9000000\n  units: 60\n  monthly_rent_per_unit: 1100\n"+
				"  ltv: 0.65\n  interest_rate: 0.07\n  loan_term_years: 25\n  horizon_years: 7\n"+
				"  exit_cap_rate: 0.055\n  discount_rate: 0.09\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0.6, cfg.Weights.RentGrowth)
		assert.Equal(t, 60, cfg.Assumptions.Units)
		assert.Equal(t, 7, cfg.Assumptions.HorizonYears)
		// Untouched sections keep their defaults.
		assert.Equal(t, Default().Paths.OutputDir, cfg.Paths.OutputDir)
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "marketselect.yml")
		require.NoError(t, os.WriteFile(path, []byte("weights:\n  rent_growth: 0.6\n"), 0644))
		t.Setenv("MS_WEIGHTS_RENT_GROWTH", "0.7")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0.7, cfg.Weights.RentGrowth)
	})

	t.Run("invalid yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yml")
		require.NoError(t, os.WriteFile(path, []byte("weights: [not a map"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := Default()
		f(cfg)
		return cfg
	}

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"negative weight", mutate(func(c *Config) { c.Weights.Vacancy = -0.1 })},
		{"all-zero weights", mutate(func(c *Config) { c.Weights = WeightsConfig{} })},
		{"zero horizon", mutate(func(c *Config) { c.Assumptions.HorizonYears = 0 })},
		{"ltv of one", mutate(func(c *Config) { c.Assumptions.LTV = 1 })},
		{"negative ltv", mutate(func(c *Config) { c.Assumptions.LTV = -0.2 })},
		{"zero acquisition cost", mutate(func(c *Config) { c.Assumptions.AcquisitionCost = 0 })},
		{"zero units", mutate(func(c *Config) { c.Assumptions.Units = 0 })},
		{"zero exit cap", mutate(func(c *Config) { c.Assumptions.ExitCapRate = 0 })},
		{"bad log format", mutate(func(c *Config) { c.Logging.Format = "xml" })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}
