package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"marketselect/internal/types"
)

// Config is the complete pipeline configuration. Values are layered: built-in
// defaults, then an optional yaml file, then MS_* environment variables.
type Config struct {
	Weights     WeightsConfig     `yaml:"weights" envconfig:"WEIGHTS"`
	Assumptions types.Assumptions `yaml:"assumptions" envconfig:"ASSUMPTIONS"`
	Sensitivity SensitivityConfig `yaml:"sensitivity" envconfig:"SENSITIVITY"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Database    DatabaseConfig    `yaml:"database" envconfig:"DB"`
}

// WeightsConfig holds the fixed composite-score weights. Vacancy and expense
// sub-scores are already inverted during normalization, so all weights are
// non-negative here.
type WeightsConfig struct {
	RentGrowth float64 `yaml:"rent_growth" envconfig:"RENT_GROWTH"`
	Vacancy    float64 `yaml:"vacancy" envconfig:"VACANCY"`
	Expense    float64 `yaml:"expense" envconfig:"EXPENSE"`
}

// SensitivityConfig defines the perturbation grid around the base assumptions.
type SensitivityConfig struct {
	RentGrowthDeltas []float64 `yaml:"rent_growth_deltas" envconfig:"RENT_GROWTH_DELTAS"`
	ExitCapDeltas    []float64 `yaml:"exit_cap_deltas" envconfig:"EXIT_CAP_DELTAS"`
}

// PathsConfig contains file-system locations for input and report output.
type PathsConfig struct {
	DataFile       string `yaml:"data_file" envconfig:"DATA_FILE"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Shortlist      string `yaml:"shortlist" envconfig:"SHORTLIST"`
	MetroShapefile string `yaml:"metro_shapefile" envconfig:"METRO_SHAPEFILE"`
}

// ServerConfig configures the dashboard JSON API.
type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"` // text or json
}

// DatabaseConfig holds the Oracle connection settings for the -source=db mode.
// Password may be left empty to trigger an interactive prompt.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"HOST"`
	Port           string `yaml:"port" envconfig:"PORT"`
	Service        string `yaml:"service" envconfig:"SERVICE"`
	Username       string `yaml:"username" envconfig:"USERNAME"`
	Password       string `yaml:"password" envconfig:"PASSWORD"`
	WalletLocation string `yaml:"wallet_location" envconfig:"WALLET_LOCATION"`
	Table          string `yaml:"table" envconfig:"TABLE"`
}

// Default returns the built-in configuration: scoring weights favoring rent
// growth, and the 85-unit Class B acquisition scenario used as the baseline
// feasibility case.
func Default() *Config {
	return &Config{
		Weights: WeightsConfig{
			RentGrowth: 0.5,
			Vacancy:    0.3,
			Expense:    0.2,
		},
		Assumptions: types.Assumptions{
			AcquisitionCost:    12750000,
			Units:              85,
			MonthlyRentPerUnit: 1250,
			RentGrowth:         0.03,
			VacancyRate:        0.06,
			ExpenseRatio:       0.40,
			OpExGrowth:         0.025,
			LTV:                0.70,
			InterestRate:       0.065,
			LoanTermYears:      30,
			HorizonYears:       10,
			ExitCapRate:        0.06,
			DiscountRate:       0.08,
		},
		Sensitivity: SensitivityConfig{
			RentGrowthDeltas: []float64{-0.01, -0.005, 0, 0.005, 0.01},
			ExitCapDeltas:    []float64{-0.005, 0, 0.005},
		},
		Paths: PathsConfig{
			DataFile:  "data/City_Level_Market_Summary.csv",
			OutputDir: "out",
			Shortlist: "data/shortlist.csv",
		},
		Server: ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "1521",
			Service: "XE",
			Table:   "MARKET_SUMMARY",
		},
	}
}

// Load builds the configuration: defaults, then the yaml file at path (skipped
// when the file is absent), then MS_* environment variables. A .env file in
// the working directory is read first so its values are visible to envconfig.
func Load(path string) (*Config, error) {
	loadEnvFile(".env")

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Environment wins over the file.
	if err := envconfig.Process("MS", cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	w := c.Weights
	if w.RentGrowth < 0 || w.Vacancy < 0 || w.Expense < 0 {
		return fmt.Errorf("weights must be non-negative (rent_growth=%v vacancy=%v expense=%v)", w.RentGrowth, w.Vacancy, w.Expense)
	}
	if w.RentGrowth+w.Vacancy+w.Expense == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	a := c.Assumptions
	if a.HorizonYears < 1 {
		return fmt.Errorf("horizon_years must be >= 1, got %d", a.HorizonYears)
	}
	if a.LTV < 0 || a.LTV >= 1 {
		return fmt.Errorf("ltv must be in [0,1), got %v", a.LTV)
	}
	if a.AcquisitionCost <= 0 {
		return fmt.Errorf("acquisition_cost must be positive, got %v", a.AcquisitionCost)
	}
	if a.Units <= 0 {
		return fmt.Errorf("units must be positive, got %d", a.Units)
	}
	if a.ExitCapRate <= 0 {
		return fmt.Errorf("exit_cap_rate must be positive, got %v", a.ExitCapRate)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// loadEnvFile reads KEY=VALUE pairs from a .env file into the process
// environment. Existing variables are never overwritten.
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return // no .env is fine
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
