// Package config handles application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/your-org/portfolio-backtester/internal/engine"
)

// Config defines the structure for all application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	DataDir    string           `yaml:"data_dir"`
	Database   DatabaseConfig   `yaml:"database"`
	DBWriter   DBWriterConfig   `yaml:"dbwriter"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	MonteCarlo MonteCarloConfig `yaml:"montecarlo"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
}

// DatabaseConfig holds the TimescaleDB connection settings. Credentials are
// loaded from the environment, never from the YAML file.
type DatabaseConfig struct {
	Enabled  FlexBool `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     string   `yaml:"port"`
	Name     string   `yaml:"name"`
	User     string   `yaml:"-"`
	Password string   `yaml:"-"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// DBWriterConfig tunes the batch result writer.
type DBWriterConfig struct {
	BatchSize            int `yaml:"batch_size"`
	WriteIntervalSeconds int `yaml:"write_interval_seconds"`
}

// BacktestConfig holds the simulation parameters for one run.
type BacktestConfig struct {
	Strategy       string             `yaml:"strategy"`
	Params         map[string]float64 `yaml:"params"`
	InitialCapital float64            `yaml:"initial_capital"`
	MaxPositions   int                `yaml:"max_positions"`
	SlotFraction   float64            `yaml:"slot_fraction"`
	TxnCostPct     float64            `yaml:"txn_cost_pct"`

	StopLossPct     float64 `yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	TrailingStopPct float64 `yaml:"trailing_stop_pct"`
	MaxHoldDays     int     `yaml:"max_hold_days"`
	CooldownDays    int     `yaml:"cooldown_days"`
	MinStrength     float64 `yaml:"min_strength"`

	MaxDrawdownPct       float64 `yaml:"max_drawdown_pct"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
	BreakerCooldownDays  int     `yaml:"breaker_cooldown_days"`

	UseRegimeFilter  FlexBool `yaml:"use_regime_filter"`
	RegimeFastPeriod int      `yaml:"regime_fast_period"`
	RegimeSlowPeriod int      `yaml:"regime_slow_period"`
	BenchmarkSymbol  string   `yaml:"benchmark_symbol"`

	RiskFreeRate float64 `yaml:"risk_free_rate"`
}

// MonteCarloConfig tunes the bootstrap resampler.
type MonteCarloConfig struct {
	Enabled      FlexBool `yaml:"enabled"`
	Simulations  int      `yaml:"simulations"`
	Confidence   float64  `yaml:"confidence"`
	LargeLossPct float64  `yaml:"large_loss_pct"`
	Seed         int64    `yaml:"seed"`
}

// OptimizerConfig describes a parameter sweep. Params maps a strategy name
// to its grid of candidate values per parameter.
type OptimizerConfig struct {
	Strategies []string                        `yaml:"strategies"`
	Params     map[string]map[string][]float64 `yaml:"params"`
	SampleSize int                             `yaml:"sample_size"`
	Workers    int                             `yaml:"workers"`
	Metric     string                          `yaml:"metric"`
	Seed       int64                           `yaml:"seed"`
}

// EngineConfig converts the backtest section into the engine's config.
func (c *Config) EngineConfig() engine.Config {
	b := c.Backtest
	return engine.Config{
		InitialCapital:       b.InitialCapital,
		MaxPositions:         b.MaxPositions,
		SlotFraction:         b.SlotFraction,
		TxnCostPct:           b.TxnCostPct,
		StopLossPct:          b.StopLossPct,
		TakeProfitPct:        b.TakeProfitPct,
		TrailingStopPct:      b.TrailingStopPct,
		MaxHoldDays:          b.MaxHoldDays,
		CooldownDays:         b.CooldownDays,
		MinStrength:          b.MinStrength,
		MaxDrawdownPct:       b.MaxDrawdownPct,
		MaxConsecutiveLosses: b.MaxConsecutiveLosses,
		BreakerCooldownDays:  b.BreakerCooldownDays,
		UseRegimeFilter:      bool(b.UseRegimeFilter),
		RegimeFastPeriod:     b.RegimeFastPeriod,
		RegimeSlowPeriod:     b.RegimeSlowPeriod,
	}
}

// LoadConfig loads configuration from the specified YAML file path
// and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		// Default values
		LogLevel: "info",
		DataDir:  "data",
		DBWriter: DBWriterConfig{BatchSize: 500, WriteIntervalSeconds: 1},
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, cfg)
	if err != nil {
		return nil, err
	}

	// Load credentials and overrides from environment variables
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		cfg.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Name = dbName
	}

	if cfg.Backtest.Strategy == "" {
		cfg.Backtest.Strategy = "rsi_reversion"
	}
	return cfg, nil
}
