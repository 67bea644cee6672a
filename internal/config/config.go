// Package config provides configuration management for the analysis application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"stockscan/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CadencePeriods holds the indicator periods for one bar cadence.
type CadencePeriods struct {
	SMAShort   int `mapstructure:"sma_short"`
	SMALong    int `mapstructure:"sma_long"`
	MACDFast   int `mapstructure:"macd_fast"`
	MACDSlow   int `mapstructure:"macd_slow"`
	MACDSignal int `mapstructure:"macd_signal"`
}

// AnalysisConfig holds indicator and scoring parameters.
type AnalysisConfig struct {
	LookbackDays    int     `mapstructure:"lookback_days"`
	ATRPeriod       int     `mapstructure:"atr_period"`
	ADXPeriod       int     `mapstructure:"adx_period"`
	BollingerPeriod int     `mapstructure:"bollinger_period"`
	BollingerK      float64 `mapstructure:"bollinger_k"`
	LevelLookback   int     `mapstructure:"level_lookback"`
	MinRiskReward   float64 `mapstructure:"min_risk_reward"`
	MinScore        int     `mapstructure:"min_score"`
	Benchmark       string  `mapstructure:"benchmark"`
	ReturnDays      int     `mapstructure:"return_days"`

	// Weights of the four directional scores in the composite.
	MomentumWeight   float64 `mapstructure:"momentum_weight"`
	TrendWeight      float64 `mapstructure:"trend_weight"`
	VolatilityWeight float64 `mapstructure:"volatility_weight"`
	RelativeWeight   float64 `mapstructure:"relative_weight"`

	Cadences map[string]CadencePeriods `mapstructure:"cadences"`
}

// ScanConfig holds batch-scan parameters.
type ScanConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockscan"
	}
	return filepath.Join(home, ".config", "stockscan")
}

// PeriodsFor returns the indicator periods for a cadence, falling back to
// the daily defaults when the cadence is not configured.
func (c *AnalysisConfig) PeriodsFor(cadence models.Cadence) CadencePeriods {
	if p, ok := c.Cadences[string(cadence)]; ok {
		return p
	}
	return defaultCadences()[string(models.CadenceDaily)]
}

func defaultCadences() map[string]CadencePeriods {
	// Daily and hourly run the standard 12/26/9; weekly and monthly scale
	// down so a short history still yields a statistically usable MACD.
	daily := CadencePeriods{SMAShort: 10, SMALong: 50, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
	return map[string]CadencePeriods{
		string(models.CadenceFiveMin): daily,
		string(models.CadenceHourly):  daily,
		string(models.CadenceDaily):   daily,
		string(models.CadenceWeekly):  {SMAShort: 8, SMALong: 21, MACDFast: 8, MACDSlow: 16, MACDSignal: 6},
		string(models.CadenceMonthly): {SMAShort: 5, SMALong: 12, MACDFast: 5, MACDSlow: 10, MACDSignal: 3},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.yaml: %w", err)
		}
		// No config file: run on defaults.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("analysis.lookback_days", 60)
	v.SetDefault("analysis.atr_period", 14)
	v.SetDefault("analysis.adx_period", 14)
	v.SetDefault("analysis.bollinger_period", 20)
	v.SetDefault("analysis.bollinger_k", 2.0)
	v.SetDefault("analysis.level_lookback", 50)
	v.SetDefault("analysis.min_risk_reward", 2.0)
	v.SetDefault("analysis.min_score", 60)
	v.SetDefault("analysis.benchmark", "SPY")
	v.SetDefault("analysis.return_days", 20)
	v.SetDefault("analysis.momentum_weight", 0.35)
	v.SetDefault("analysis.trend_weight", 0.25)
	v.SetDefault("analysis.volatility_weight", 0.15)
	v.SetDefault("analysis.relative_weight", 0.25)
	for cadence, periods := range defaultCadences() {
		key := "analysis.cadences." + cadence
		v.SetDefault(key+".sma_short", periods.SMAShort)
		v.SetDefault(key+".sma_long", periods.SMALong)
		v.SetDefault(key+".macd_fast", periods.MACDFast)
		v.SetDefault(key+".macd_slow", periods.MACDSlow)
		v.SetDefault(key+".macd_signal", periods.MACDSignal)
	}
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("storage.db_path", filepath.Join(configDir, "stockscan.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.MinRiskReward <= 0 {
		return fmt.Errorf("min_risk_reward must be positive, got %.2f", c.Analysis.MinRiskReward)
	}
	if c.Analysis.MinScore < 1 || c.Analysis.MinScore > 100 {
		return fmt.Errorf("min_score must be within [1,100], got %d", c.Analysis.MinScore)
	}
	if c.Analysis.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive, got %d", c.Analysis.LookbackDays)
	}
	for cadence, p := range c.Analysis.Cadences {
		if p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 {
			return fmt.Errorf("cadence %s: MACD periods must be positive", cadence)
		}
		if p.MACDFast >= p.MACDSlow {
			return fmt.Errorf("cadence %s: macd_fast must be below macd_slow", cadence)
		}
		if p.SMAShort <= 0 || p.SMALong <= 0 || p.SMAShort >= p.SMALong {
			return fmt.Errorf("cadence %s: sma_short must be positive and below sma_long", cadence)
		}
	}
	totalWeight := c.Analysis.MomentumWeight + c.Analysis.TrendWeight +
		c.Analysis.VolatilityWeight + c.Analysis.RelativeWeight
	if totalWeight <= 0 {
		return fmt.Errorf("score weights must sum to a positive value")
	}
	return nil
}
