// Package config provides configuration management for the Alpha Lab backtesting engine.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Backtest  BacktestConfig  `mapstructure:"backtest" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration. Persistence is
// optional; an empty host disables the run repository.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// Enabled reports whether a database connection is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DataConfig configures the price-panel datasource
type DataConfig struct {
	PricesPath      string  `mapstructure:"prices_path"`
	SignalsPath     string  `mapstructure:"signals_path"`
	PricesURL       string  `mapstructure:"prices_url" validate:"omitempty,url"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"omitempty,gt=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"omitempty,gt=0"`
	MaxRetries      int     `mapstructure:"max_retries" validate:"omitempty,gte=0"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	CostsPath         string  `mapstructure:"costs_path" validate:"required"`
	ConstraintsPath   string  `mapstructure:"constraints_path" validate:"required"`
	MaxLeverage       float64 `mapstructure:"max_leverage" validate:"required,gt=0"`
	MaxSinglePosition float64 `mapstructure:"max_single_position" validate:"required,gt=0,lte=1"`
	RiskFreeRate      float64 `mapstructure:"risk_free_rate" validate:"gte=0"`
	Workers           int     `mapstructure:"workers" validate:"omitempty,gt=0"`
	OutputPath        string  `mapstructure:"output_path"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// SchedulerConfig represents the periodic research-loop configuration
type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RefreshCron    string `mapstructure:"refresh_cron"`
	TimeoutMinutes int    `mapstructure:"timeout_minutes" validate:"omitempty,gt=0"`
}

// CostsConfig models the trading-cost assumptions file.
type CostsConfig struct {
	Slippage SlippageConfig `mapstructure:"slippage"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Borrow   BorrowConfig   `mapstructure:"borrow"`
}

// SlippageConfig holds per-trade slippage assumptions
type SlippageConfig struct {
	BpsPerTrade float64 `mapstructure:"bps_per_trade" validate:"gte=0"`
}

// FeesConfig holds commission assumptions
type FeesConfig struct {
	CommissionPerTrade float64 `mapstructure:"commission_per_trade" validate:"gte=0"`
}

// BorrowConfig holds short-borrow cost assumptions
type BorrowConfig struct {
	BpsAnnual float64 `mapstructure:"bps_annual" validate:"gte=0"`
}

// ConstraintsConfig models the validation-constraints file consumed by the
// split generator and the validator.
type ConstraintsConfig struct {
	WalkForward      WalkForwardConfig `mapstructure:"walk_forward"`
	SampleSize       SampleSizeConfig  `mapstructure:"sample_size"`
	LeakageDetection LeakageConfig     `mapstructure:"leakage_detection"`
	Stability        StabilityConfig   `mapstructure:"stability"`
	RegimeRobustness RegimeConfig      `mapstructure:"regime_robustness"`
	Turnover         TurnoverConfig    `mapstructure:"turnover"`
	Targets          TargetsConfig     `mapstructure:"targets"`
}

// WalkForwardConfig controls split geometry
type WalkForwardConfig struct {
	NSplits      int `mapstructure:"n_splits" validate:"gt=0"`
	MinTrainDays int `mapstructure:"min_train_days" validate:"gt=0"`
	MinTestDays  int `mapstructure:"min_test_days" validate:"gt=0"`
	PurgeGapDays int `mapstructure:"purge_gap_days" validate:"gte=0"`
}

// SampleSizeConfig sets history and breadth floors
type SampleSizeConfig struct {
	MinHistoryDays int `mapstructure:"min_history_days" validate:"gt=0"`
	MinTickers     int `mapstructure:"min_tickers" validate:"gt=0"`
}

// LeakageConfig controls the future-correlation check
type LeakageConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	MaxFutureCorrelation float64 `mapstructure:"max_future_correlation" validate:"gte=0"`
}

// StabilityConfig controls the rolling-Sharpe collapse and rolling-IC checks
type StabilityConfig struct {
	RollingPeriodDays       int     `mapstructure:"rolling_period_days" validate:"gt=0"`
	MinRollingSharpePeriods int     `mapstructure:"min_rolling_sharpe_periods" validate:"gt=0"`
	MaxSharpeDrawdownPct    float64 `mapstructure:"max_sharpe_drawdown_pct" validate:"gt=0"`
	MinRollingIC            float64 `mapstructure:"min_rolling_ic"`
}

// RegimeConfig controls the regime-robustness check
type RegimeConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	RequiredRegimes  []string `mapstructure:"required_regimes"`
	MinRegimeSamples int      `mapstructure:"min_regime_samples" validate:"gt=0"`
	MinRegimeSharpe  float64  `mapstructure:"min_regime_sharpe"`
}

// TurnoverConfig caps monthly turnover
type TurnoverConfig struct {
	MaxMonthlyTurnoverPct float64 `mapstructure:"max_monthly_turnover_pct" validate:"gt=0"`
}

// TargetsConfig holds the validator's target thresholds. MaxMaxDD is a
// magnitude; the validator compares it against |max drawdown|.
type TargetsConfig struct {
	MinSharpe float64 `mapstructure:"min_sharpe"`
	MaxMaxDD  float64 `mapstructure:"max_maxdd" validate:"gt=0"`
	MinAvgIC  float64 `mapstructure:"min_avg_ic"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DefaultConstraints returns the standard constraint set, used when a
// constraints file omits keys.
func DefaultConstraints() ConstraintsConfig {
	return ConstraintsConfig{
		WalkForward: WalkForwardConfig{
			NSplits:      5,
			MinTrainDays: 252,
			MinTestDays:  63,
			PurgeGapDays: 21,
		},
		SampleSize: SampleSizeConfig{
			MinHistoryDays: 800,
			MinTickers:     50,
		},
		LeakageDetection: LeakageConfig{
			Enabled:              true,
			MaxFutureCorrelation: 0.1,
		},
		Stability: StabilityConfig{
			RollingPeriodDays:       252,
			MinRollingSharpePeriods: 4,
			MaxSharpeDrawdownPct:    50.0,
			MinRollingIC:            0.03,
		},
		RegimeRobustness: RegimeConfig{
			Enabled:          true,
			RequiredRegimes:  []string{"high_vol", "low_vol", "bull", "bear"},
			MinRegimeSamples: 63,
			MinRegimeSharpe:  0.5,
		},
		Turnover: TurnoverConfig{
			MaxMonthlyTurnoverPct: 250.0,
		},
		Targets: TargetsConfig{
			MinSharpe: 1.0,
			MaxMaxDD:  0.35,
			MinAvgIC:  0.05,
		},
	}
}

// DefaultCosts returns the standard trading-cost assumptions.
func DefaultCosts() CostsConfig {
	return CostsConfig{
		Slippage: SlippageConfig{BpsPerTrade: 5.0},
		Fees:     FeesConfig{CommissionPerTrade: 1.0},
		Borrow:   BorrowConfig{BpsAnnual: 50.0},
	}
}
