// Package config handles configuration loading for EquityScope.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Providers  ProvidersConfig  `mapstructure:"providers"  yaml:"providers"`
	Aggregator AggregatorConfig `mapstructure:"aggregator" yaml:"aggregator"`
	Scoring    ScoringConfig    `mapstructure:"scoring"    yaml:"scoring"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// ProvidersConfig holds external data provider credentials and endpoints.
type ProvidersConfig struct {
	AlphaVantageKey     string `mapstructure:"alpha_vantage_key"      yaml:"alpha_vantage_key"`
	AlphaVantageBaseURL string `mapstructure:"alpha_vantage_base_url" yaml:"alpha_vantage_base_url"`
	NewsAPIKey          string `mapstructure:"newsapi_key"            yaml:"newsapi_key"`
	NewsAPIBaseURL      string `mapstructure:"newsapi_base_url"       yaml:"newsapi_base_url"`
	YahooBaseURL        string `mapstructure:"yahoo_base_url"         yaml:"yahoo_base_url"`
	NewsLimit           int    `mapstructure:"news_limit"             yaml:"news_limit"`
}

// AggregatorConfig holds fetch/merge behaviour: cache TTL, retry bounds,
// and per-provider timeouts.
type AggregatorConfig struct {
	CacheTTLSec        int `mapstructure:"cache_ttl_sec"        yaml:"cache_ttl_sec"`
	MaxRetries         int `mapstructure:"max_retries"          yaml:"max_retries"`
	RetryBaseMS        int `mapstructure:"retry_base_ms"        yaml:"retry_base_ms"`
	ProviderTimeoutSec int `mapstructure:"provider_timeout_sec" yaml:"provider_timeout_sec"`
	RequestTimeoutSec  int `mapstructure:"request_timeout_sec"  yaml:"request_timeout_sec"`
}

// CacheTTL returns the snapshot cache TTL as a duration.
func (a AggregatorConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSec) * time.Second
}

// RetryBase returns the base delay for retry backoff.
func (a AggregatorConfig) RetryBase() time.Duration {
	return time.Duration(a.RetryBaseMS) * time.Millisecond
}

// ProviderTimeout returns the per-provider call timeout.
func (a AggregatorConfig) ProviderTimeout() time.Duration {
	return time.Duration(a.ProviderTimeoutSec) * time.Second
}

// RequestTimeout returns the overall aggregation request timeout.
func (a AggregatorConfig) RequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeoutSec) * time.Second
}

// ScoringConfig holds the category weights, rating thresholds, and the
// target-price mapping. These are tunable defaults, not constants baked
// into the scoring algorithm.
type ScoringConfig struct {
	WeightProfitability float64 `mapstructure:"weight_profitability" yaml:"weight_profitability"`
	WeightValuation     float64 `mapstructure:"weight_valuation"     yaml:"weight_valuation"`
	WeightSolvency      float64 `mapstructure:"weight_solvency"      yaml:"weight_solvency"`
	WeightMomentum      float64 `mapstructure:"weight_momentum"      yaml:"weight_momentum"`
	WeightSentiment     float64 `mapstructure:"weight_sentiment"     yaml:"weight_sentiment"`

	BuyThreshold  float64 `mapstructure:"buy_threshold"  yaml:"buy_threshold"`
	SellThreshold float64 `mapstructure:"sell_threshold" yaml:"sell_threshold"`

	// MaxExpectedReturn bounds the target-price mapping: a composite score
	// of +1 maps to price*(1+MaxExpectedReturn), -1 to price*(1-MaxExpectedReturn).
	MaxExpectedReturn float64 `mapstructure:"max_expected_return" yaml:"max_expected_return"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.equityscope/config.yaml (home directory)
//  3. /etc/equityscope/config.yaml (system)
//
// Environment variables override config file values.
// Format: EQUITYSCOPE_<SECTION>_<KEY>, e.g., EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".equityscope"))
	v.AddConfigPath("/etc/equityscope")

	v.SetEnvPrefix("EQUITYSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("EQUITYSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Default returns the built-in defaults without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("providers.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.alpha_vantage_base_url", "https://www.alphavantage.co")
	v.SetDefault("providers.newsapi_base_url", "https://newsapi.org")
	v.SetDefault("providers.news_limit", 20)

	// Aggregator defaults
	v.SetDefault("aggregator.cache_ttl_sec", 120) // 2 minutes
	v.SetDefault("aggregator.max_retries", 3)
	v.SetDefault("aggregator.retry_base_ms", 250)
	v.SetDefault("aggregator.provider_timeout_sec", 10)
	v.SetDefault("aggregator.request_timeout_sec", 25)

	// Scoring defaults. Fundamental categories dominate; momentum and
	// sentiment are secondary signals.
	v.SetDefault("scoring.weight_profitability", 0.35)
	v.SetDefault("scoring.weight_valuation", 0.20)
	v.SetDefault("scoring.weight_solvency", 0.20)
	v.SetDefault("scoring.weight_momentum", 0.15)
	v.SetDefault("scoring.weight_sentiment", 0.10)
	v.SetDefault("scoring.buy_threshold", 0.25)
	v.SetDefault("scoring.sell_threshold", -0.25)
	v.SetDefault("scoring.max_expected_return", 0.30)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY"); key != "" {
		cfg.Providers.AlphaVantageKey = key
	}
	if key := os.Getenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY"); key != "" {
		cfg.Providers.NewsAPIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
