package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	envVars := []string{
		"EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY", "EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Provider defaults
	if cfg.Providers.YahooBaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("Providers.YahooBaseURL: got %q", cfg.Providers.YahooBaseURL)
	}
	if cfg.Providers.AlphaVantageBaseURL != "https://www.alphavantage.co" {
		t.Errorf("Providers.AlphaVantageBaseURL: got %q", cfg.Providers.AlphaVantageBaseURL)
	}
	if cfg.Providers.NewsAPIBaseURL != "https://newsapi.org" {
		t.Errorf("Providers.NewsAPIBaseURL: got %q", cfg.Providers.NewsAPIBaseURL)
	}
	if cfg.Providers.NewsLimit != 20 {
		t.Errorf("Providers.NewsLimit: got %d, want 20", cfg.Providers.NewsLimit)
	}

	// Aggregator defaults
	if cfg.Aggregator.CacheTTLSec != 120 {
		t.Errorf("Aggregator.CacheTTLSec: got %d, want 120", cfg.Aggregator.CacheTTLSec)
	}
	if cfg.Aggregator.MaxRetries != 3 {
		t.Errorf("Aggregator.MaxRetries: got %d, want 3", cfg.Aggregator.MaxRetries)
	}
	if cfg.Aggregator.ProviderTimeoutSec != 10 {
		t.Errorf("Aggregator.ProviderTimeoutSec: got %d, want 10", cfg.Aggregator.ProviderTimeoutSec)
	}
	if cfg.Aggregator.RequestTimeoutSec != 25 {
		t.Errorf("Aggregator.RequestTimeoutSec: got %d, want 25", cfg.Aggregator.RequestTimeoutSec)
	}

	// Scoring defaults
	if cfg.Scoring.WeightProfitability != 0.35 {
		t.Errorf("Scoring.WeightProfitability: got %f, want 0.35", cfg.Scoring.WeightProfitability)
	}
	if cfg.Scoring.WeightSentiment != 0.10 {
		t.Errorf("Scoring.WeightSentiment: got %f, want 0.10", cfg.Scoring.WeightSentiment)
	}
	if cfg.Scoring.BuyThreshold != 0.25 {
		t.Errorf("Scoring.BuyThreshold: got %f, want 0.25", cfg.Scoring.BuyThreshold)
	}
	if cfg.Scoring.SellThreshold != -0.25 {
		t.Errorf("Scoring.SellThreshold: got %f, want -0.25", cfg.Scoring.SellThreshold)
	}
	if cfg.Scoring.MaxExpectedReturn != 0.30 {
		t.Errorf("Scoring.MaxExpectedReturn: got %f, want 0.30", cfg.Scoring.MaxExpectedReturn)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestDurationHelpers(t *testing.T) {
	a := AggregatorConfig{
		CacheTTLSec:        90,
		RetryBaseMS:        500,
		ProviderTimeoutSec: 7,
		RequestTimeoutSec:  20,
	}
	if a.CacheTTL() != 90*time.Second {
		t.Errorf("CacheTTL: got %s", a.CacheTTL())
	}
	if a.RetryBase() != 500*time.Millisecond {
		t.Errorf("RetryBase: got %s", a.RetryBase())
	}
	if a.ProviderTimeout() != 7*time.Second {
		t.Errorf("ProviderTimeout: got %s", a.ProviderTimeout())
	}
	if a.RequestTimeout() != 20*time.Second {
		t.Errorf("RequestTimeout: got %s", a.RequestTimeout())
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
providers:
  alpha_vantage_key: "test_av_key_1234567890"
  news_limit: 10
aggregator:
  cache_ttl_sec: 60
  max_retries: 5
scoring:
  buy_threshold: 0.30
  sell_threshold: -0.30
  max_expected_return: 0.25
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY")
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Providers.AlphaVantageKey != "test_av_key_1234567890" {
		t.Errorf("Providers.AlphaVantageKey: got %q", cfg.Providers.AlphaVantageKey)
	}
	if cfg.Providers.NewsLimit != 10 {
		t.Errorf("Providers.NewsLimit: got %d, want 10", cfg.Providers.NewsLimit)
	}
	if cfg.Aggregator.CacheTTLSec != 60 {
		t.Errorf("Aggregator.CacheTTLSec: got %d, want 60", cfg.Aggregator.CacheTTLSec)
	}
	if cfg.Aggregator.MaxRetries != 5 {
		t.Errorf("Aggregator.MaxRetries: got %d, want 5", cfg.Aggregator.MaxRetries)
	}
	if cfg.Scoring.BuyThreshold != 0.30 {
		t.Errorf("Scoring.BuyThreshold: got %f, want 0.30", cfg.Scoring.BuyThreshold)
	}
	if cfg.Scoring.MaxExpectedReturn != 0.25 {
		t.Errorf("Scoring.MaxExpectedReturn: got %f, want 0.25", cfg.Scoring.MaxExpectedReturn)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}

	// Unspecified keys keep their defaults
	if cfg.Providers.YahooBaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("Providers.YahooBaseURL should keep default, got %q", cfg.Providers.YahooBaseURL)
	}
	if cfg.Scoring.WeightProfitability != 0.35 {
		t.Errorf("Scoring.WeightProfitability should keep default, got %f", cfg.Scoring.WeightProfitability)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Default ──

func TestDefaultMatchesLoad(t *testing.T) {
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY")
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY")

	d := Default()
	if d.Aggregator.CacheTTLSec != 120 {
		t.Errorf("Default Aggregator.CacheTTLSec: got %d, want 120", d.Aggregator.CacheTTLSec)
	}
	if d.Scoring.WeightProfitability+d.Scoring.WeightValuation+d.Scoring.WeightSolvency+
		d.Scoring.WeightMomentum+d.Scoring.WeightSentiment != 1.0 {
		t.Error("default category weights should sum to 1.0")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	cfg := &Config{}

	os.Setenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY", "av-env-key-123456")
	os.Setenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY", "news-env-key-789")
	defer func() {
		os.Unsetenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY")
		os.Unsetenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY")
	}()

	overrideFromEnv(cfg)

	if cfg.Providers.AlphaVantageKey != "av-env-key-123456" {
		t.Errorf("AlphaVantageKey: got %q", cfg.Providers.AlphaVantageKey)
	}
	if cfg.Providers.NewsAPIKey != "news-env-key-789" {
		t.Errorf("NewsAPIKey: got %q", cfg.Providers.NewsAPIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY")
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY")

	cfg := &Config{
		Providers: ProvidersConfig{AlphaVantageKey: "from-config"},
	}
	overrideFromEnv(cfg)

	if cfg.Providers.AlphaVantageKey != "from-config" {
		t.Errorf("AlphaVantageKey should stay as 'from-config' when env is unset, got %q", cfg.Providers.AlphaVantageKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"av-abcdef1234567890xyz", "av-...xyz"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── KeyStatuses / keyStatus ──

func TestKeyStatusesAllEmpty(t *testing.T) {
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY")
	os.Unsetenv("EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY")

	cfg := &Config{}
	statuses := cfg.KeyStatuses()

	if len(statuses) != 2 {
		t.Fatalf("KeyStatuses: got %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.Set {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != "none" {
			t.Errorf("Key %q source: got %q, want none", s.Name, s.Source)
		}
	}
}

func TestKeyStatusSourceDetection(t *testing.T) {
	os.Unsetenv("TEST_VAR")
	s := keyStatus("Test", "", "TEST_VAR")
	if s.Source != "none" || s.Set {
		t.Errorf("empty value: got source %q, set %v", s.Source, s.Set)
	}

	s = keyStatus("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != "config" || !s.Set {
		t.Errorf("config value: got source %q, set %v", s.Source, s.Set)
	}

	os.Setenv("TEST_VAR", "env-value-long-enough")
	defer os.Unsetenv("TEST_VAR")
	s = keyStatus("Test", "env-value-long-enough", "TEST_VAR")
	if s.Source != "env" {
		t.Errorf("env value: got source %q, want env", s.Source)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
