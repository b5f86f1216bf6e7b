package config

import "os"

// KeyStatus describes one provider credential: whether it is set, where
// it came from, and a display-safe masked form.
type KeyStatus struct {
	Name   string `json:"name"`
	Set    bool   `json:"set"`
	Source string `json:"source"` // "env", "config", or "none"
	Masked string `json:"masked,omitempty"`
}

// KeyStatuses reports the optional provider credentials. Yahoo needs no
// key; Alpha Vantage and NewsAPI are skipped by the wiring when unset,
// so "none" here means a disabled provider, not a broken setup.
func (c *Config) KeyStatuses() []KeyStatus {
	return []KeyStatus{
		keyStatus("Alpha Vantage", c.Providers.AlphaVantageKey, "EQUITYSCOPE_PROVIDERS_ALPHA_VANTAGE_KEY"),
		keyStatus("NewsAPI", c.Providers.NewsAPIKey, "EQUITYSCOPE_PROVIDERS_NEWSAPI_KEY"),
	}
}

func keyStatus(name, value, envVar string) KeyStatus {
	s := KeyStatus{Name: name, Source: "none"}
	if value == "" {
		return s
	}
	s.Set = true
	s.Masked = maskKey(value)
	if os.Getenv(envVar) != "" {
		s.Source = "env"
	} else {
		s.Source = "config"
	}
	return s
}

// maskKey keeps the first and last 3 characters of a credential and
// hides everything else.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
