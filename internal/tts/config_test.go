package tts

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.MaxRetries != 3 || cfg.BackoffFactor != time.Second {
		t.Errorf("Unexpected retry defaults: %d, %v", cfg.MaxRetries, cfg.BackoffFactor)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"http base url", func(c *Config) { c.BaseURL = "http://localhost:8080" }, nil},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://host" }, ErrInvalidConfig},
		{"no host", func(c *Config) { c.BaseURL = "https://" }, ErrInvalidConfig},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidConfig},
		{"no attempts", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidConfig},
		{"too many attempts", func(c *Config) { c.MaxRetries = 11 }, ErrInvalidConfig},
		{"zero backoff", func(c *Config) { c.BackoffFactor = 0 }, nil},
		{"negative backoff", func(c *Config) { c.BackoffFactor = -time.Second }, ErrInvalidConfig},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, ErrInvalidConfig},
		{"empty model", func(c *Config) { c.ModelID = "" }, ErrInvalidConfig},
		{"unknown format", func(c *Config) { c.Format = "mp3" }, ErrUnsupportedFormat},
		{"deprecated format", func(c *Config) { c.Format = "pcm_22050" }, nil},
		{"language tag", func(c *Config) { c.Language = "pt-BR" }, nil},
		{"bad language", func(c *Config) { c.Language = "not a language" }, ErrInvalidConfig},
		{"bad compression", func(c *Config) { c.Cache.CompressionLevel = 23 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Headers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "secret"

	headers := cfg.Headers()
	if headers["X-API-Key"] != "secret" {
		t.Errorf("X-API-Key = %q", headers["X-API-Key"])
	}
	if headers["Cartesia-Version"] != DefaultAPIVersion {
		t.Errorf("Cartesia-Version = %q", headers["Cartesia-Version"])
	}
	if headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", headers["Content-Type"])
	}
}

func TestConfig_LanguagePtr(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LanguagePtr() != nil {
		t.Error("Unset language should be nil")
	}
	cfg.Language = "de"
	if p := cfg.LanguagePtr(); p == nil || *p != "de" {
		t.Errorf("LanguagePtr() = %v", p)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TTSBYTES_API_KEY", "from-env")
	t.Setenv("TTSBYTES_MAX_RETRIES", "5")
	t.Setenv("TTSBYTES_BACKOFF_FACTOR", "250ms")
	t.Setenv("TTSBYTES_CACHE_ENABLED", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.BackoffFactor != 250*time.Millisecond {
		t.Errorf("BackoffFactor = %v", cfg.BackoffFactor)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache should be enabled")
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.Format != DefaultFormatName {
		t.Errorf("envDefault values not applied: %q %q", cfg.BaseURL, cfg.Format)
	}
	if cfg.Cache.TTL != 168*time.Hour {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
}

func TestLoadConfigFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("api_key", "from-viper")
	viper.Set("timeout", 10)
	viper.Set("backoff_factor", "500ms")
	viper.Set("format", "raw_pcm_s16le_16000")
	viper.Set("language", "es")
	viper.Set("cache.enabled", true)
	viper.Set("cache.ttl", "1h")

	cfg, err := LoadConfigFromViper(DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.APIKey != "from-viper" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.BackoffFactor != 500*time.Millisecond {
		t.Errorf("BackoffFactor = %v", cfg.BackoffFactor)
	}
	if cfg.Format != "raw_pcm_s16le_16000" || cfg.Language != "es" {
		t.Errorf("Format/Language = %q/%q", cfg.Format, cfg.Language)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
}

func TestLoadConfigFromViper_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("max_retries", 0)
	if _, err := LoadConfigFromViper(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	viper.Reset()
	viper.Set("timeout", "soon")
	if _, err := LoadConfigFromViper(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	viper.Reset()
	viper.Set("cache.ttl", "a week")
	if _, err := LoadConfigFromViper(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for cache.ttl, got %v", err)
	}
}
