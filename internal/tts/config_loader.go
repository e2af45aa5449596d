package tts

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper overlays every key set in Viper (config file, bound
// flags or TTSBYTES_* environment) on top of base.
func LoadConfigFromViper(base Config) (Config, error) {
	cfg := base

	if viper.IsSet("base_url") {
		cfg.BaseURL = viper.GetString("base_url")
	}
	if viper.IsSet("api_key") {
		cfg.APIKey = viper.GetString("api_key")
	}
	if viper.IsSet("api_version") {
		cfg.APIVersion = viper.GetString("api_version")
	}
	if viper.IsSet("timeout") {
		d, err := parseDuration("timeout")
		if err != nil {
			return cfg, err
		}
		cfg.Timeout = d
	}

	if viper.IsSet("max_retries") {
		cfg.MaxRetries = viper.GetInt("max_retries")
	}
	if viper.IsSet("backoff_factor") {
		d, err := parseDuration("backoff_factor")
		if err != nil {
			return cfg, err
		}
		cfg.BackoffFactor = d
	}
	if viper.IsSet("requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("requests_per_minute")
	}

	if viper.IsSet("model_id") {
		cfg.ModelID = viper.GetString("model_id")
	}
	if viper.IsSet("voice_id") {
		cfg.VoiceID = viper.GetString("voice_id")
	}
	if viper.IsSet("format") {
		cfg.Format = viper.GetString("format")
	}
	if viper.IsSet("language") {
		cfg.Language = viper.GetString("language")
	}

	cache, err := loadCacheConfig(cfg.Cache)
	if err != nil {
		return cfg, err
	}
	cfg.Cache = cache

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadCacheConfig loads cache-specific configuration from Viper.
func loadCacheConfig(cfg CacheConfig) (CacheConfig, error) {
	if viper.IsSet("cache.enabled") {
		cfg.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.compression_level") {
		cfg.CompressionLevel = viper.GetInt("cache.compression_level")
	}
	if viper.IsSet("cache.ttl") {
		d, err := parseDuration("cache.ttl")
		if err != nil {
			return cfg, err
		}
		cfg.TTL = d
	}
	return cfg, nil
}

// parseDuration accepts Go duration strings and bare numbers of seconds.
func parseDuration(key string) (time.Duration, error) {
	raw := viper.GetString(key)
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	if secs := viper.GetFloat64(key); secs > 0 || raw == "0" {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("%w: %s %q is not a duration", ErrInvalidConfig, key, raw)
}

// SetDefaults registers default values in Viper.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("base_url", defaults.BaseURL)
	viper.SetDefault("api_version", defaults.APIVersion)
	viper.SetDefault("timeout", defaults.Timeout.String())
	viper.SetDefault("max_retries", defaults.MaxRetries)
	viper.SetDefault("backoff_factor", defaults.BackoffFactor.String())
	viper.SetDefault("requests_per_minute", defaults.RequestsPerMinute)
	viper.SetDefault("model_id", defaults.ModelID)
	viper.SetDefault("format", defaults.Format)

	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.compression_level", defaults.Cache.CompressionLevel)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL.String())
}
