package tts

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Defaults used by the bytes endpoint client.
const (
	DefaultBaseURL       = "https://api.cartesia.ai"
	DefaultAPIVersion    = "2024-06-10"
	DefaultModelID       = "sonic-english"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultBackoffFactor = time.Second
)

// Config contains all client and CLI options.
type Config struct {
	// Service settings
	BaseURL    string        `yaml:"base_url" env:"TTSBYTES_BASE_URL" envDefault:"https://api.cartesia.ai"`
	APIKey     string        `yaml:"api_key" env:"TTSBYTES_API_KEY"`
	APIVersion string        `yaml:"api_version" env:"TTSBYTES_API_VERSION" envDefault:"2024-06-10"`
	Timeout    time.Duration `yaml:"timeout" env:"TTSBYTES_TIMEOUT" envDefault:"30s"`

	// Retry settings
	MaxRetries    int           `yaml:"max_retries" env:"TTSBYTES_MAX_RETRIES" envDefault:"3"`
	BackoffFactor time.Duration `yaml:"backoff_factor" env:"TTSBYTES_BACKOFF_FACTOR" envDefault:"1s"`

	// Requests per minute, 0 disables client-side limiting
	RequestsPerMinute int `yaml:"requests_per_minute" env:"TTSBYTES_REQUESTS_PER_MINUTE" envDefault:"0"`

	// Request defaults
	ModelID  string `yaml:"model_id" env:"TTSBYTES_MODEL_ID" envDefault:"sonic-english"`
	VoiceID  string `yaml:"voice_id" env:"TTSBYTES_VOICE_ID"`
	Format   string `yaml:"format" env:"TTSBYTES_FORMAT" envDefault:"raw_pcm_f32le_44100"`
	Language string `yaml:"language" env:"TTSBYTES_LANGUAGE"`

	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig controls the CLI's on-disk audio cache.
type CacheConfig struct {
	Enabled          bool          `yaml:"enabled" env:"TTSBYTES_CACHE_ENABLED" envDefault:"false"`
	Dir              string        `yaml:"dir" env:"TTSBYTES_CACHE_DIR"`
	CompressionLevel int           `yaml:"compression_level" env:"TTSBYTES_CACHE_COMPRESSION_LEVEL" envDefault:"3"`
	TTL              time.Duration `yaml:"ttl" env:"TTSBYTES_CACHE_TTL" envDefault:"168h"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		APIVersion:    DefaultAPIVersion,
		Timeout:       DefaultTimeout,
		MaxRetries:    DefaultMaxRetries,
		BackoffFactor: DefaultBackoffFactor,
		ModelID:       DefaultModelID,
		Format:        DefaultFormatName,
		Cache: CacheConfig{
			CompressionLevel: 3,
			TTL:              7 * 24 * time.Hour,
		},
	}
}

// LoadConfigFromEnv reads the configuration from TTSBYTES_* variables,
// falling back to the envDefault tags.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return DefaultConfig(), fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	}

	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return fmt.Errorf("%w: max_retries must be between 1 and 10, got %d", ErrInvalidConfig, c.MaxRetries)
	}

	if c.BackoffFactor < 0 {
		return fmt.Errorf("%w: backoff_factor cannot be negative, got %v", ErrInvalidConfig, c.BackoffFactor)
	}

	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: requests_per_minute cannot be negative, got %d", ErrInvalidConfig, c.RequestsPerMinute)
	}

	if c.ModelID == "" {
		return fmt.Errorf("%w: model_id cannot be empty", ErrInvalidConfig)
	}

	if _, err := GetOutputFormat(c.Format); err != nil {
		return err
	}

	if c.Language != "" {
		if _, err := language.Parse(c.Language); err != nil {
			return fmt.Errorf("%w: language %q: %v", ErrInvalidConfig, c.Language, err)
		}
	}

	if c.Cache.CompressionLevel < 0 || c.Cache.CompressionLevel > 22 {
		return fmt.Errorf("%w: cache compression_level must be between 0 and 22, got %d", ErrInvalidConfig, c.Cache.CompressionLevel)
	}

	return nil
}

// Headers returns the static headers sent with every request.
func (c *Config) Headers() map[string]string {
	return map[string]string{
		"X-API-Key":        c.APIKey,
		"Cartesia-Version": c.APIVersion,
		"Content-Type":     "application/json",
	}
}

// OutputFormat resolves the configured format name.
func (c *Config) OutputFormat() (OutputFormat, error) {
	return GetOutputFormat(c.Format)
}

// LanguagePtr returns the configured language, or nil when unset.
func (c *Config) LanguagePtr() *string {
	if c.Language == "" {
		return nil
	}
	return String(c.Language)
}
