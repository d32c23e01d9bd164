package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/formsentry/")
	v.AddConfigPath("$HOME/.formsentry")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("FORM_SENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Spam decision defaults
	v.SetDefault("spam.threshold", 0.5)
	v.SetDefault("spam.form_thresholds", map[string]float64{})
	v.SetDefault("spam.trusted_identifiers", []string{})
	v.SetDefault("spam.trusted_domains", []string{})
	v.SetDefault("spam.max_text_size", 16384)

	// Scoring defaults
	v.SetDefault("scoring.weights.regex", 0.30)
	v.SetDefault("scoring.weights.keyword", 0.25)
	v.SetDefault("scoring.weights.content", 0.15)
	v.SetDefault("scoring.weights.behavioral", 0.20)
	v.SetDefault("scoring.weights.rate_limit", 0.10)
	v.SetDefault("scoring.weights.bayesian", 0.40)
	v.SetDefault("scoring.weights.ai", 0.10)
	v.SetDefault("scoring.weights.geolocation", 0.10)
	v.SetDefault("scoring.weights.ip_reputation", 0.10)
	v.SetDefault("scoring.early_exit_threshold", 0.9)
	v.SetDefault("scoring.min_methods_before_exit", 2)
	v.SetDefault("scoring.reference_method_count", 4)
	v.SetDefault("scoring.high_confidence", 0.7)
	v.SetDefault("scoring.context_rules.high_frequency", 0.15)
	v.SetDefault("scoring.context_rules.missing_user_agent", 0.10)
	v.SetDefault("scoring.context_rules.anonymizer", 0.15)
	v.SetDefault("scoring.context_rules.authenticated", -0.10)
	v.SetDefault("scoring.combinators.keyword", "additive")
	v.SetDefault("scoring.combinators.regex", "max")

	// Analyzer defaults
	v.SetDefault("analyzers.pattern_budget", "10ms")
	v.SetDefault("analyzers.behavioral.high_frequency", 10)
	v.SetDefault("analyzers.bayesian.enabled", false)
	v.SetDefault("analyzers.bayesian.min_samples", 20)
	v.SetDefault("analyzers.ai.enabled", false)
	v.SetDefault("analyzers.ai.timeout", "2s")
	v.SetDefault("analyzers.geolocation.enabled", false)
	v.SetDefault("analyzers.geolocation.high_risk_countries", []string{})
	v.SetDefault("analyzers.ip_reputation.enabled", false)

	// AI provider defaults
	v.SetDefault("ai.provider", "openai")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Rate limit defaults
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.authenticated_multiplier", 2.0)
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.windows.per_minute.max_count", 10)
	v.SetDefault("ratelimit.windows.per_minute.window_seconds", 60)
	v.SetDefault("ratelimit.windows.per_hour.max_count", 100)
	v.SetDefault("ratelimit.windows.per_hour.window_seconds", 3600)
	v.SetDefault("ratelimit.windows.per_day.max_count", 500)
	v.SetDefault("ratelimit.windows.per_day.window_seconds", 86400)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanup_frequency", "1m")
	v.SetDefault("cache.sqlite_path", "/data/formsentry_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/formsentry")
	v.SetDefault("cache.redis_addr", "localhost:6379")

	// Pattern store defaults
	v.SetDefault("patterns.source", "builtin")
	v.SetDefault("patterns.postgres_dsn", "")

	// Event sink defaults
	v.SetDefault("sink.nats.enabled", false)
	v.SetDefault("sink.nats.url", "nats://localhost:4222")
	v.SetDefault("sink.nats.subject", "formsentry.detections")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_address", "0.0.0.0:9100")

	// Server (NATS consumer) defaults
	v.SetDefault("server.nats_url", "nats://localhost:4222")
	v.SetDefault("server.subject", "formsentry.check")
	v.SetDefault("server.result_subject", "formsentry.result")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetStringMap gets a nested map value from the configuration
func (c *Config) GetStringMap(key string) map[string]any {
	return c.v.GetStringMap(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
