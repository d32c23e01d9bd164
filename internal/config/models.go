package config

import (
	"fmt"
	"time"
)

// SpamConfig represents the spam decision configuration
type SpamConfig struct {
	Threshold          float64
	FormThresholds     map[string]float64
	TrustedIdentifiers []string
	TrustedDomains     []string
	MaxTextSize        int
}

// ScoringConfig represents the score calculator configuration
type ScoringConfig struct {
	Weights              map[string]float64
	EarlyExitThreshold   float64
	MinMethodsBeforeExit int
	ReferenceMethodCount int
	HighConfidence       float64
	ContextRules         map[string]float64
	Combinators          map[string]string
}

// AnalyzersConfig represents the per-analyzer toggles and budgets
type AnalyzersConfig struct {
	PatternBudget      time.Duration
	BehavioralHighFreq int
	BayesianEnabled    bool
	BayesianMinSamples int
	AIEnabled          bool
	AITimeout          time.Duration
	GeolocationEnabled bool
	HighRiskCountries  []string
	IPReputationEnable bool
}

// WindowConfig represents one named rate-limit window
type WindowConfig struct {
	MaxCount      int
	WindowSeconds int
}

// RateLimitConfig represents the rate limiter configuration
type RateLimitConfig struct {
	Backend                 string
	Windows                 map[string]WindowConfig
	AuthenticatedMultiplier float64
	RedisAddr               string
}

// CacheConfig represents the memoization cache configuration
type CacheConfig struct {
	Type        string
	Enabled     bool
	TTL         time.Duration
	CleanupFreq time.Duration
	SQLitePath  string
	MySQLDSN    string
	RedisAddr   string
}

// PatternsConfig represents the pattern store source configuration
type PatternsConfig struct {
	Source      string
	PostgresDSN string
}

// AIConfig represents the configuration for the AI provider selection
type AIConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// SinkConfig represents the event sink configuration
type SinkConfig struct {
	NATSEnabled    bool
	NATSURL        string
	NATSSubject    string
	MetricsEnabled bool
	MetricsAddress string
}

// ServerConfig represents the NATS submission consumer configuration
type ServerConfig struct {
	NATSURL       string
	Subject       string
	ResultSubject string
}

// GetSpam returns the spam decision configuration
func (c *Config) GetSpam() SpamConfig {
	thresholds := make(map[string]float64)
	for form, raw := range c.GetStringMap("spam.form_thresholds") {
		if f, ok := toFloat(raw); ok {
			thresholds[form] = f
		}
	}
	return SpamConfig{
		Threshold:          c.GetFloat64("spam.threshold"),
		FormThresholds:     thresholds,
		TrustedIdentifiers: c.GetStringSlice("spam.trusted_identifiers"),
		TrustedDomains:     c.GetStringSlice("spam.trusted_domains"),
		MaxTextSize:        c.GetInt("spam.max_text_size"),
	}
}

// GetScoring returns the score calculator configuration
func (c *Config) GetScoring() ScoringConfig {
	weights := make(map[string]float64)
	for method, raw := range c.GetStringMap("scoring.weights") {
		if f, ok := toFloat(raw); ok {
			weights[method] = f
		}
	}
	rules := make(map[string]float64)
	for rule, raw := range c.GetStringMap("scoring.context_rules") {
		if f, ok := toFloat(raw); ok {
			rules[rule] = f
		}
	}
	combinators := make(map[string]string)
	for method, raw := range c.GetStringMap("scoring.combinators") {
		if s, ok := raw.(string); ok {
			combinators[method] = s
		}
	}
	return ScoringConfig{
		Weights:              weights,
		EarlyExitThreshold:   c.GetFloat64("scoring.early_exit_threshold"),
		MinMethodsBeforeExit: c.GetInt("scoring.min_methods_before_exit"),
		ReferenceMethodCount: c.GetInt("scoring.reference_method_count"),
		HighConfidence:       c.GetFloat64("scoring.high_confidence"),
		ContextRules:         rules,
		Combinators:          combinators,
	}
}

// GetAnalyzers returns the analyzer toggles and budgets
func (c *Config) GetAnalyzers() (AnalyzersConfig, error) {
	budget, err := c.GetDuration("analyzers.pattern_budget")
	if err != nil {
		return AnalyzersConfig{}, fmt.Errorf("invalid pattern budget: %w", err)
	}
	aiTimeout, err := c.GetDuration("analyzers.ai.timeout")
	if err != nil {
		return AnalyzersConfig{}, fmt.Errorf("invalid AI timeout: %w", err)
	}
	return AnalyzersConfig{
		PatternBudget:      budget,
		BehavioralHighFreq: c.GetInt("analyzers.behavioral.high_frequency"),
		BayesianEnabled:    c.GetBool("analyzers.bayesian.enabled"),
		BayesianMinSamples: c.GetInt("analyzers.bayesian.min_samples"),
		AIEnabled:          c.GetBool("analyzers.ai.enabled"),
		AITimeout:          aiTimeout,
		GeolocationEnabled: c.GetBool("analyzers.geolocation.enabled"),
		HighRiskCountries:  c.GetStringSlice("analyzers.geolocation.high_risk_countries"),
		IPReputationEnable: c.GetBool("analyzers.ip_reputation.enabled"),
	}, nil
}

// GetRateLimit returns the rate limiter configuration
func (c *Config) GetRateLimit() RateLimitConfig {
	windows := make(map[string]WindowConfig)
	for name := range c.GetStringMap("ratelimit.windows") {
		windows[name] = WindowConfig{
			MaxCount:      c.GetInt("ratelimit.windows." + name + ".max_count"),
			WindowSeconds: c.GetInt("ratelimit.windows." + name + ".window_seconds"),
		}
	}
	return RateLimitConfig{
		Backend:                 c.GetString("ratelimit.backend"),
		Windows:                 windows,
		AuthenticatedMultiplier: c.GetFloat64("ratelimit.authenticated_multiplier"),
		RedisAddr:               c.GetString("ratelimit.redis_addr"),
	}
}

// GetCache returns the memoization cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}
	return CacheConfig{
		Type:        c.GetString("cache.type"),
		Enabled:     c.GetBool("cache.enabled"),
		TTL:         ttl,
		CleanupFreq: cleanup,
		SQLitePath:  c.GetString("cache.sqlite_path"),
		MySQLDSN:    c.GetString("cache.mysql_dsn"),
		RedisAddr:   c.GetString("cache.redis_addr"),
	}, nil
}

// GetPatterns returns the pattern store source configuration
func (c *Config) GetPatterns() PatternsConfig {
	return PatternsConfig{
		Source:      c.GetString("patterns.source"),
		PostgresDSN: c.GetString("patterns.postgres_dsn"),
	}
}

// GetAI returns the AI provider selection
func (c *Config) GetAI() AIConfig {
	return AIConfig{
		Provider: c.GetString("ai.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetSinks returns the event sink configuration
func (c *Config) GetSinks() SinkConfig {
	return SinkConfig{
		NATSEnabled:    c.GetBool("sink.nats.enabled"),
		NATSURL:        c.GetString("sink.nats.url"),
		NATSSubject:    c.GetString("sink.nats.subject"),
		MetricsEnabled: c.GetBool("metrics.enabled"),
		MetricsAddress: c.GetString("metrics.listen_address"),
	}
}

// GetServer returns the NATS submission consumer configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		NATSURL:       c.GetString("server.nats_url"),
		Subject:       c.GetString("server.subject"),
		ResultSubject: c.GetString("server.result_subject"),
	}
}

// toFloat converts a raw viper map value to float64
func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
