package factory

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/ratelimit"
)

// LimiterFactory creates rate limiters based on configuration
type LimiterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLimiterFactory creates a new rate limiter factory
func NewLimiterFactory(cfg *config.Config, logger *zap.Logger) *LimiterFactory {
	return &LimiterFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRateLimiter creates a rate limiter based on the configuration
func (f *LimiterFactory) CreateRateLimiter() (core.RateLimiter, error) {
	limitCfg := f.cfg.GetRateLimit()

	rules := make([]ratelimit.Rule, 0, len(limitCfg.Windows))
	for name, w := range limitCfg.Windows {
		if w.MaxCount <= 0 || w.WindowSeconds <= 0 {
			return nil, fmt.Errorf("invalid rate-limit window %q: count=%d seconds=%d",
				name, w.MaxCount, w.WindowSeconds)
		}
		rules = append(rules, ratelimit.Rule{
			Name:   name,
			Limit:  w.MaxCount,
			Window: time.Duration(w.WindowSeconds) * time.Second,
		})
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rate-limit windows configured")
	}

	switch limitCfg.Backend {
	case "memory":
		return ratelimit.NewMemoryLimiter(rules, limitCfg.AuthenticatedMultiplier, f.logger), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: limitCfg.RedisAddr})
		return ratelimit.NewRedisLimiter(client, rules, limitCfg.AuthenticatedMultiplier, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported rate-limit backend: %s", limitCfg.Backend)
	}
}
