package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

// checkAndIncrScript checks every window key against its limit and only
// increments when all of them are below it, keeping check-then-increment
// atomic across concurrent submissions from the same identifier.
var checkAndIncrScript = redis.NewScript(`
local allowed = 1
local counts = {}
for i, key in ipairs(KEYS) do
  local limit = tonumber(ARGV[2*i-1])
  local count = tonumber(redis.call('GET', key) or '0')
  counts[i] = count
  if count >= limit then
    allowed = 0
  end
end
if allowed == 1 then
  for i, key in ipairs(KEYS) do
    local c = redis.call('INCR', key)
    if c == 1 then
      redis.call('EXPIRE', key, tonumber(ARGV[2*i]))
    end
    counts[i] = c
  end
end
local result = {allowed}
for i = 1, #counts do
  result[i+1] = counts[i]
end
return result
`)

// RedisLimiter is a Redis-backed rate limiter for deployments where multiple
// instances share counters. On Redis errors it fails open so an outage never
// blocks legitimate traffic.
type RedisLimiter struct {
	client         *redis.Client
	rules          []Rule
	authMultiplier float64
	logger         *zap.Logger
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client *redis.Client, rules []Rule, authMultiplier float64, logger *zap.Logger) *RedisLimiter {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Window < sorted[j].Window })

	return &RedisLimiter{
		client:         client,
		rules:          sorted,
		authMultiplier: authMultiplier,
		logger:         logger,
	}
}

// CheckAndIncrement runs the atomic check-then-increment script across all
// window keys for the identifier. An empty identifier fails open, as does any
// Redis error (the error is still returned so callers can record the
// degradation).
func (l *RedisLimiter) CheckAndIncrement(ctx context.Context, identifier string, authenticated bool) (bool, []core.WindowUsage, error) {
	if identifier == "" || len(l.rules) == 0 {
		return true, nil, nil
	}

	keys := make([]string, len(l.rules))
	argv := make([]any, 0, len(l.rules)*2)
	for i, rule := range l.rules {
		keys[i] = fmt.Sprintf("rl:%s:%s", rule.Name, identifier)
		argv = append(argv, l.effectiveLimit(rule, authenticated), int(rule.Window/time.Second))
	}

	raw, err := checkAndIncrScript.Run(ctx, l.client, keys, argv...).Slice()
	if err != nil {
		l.logger.Warn("Rate limit script failed, failing open",
			zap.String("identifier", identifier),
			zap.Error(err))
		return true, nil, fmt.Errorf("rate limit store unavailable: %w", err)
	}
	if len(raw) != len(l.rules)+1 {
		return true, nil, fmt.Errorf("rate limit script returned %d values, want %d", len(raw), len(l.rules)+1)
	}

	allowed := asInt64(raw[0]) == 1
	usage := make([]core.WindowUsage, len(l.rules))
	for i, rule := range l.rules {
		usage[i] = core.WindowUsage{
			Name:   rule.Name,
			Count:  asInt64(raw[i+1]),
			Limit:  l.effectiveLimit(rule, authenticated),
			Window: rule.Window,
		}
	}
	return allowed, usage, nil
}

func (l *RedisLimiter) effectiveLimit(rule Rule, authenticated bool) int {
	if authenticated && l.authMultiplier > 1 {
		return int(float64(rule.Limit) * l.authMultiplier)
	}
	return rule.Limit
}

func asInt64(v any) int64 {
	n, _ := v.(int64)
	return n
}
