package analyzers

import (
	"context"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// RateLimitAnalyzer grades rate-limit pressure from the window usage counts
// the orchestrator collected at the gate. The limiter itself only blocks hard
// violations; this analyzer turns sub-limit pressure into a score that scales
// from zero at half the limit to saturation at the limit.
type RateLimitAnalyzer struct {
	logger *zap.Logger
}

// NewRateLimitAnalyzer creates a rate-limit analyzer.
func NewRateLimitAnalyzer(logger *zap.Logger) *RateLimitAnalyzer {
	return &RateLimitAnalyzer{logger: logger}
}

// Method returns the method identifier for this analyzer.
func (a *RateLimitAnalyzer) Method() core.Method {
	return core.MethodRateLimit
}

// Analyze converts window usage ratios into a pressure score. When no usage
// data exists, typically because the identifier was empty and the limiter
// failed open, the method is unavailable rather than zero: anonymity is
// penalized by the behavioral analyzer, not silently scored clean here.
func (a *RateLimitAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	if len(sub.RateUsage) == 0 {
		return nil, core.ErrUnavailable
	}

	result := &core.MethodResult{}
	for _, usage := range sub.RateUsage {
		if usage.Limit <= 0 {
			continue
		}
		ratio := float64(usage.Count) / float64(usage.Limit)
		contribution := clamp01((ratio - 0.5) * 2)
		if contribution > result.Score {
			result.Score = contribution
		}
	}

	if result.Score >= 0.5 {
		result.Tags = append(result.Tags, "rate_pressure")
	}
	return result, nil
}
