package analyzers

import (
	"context"
	"time"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// RegexAnalyzer scores a submission against the ranked regex pattern set.
// Patterns execute in priority order; the analyzer stops as soon as a match
// reaches the early-exit risk so worst-case latency stays bounded by the
// high-priority prefix of the set.
type RegexAnalyzer struct {
	store      core.PatternStore
	sink       core.EventSink
	budget     time.Duration
	minRisk    float64
	earlyExit  float64
	combinator Combinator
	logger     *zap.Logger
}

// NewRegexAnalyzer creates a regex analyzer. budget is the per-pattern
// execution allowance; matches whose evaluation exceeds it are dropped for
// this submission.
func NewRegexAnalyzer(
	store core.PatternStore,
	sink core.EventSink,
	budget time.Duration,
	combinator Combinator,
	logger *zap.Logger,
) *RegexAnalyzer {
	return &RegexAnalyzer{
		store:      store,
		sink:       sink,
		budget:     budget,
		minRisk:    0.2,
		earlyExit:  0.9,
		combinator: combinator,
		logger:     logger,
	}
}

// Method returns the method identifier for this analyzer.
func (a *RegexAnalyzer) Method() core.Method {
	return core.MethodRegex
}

// Analyze runs the active regex patterns against the flattened text.
func (a *RegexAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	result := &core.MethodResult{}

	for _, pattern := range a.store.ActivePatterns(core.PatternRegex) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		matched := pattern.Regexp.MatchString(sub.Text)
		elapsed := time.Since(start)

		if a.budget > 0 && elapsed > a.budget {
			// Over-budget evaluations are skipped entirely, match or not.
			a.sink.RecordPatternTimeout(pattern.Name)
			a.logger.Warn("Pattern exceeded execution budget",
				zap.String("pattern", pattern.Name),
				zap.Duration("elapsed", elapsed),
				zap.Duration("budget", a.budget))
			continue
		}
		if !matched {
			continue
		}

		a.store.RecordMatch(pattern.Name, elapsed)
		risk := float64(pattern.RiskWeight) / 100
		if risk < a.minRisk {
			continue
		}

		result.Tags = append(result.Tags, pattern.Name)
		if a.combinator == CombinatorAdditive {
			result.Score += risk
		} else if risk > result.Score {
			result.Score = risk
		}

		if result.Score >= a.earlyExit {
			break
		}
	}

	result.Score = clamp01(result.Score)
	return result, nil
}
