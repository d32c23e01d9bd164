package analyzers

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

// AIAnalyzer consults an external AI classifier. It is the only analyzer that
// performs network I/O, so it carries its own timeout (shorter than the
// overall processing budget) and a circuit breaker; on timeout, error, or an
// open circuit it degrades to unavailable instead of stalling the pipeline.
type AIAnalyzer struct {
	client  core.AIClient
	breaker *gobreaker.CircuitBreaker[*core.AIVerdict]
	timeout time.Duration
	logger  *zap.Logger
}

// NewAIAnalyzer creates an AI analyzer wrapping the given client.
func NewAIAnalyzer(client core.AIClient, timeout time.Duration, logger *zap.Logger) *AIAnalyzer {
	settings := gobreaker.Settings{
		Name:        "ai-classifier",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("AI circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &AIAnalyzer{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*core.AIVerdict](settings),
		timeout: timeout,
		logger:  logger,
	}
}

// Method returns the method identifier for this analyzer.
func (a *AIAnalyzer) Method() core.Method {
	return core.MethodAI
}

// Analyze classifies the flattened text via the external service.
func (a *AIAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	verdict, err := a.breaker.Execute(func() (*core.AIVerdict, error) {
		return a.client.ClassifySubmission(callCtx, sub.Text)
	})
	if err != nil {
		a.logger.Warn("AI classification unavailable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}

	result := &core.MethodResult{Score: clamp01(verdict.Score)}
	if verdict.IsSpam {
		result.Tags = append(result.Tags, "ai_flagged")
	}
	return result, nil
}
