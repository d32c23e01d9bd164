package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

func usageSubmission(usage ...core.WindowUsage) *core.Submission {
	return &core.Submission{Text: "hello", RateUsage: usage}
}

func TestRateLimitAnalyzerUnavailableWithoutUsage(t *testing.T) {
	a := NewRateLimitAnalyzer(zap.NewNop())
	_, err := a.Analyze(context.Background(), usageSubmission())
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestRateLimitAnalyzerPressureCurve(t *testing.T) {
	a := NewRateLimitAnalyzer(zap.NewNop())

	tests := []struct {
		name      string
		count     int64
		limit     int
		wantScore float64
	}{
		{name: "below half the limit", count: 2, limit: 10, wantScore: 0},
		{name: "at half the limit", count: 5, limit: 10, wantScore: 0},
		{name: "past half the limit", count: 8, limit: 10, wantScore: 0.6},
		{name: "at the limit", count: 10, limit: 10, wantScore: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Analyze(context.Background(), usageSubmission(core.WindowUsage{
				Name:   "per_minute",
				Count:  tt.count,
				Limit:  tt.limit,
				Window: time.Minute,
			}))
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
		})
	}
}

func TestRateLimitAnalyzerTakesWorstWindow(t *testing.T) {
	a := NewRateLimitAnalyzer(zap.NewNop())

	result, err := a.Analyze(context.Background(), usageSubmission(
		core.WindowUsage{Name: "per_minute", Count: 3, Limit: 10, Window: time.Minute},
		core.WindowUsage{Name: "per_hour", Count: 90, Limit: 100, Window: time.Hour},
	))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.Score, 1e-9)
	assert.Equal(t, []string{"rate_pressure"}, result.Tags)
}

func TestRateLimitAnalyzerSkipsZeroLimits(t *testing.T) {
	a := NewRateLimitAnalyzer(zap.NewNop())

	result, err := a.Analyze(context.Background(), usageSubmission(
		core.WindowUsage{Name: "broken", Count: 5, Limit: 0, Window: time.Minute},
	))
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Tags)
}
