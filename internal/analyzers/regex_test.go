package analyzers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/patterns"
)

// recordingSink captures telemetry calls from analyzers under test.
type recordingSink struct {
	mu       sync.Mutex
	timeouts []string
}

func (s *recordingSink) RecordDetection(result *core.DetectionResult) {}

func (s *recordingSink) RecordDegradation(component string, err error) {}

func (s *recordingSink) RecordPatternTimeout(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeouts = append(s.timeouts, pattern)
}

func newRegexUnderTest(store core.PatternStore, budget time.Duration) (*RegexAnalyzer, *recordingSink) {
	sink := &recordingSink{}
	return NewRegexAnalyzer(store, sink, budget, CombinatorMax, zap.NewNop()), sink
}

func TestRegexAnalyzerMatch(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a, _ := newRegexUnderTest(store, time.Second)

	result, err := a.Analyze(context.Background(), submissionFor("Buy VIAGRA online today"))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, result.Score, 1e-9)
	assert.Equal(t, []string{"pharma_spam"}, result.Tags)
}

func TestRegexAnalyzerNoMatch(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a, _ := newRegexUnderTest(store, time.Second)

	result, err := a.Analyze(context.Background(), submissionFor("Looking forward to the meeting tomorrow"))
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Tags)
}

func TestRegexAnalyzerStopsAtEarlyExitScore(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a, _ := newRegexUnderTest(store, time.Second)

	// pharma (0.9) reaches the early-exit score, so the matching shortener
	// link is never evaluated and never tagged.
	result, err := a.Analyze(context.Background(),
		submissionFor("cheap viagra here https://bit.ly/deal"))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, result.Score, 1e-9)
	assert.Equal(t, []string{"pharma_spam"}, result.Tags)
}

func TestRegexAnalyzerSkipsBelowMinimumRisk(t *testing.T) {
	store := patterns.NewStore(zap.NewNop())
	ok := store.UpdatePatterns([]core.PatternDefinition{{
		Name:       "weak_signal",
		Kind:       core.PatternRegex,
		Body:       `hello`,
		RiskWeight: 10,
		Priority:   10,
		Enabled:    true,
	}})
	require.True(t, ok)
	a, _ := newRegexUnderTest(store, time.Second)

	result, err := a.Analyze(context.Background(), submissionFor("hello world"))
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Tags)
}

func TestRegexAnalyzerDropsOverBudgetPatterns(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a, sink := newRegexUnderTest(store, time.Nanosecond)

	result, err := a.Analyze(context.Background(), submissionFor("buy viagra now"))
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Contains(t, sink.timeouts, "pharma_spam")
}

func TestRegexAnalyzerAdditiveCombinator(t *testing.T) {
	store := patterns.NewStore(zap.NewNop())
	ok := store.UpdatePatterns([]core.PatternDefinition{
		{Name: "hit_one", Kind: core.PatternRegex, Body: `alpha`, RiskWeight: 30, Priority: 10, Enabled: true},
		{Name: "hit_two", Kind: core.PatternRegex, Body: `beta`, RiskWeight: 40, Priority: 20, Enabled: true},
	})
	require.True(t, ok)
	sink := &recordingSink{}
	a := NewRegexAnalyzer(store, sink, time.Second, CombinatorAdditive, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("alpha and beta"))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, result.Score, 1e-9)
	assert.Equal(t, []string{"hit_one", "hit_two"}, result.Tags)
}

func TestRegexAnalyzerCancelledContext(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a, _ := newRegexUnderTest(store, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, submissionFor("hello"))
	assert.ErrorIs(t, err, context.Canceled)
}
