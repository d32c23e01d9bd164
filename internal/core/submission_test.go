package core_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

// stubAnalyzer is a scriptable method analyzer for pipeline tests.
type stubAnalyzer struct {
	method core.Method
	score  float64
	tags   []string
	err    error
	panics bool
	calls  int
}

func (s *stubAnalyzer) Method() core.Method { return s.method }

func (s *stubAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	s.calls++
	if s.panics {
		panic("stub exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &core.MethodResult{Score: s.score, Tags: s.tags}, nil
}

// captureSink records sink calls for assertions.
type captureSink struct {
	mu           sync.Mutex
	detections   []*core.DetectionResult
	degradations []string
	timeouts     []string
}

func (s *captureSink) RecordDetection(result *core.DetectionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detections = append(s.detections, result)
}

func (s *captureSink) RecordDegradation(component string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degradations = append(s.degradations, component)
}

func (s *captureSink) RecordPatternTimeout(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeouts = append(s.timeouts, pattern)
}

// mandatoryStubs returns one stub per mandatory method, all scoring the same.
func mandatoryStubs(score float64) []core.MethodAnalyzer {
	out := make([]core.MethodAnalyzer, 0, len(core.MandatoryMethods))
	for _, m := range core.MandatoryMethods {
		out = append(out, &stubAnalyzer{method: m, score: score})
	}
	return out
}

func newPipeline(t *testing.T, analyzers []core.MethodAnalyzer, sink core.EventSink) *core.SubmissionAnalyzer {
	t.Helper()
	sa, err := core.NewSubmissionAnalyzer(analyzers, 0.9, 2, sink, zap.NewNop())
	require.NoError(t, err)
	return sa
}

func TestNewSubmissionAnalyzerValidation(t *testing.T) {
	sink := &captureSink{}

	tests := []struct {
		name      string
		analyzers []core.MethodAnalyzer
		threshold float64
		minBefore int
		wantErr   string
	}{
		{
			name:      "valid mandatory set",
			analyzers: mandatoryStubs(0.1),
			threshold: 0.9,
			minBefore: 2,
		},
		{
			name:      "missing mandatory method",
			analyzers: []core.MethodAnalyzer{&stubAnalyzer{method: core.MethodRegex}},
			threshold: 0.9,
			minBefore: 2,
			wantErr:   "mandatory method",
		},
		{
			name: "duplicate method",
			analyzers: append(mandatoryStubs(0.1),
				&stubAnalyzer{method: core.MethodRegex}),
			threshold: 0.9,
			minBefore: 2,
			wantErr:   "duplicate analyzer",
		},
		{
			name: "unknown method",
			analyzers: append(mandatoryStubs(0.1),
				&stubAnalyzer{method: core.Method("telepathy")}),
			threshold: 0.9,
			minBefore: 2,
			wantErr:   "unknown method",
		},
		{
			name:      "threshold above one",
			analyzers: mandatoryStubs(0.1),
			threshold: 1.5,
			minBefore: 2,
			wantErr:   "early exit threshold",
		},
		{
			name:      "zero min before exit",
			analyzers: mandatoryStubs(0.1),
			threshold: 0.9,
			minBefore: 0,
			wantErr:   "min methods before exit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.NewSubmissionAnalyzer(tt.analyzers, tt.threshold, tt.minBefore, sink, zap.NewNop())
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestAnalyzeCollectsAllScores(t *testing.T) {
	sink := &captureSink{}
	stubs := []core.MethodAnalyzer{
		&stubAnalyzer{method: core.MethodRegex, score: 0.1, tags: []string{"a"}},
		&stubAnalyzer{method: core.MethodKeyword, score: 0.2, tags: []string{"b"}},
		&stubAnalyzer{method: core.MethodContent, score: 0.3},
		&stubAnalyzer{method: core.MethodBehavioral, score: 0.4},
		&stubAnalyzer{method: core.MethodRateLimit, score: 0.5},
	}
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	assert.Len(t, outcome.Scores, 5)
	assert.InDelta(t, 0.3, outcome.Scores[core.MethodContent], 1e-9)
	assert.Equal(t, []string{"a", "b"}, outcome.Tags)
	assert.False(t, outcome.Degraded)
	assert.False(t, outcome.EarlyExit)
	assert.Empty(t, sink.degradations)
}

func TestAnalyzeSkipsUnavailableSilently(t *testing.T) {
	sink := &captureSink{}
	stubs := mandatoryStubs(0.1)
	stubs[1].(*stubAnalyzer).err = core.ErrUnavailable
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	assert.Len(t, outcome.Scores, 4)
	assert.NotContains(t, outcome.Scores, core.MethodKeyword)
	assert.False(t, outcome.Degraded)
	assert.Empty(t, sink.degradations)
}

func TestAnalyzeFailureDegradesAndContinues(t *testing.T) {
	sink := &captureSink{}
	stubs := mandatoryStubs(0.1)
	stubs[1].(*stubAnalyzer).err = errors.New("backend down")
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	assert.Len(t, outcome.Scores, 4)
	assert.True(t, outcome.Degraded)
	assert.Equal(t, []string{"keyword"}, sink.degradations)
	// the remaining methods still ran
	assert.Equal(t, 1, stubs[4].(*stubAnalyzer).calls)
}

func TestAnalyzePanicDegradesAndContinues(t *testing.T) {
	sink := &captureSink{}
	stubs := mandatoryStubs(0.1)
	stubs[2].(*stubAnalyzer).panics = true
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	assert.Len(t, outcome.Scores, 4)
	assert.NotContains(t, outcome.Scores, core.MethodContent)
	assert.True(t, outcome.Degraded)
	assert.Equal(t, []string{"content"}, sink.degradations)
	assert.Equal(t, 1, stubs[4].(*stubAnalyzer).calls)
}

func TestAnalyzeRejectsNonFiniteScores(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		sink := &captureSink{}
		stubs := mandatoryStubs(0.1)
		stubs[3].(*stubAnalyzer).score = bad
		sa := newPipeline(t, stubs, sink)

		outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

		assert.NotContains(t, outcome.Scores, core.MethodBehavioral)
		assert.True(t, outcome.Degraded)
		assert.Equal(t, []string{"behavioral"}, sink.degradations)
	}
}

func TestAnalyzeEarlyExit(t *testing.T) {
	sink := &captureSink{}
	stubs := []core.MethodAnalyzer{
		&stubAnalyzer{method: core.MethodRegex, score: 0.95},
		&stubAnalyzer{method: core.MethodKeyword, score: 0.95},
		&stubAnalyzer{method: core.MethodContent, score: 0.1},
		&stubAnalyzer{method: core.MethodBehavioral, score: 0.1},
		&stubAnalyzer{method: core.MethodRateLimit, score: 0.1},
	}
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	// The first high score alone cannot exit; the second reaches the
	// minimum method count and stops the pipeline.
	assert.True(t, outcome.EarlyExit)
	assert.Len(t, outcome.Scores, 2)
	assert.Equal(t, 0, stubs[2].(*stubAnalyzer).calls)
	assert.Equal(t, 0, stubs[3].(*stubAnalyzer).calls)
	assert.Equal(t, 0, stubs[4].(*stubAnalyzer).calls)
}

func TestAnalyzeHighScoreBelowMinimumDoesNotExit(t *testing.T) {
	sink := &captureSink{}
	stubs := []core.MethodAnalyzer{
		&stubAnalyzer{method: core.MethodRegex, score: 0.95},
		&stubAnalyzer{method: core.MethodKeyword, score: 0.1},
		&stubAnalyzer{method: core.MethodContent, score: 0.1},
		&stubAnalyzer{method: core.MethodBehavioral, score: 0.1},
		&stubAnalyzer{method: core.MethodRateLimit, score: 0.1},
	}
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	assert.False(t, outcome.EarlyExit)
	assert.Len(t, outcome.Scores, 5)
}

func TestAnalyzeMandatoryMethodsRunFirst(t *testing.T) {
	sink := &captureSink{}
	bayes := &stubAnalyzer{method: core.MethodBayesian, score: 0.1}
	// Registered first, but mandatory methods must still run before it.
	stubs := append([]core.MethodAnalyzer{bayes},
		&stubAnalyzer{method: core.MethodRegex, score: 0.95},
		&stubAnalyzer{method: core.MethodKeyword, score: 0.95},
		&stubAnalyzer{method: core.MethodContent, score: 0.1},
		&stubAnalyzer{method: core.MethodBehavioral, score: 0.1},
		&stubAnalyzer{method: core.MethodRateLimit, score: 0.1},
	)
	sa := newPipeline(t, stubs, sink)

	outcome := sa.Analyze(context.Background(), &core.Submission{Text: "hello"})

	assert.True(t, outcome.EarlyExit)
	assert.Equal(t, 0, bayes.calls)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	sink := &captureSink{}
	stubs := mandatoryStubs(0.1)
	sa := newPipeline(t, stubs, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := sa.Analyze(ctx, &core.Submission{Text: "hello"})

	assert.Empty(t, outcome.Scores)
	assert.True(t, outcome.Degraded)
	assert.Equal(t, 0, stubs[0].(*stubAnalyzer).calls)
}
