package analyzers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

type stubAIClient struct {
	verdict *core.AIVerdict
	err     error
	calls   int
}

func (c *stubAIClient) ClassifySubmission(ctx context.Context, text string) (*core.AIVerdict, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.verdict, nil
}

func TestAIAnalyzerScoresVerdict(t *testing.T) {
	client := &stubAIClient{verdict: &core.AIVerdict{IsSpam: true, Score: 0.93, Confidence: 0.9}}
	a := NewAIAnalyzer(client, time.Second, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("win a free cruise"))
	require.NoError(t, err)
	assert.InDelta(t, 0.93, result.Score, 1e-9)
	assert.Equal(t, []string{"ai_flagged"}, result.Tags)
}

func TestAIAnalyzerCleanVerdictHasNoTag(t *testing.T) {
	client := &stubAIClient{verdict: &core.AIVerdict{IsSpam: false, Score: 0.05}}
	a := NewAIAnalyzer(client, time.Second, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("see you at the meeting"))
	require.NoError(t, err)
	assert.InDelta(t, 0.05, result.Score, 1e-9)
	assert.Empty(t, result.Tags)
}

func TestAIAnalyzerClientErrorIsUnavailable(t *testing.T) {
	client := &stubAIClient{err: errors.New("upstream 503")}
	a := NewAIAnalyzer(client, time.Second, zap.NewNop())

	_, err := a.Analyze(context.Background(), submissionFor("hello"))
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestAIAnalyzerCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	client := &stubAIClient{err: errors.New("upstream 503")}
	a := NewAIAnalyzer(client, time.Second, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := a.Analyze(context.Background(), submissionFor("hello"))
		assert.ErrorIs(t, err, core.ErrUnavailable)
	}
	// the breaker tripped after three consecutive failures and stopped
	// forwarding calls to the client
	assert.Equal(t, 3, client.calls)
}
