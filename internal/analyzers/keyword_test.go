package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/patterns"
)

func submissionFor(text string) *core.Submission {
	return &core.Submission{Text: text}
}

func TestContainsWholeWord(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"buy viagra now", "viagra", true},
		{"viagra", "viagra", true},
		{"viagra!", "viagra", true},
		{"(viagra)", "viagra", true},
		{"viagrafoo", "viagra", false},
		{"fooviagra", "viagra", false},
		{"viagra2go", "viagra", false},
		{"via gra", "viagra", false},
		{"first viagrax then viagra.", "viagra", true},
		// multibyte letters next to the needle are not boundaries
		{"éviagra", "viagra", false},
		{"viagraé", "viagra", false},
		{"crèmeviagra", "viagra", false},
		{"é viagra é", "viagra", true},
		{"anything", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, containsWholeWord(tt.haystack, tt.needle),
			"haystack %q needle %q", tt.haystack, tt.needle)
	}
}

func TestKeywordAnalyzerAdditive(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewKeywordAnalyzer(store, CombinatorAdditive, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("Cheap VIAGRA and casino bonuses"))
	require.NoError(t, err)

	// 0.85 + 0.60 compounds and clamps within the ceiling
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.Contains(t, result.Tags, "kw_viagra")
	assert.Contains(t, result.Tags, "kw_casino")
}

func TestKeywordAnalyzerMaxKeepsStrongestHit(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewKeywordAnalyzer(store, CombinatorMax, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("cheap viagra and casino bonuses"))
	require.NoError(t, err)
	assert.InDelta(t, 0.85, result.Score, 1e-9)
}

func TestKeywordAnalyzerWholeWordRejectsEmbedded(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewKeywordAnalyzer(store, CombinatorAdditive, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("the viagrafication of marketing"))
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Tags)
}

func TestKeywordAnalyzerPhraseMatch(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewKeywordAnalyzer(store, CombinatorAdditive, zap.NewNop())

	result, err := a.Analyze(context.Background(), submissionFor("Make Money Fast with this one trick"))
	require.NoError(t, err)
	assert.InDelta(t, 0.80, result.Score, 1e-9)
	assert.Equal(t, []string{"ph_make_money_fast"}, result.Tags)
}

func TestKeywordAnalyzerCaseSensitivePattern(t *testing.T) {
	store := patterns.NewStore(zap.NewNop())
	ok := store.UpdatePatterns([]core.PatternDefinition{{
		Name:          "brand_abuse",
		Kind:          core.PatternKeyword,
		Body:          "FormSentry",
		CaseSensitive: true,
		RiskWeight:    50,
		Priority:      10,
		Enabled:       true,
	}})
	require.True(t, ok)
	a := NewKeywordAnalyzer(store, CombinatorAdditive, zap.NewNop())

	hit, err := a.Analyze(context.Background(), submissionFor("Is FormSentry down?"))
	require.NoError(t, err)
	assert.InDelta(t, 0.50, hit.Score, 1e-9)

	miss, err := a.Analyze(context.Background(), submissionFor("is formsentry down?"))
	require.NoError(t, err)
	assert.Zero(t, miss.Score)
}

func TestKeywordAnalyzerCancelledContext(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewKeywordAnalyzer(store, CombinatorAdditive, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, submissionFor("hello"))
	assert.ErrorIs(t, err, context.Canceled)
}
