package analyzers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/patterns"
)

func TestContentAnalyzerStructuralRules(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewContentAnalyzer(store, zap.NewNop())

	tests := []struct {
		name      string
		text      string
		wantScore float64
		wantTags  []string
	}{
		{
			name:      "ordinary message passes",
			text:      "Hello, I would like to ask about your opening hours next week.",
			wantScore: 0,
		},
		{
			name:      "very short content",
			text:      "hi",
			wantScore: 0.20,
			wantTags:  []string{"short_content"},
		},
		{
			name:      "oversized content",
			text:      strings.Repeat("lots of different filler words here ", 400),
			wantScore: 0.20,
			wantTags:  []string{"oversized_content"},
		},
		{
			name: "excessive links",
			text: "check https://a.example.com plus https://b.example.com also " +
				"https://c.example.com then https://d.example.com today",
			wantScore: 0.35,
			wantTags:  []string{"excessive_links"},
		},
		{
			name:      "shouting in caps",
			text:      "LIMITED TIME OFFER BUY NOW BEFORE IT IS GONE FOREVER",
			wantScore: 0.25,
			wantTags:  []string{"excessive_caps"},
		},
		{
			name:      "word repetition",
			text:      "win win win win win win win win big prizes",
			wantScore: 0.25,
			wantTags:  []string{"word_repetition"},
		},
		{
			name: "excessive emails",
			text: "contact alice@example.com or bob@example.com or " +
				"carol@example.com for more details today",
			wantScore: 0.20,
			wantTags:  []string{"excessive_emails"},
		},
		{
			name:      "excessive phone numbers",
			text:      "Call 555-123-4567 or 555-987-6543 or 555-111-2222 now",
			wantScore: 0.20,
			wantTags:  []string{"excessive_phones"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Analyze(context.Background(), submissionFor(tt.text))
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			if len(tt.wantTags) == 0 {
				assert.Empty(t, result.Tags)
			} else {
				assert.Equal(t, tt.wantTags, result.Tags)
			}
		})
	}
}

func TestContentAnalyzerRuleScoresCompound(t *testing.T) {
	store := patterns.NewStoreWithDefaults(zap.NewNop())
	a := NewContentAnalyzer(store, zap.NewNop())

	// caps shouting plus heavy repetition trips two rules at once
	text := "WIN WIN WIN WIN WIN WIN WIN WIN BIG PRIZES TODAY"
	result, err := a.Analyze(context.Background(), submissionFor(text))
	require.NoError(t, err)
	assert.InDelta(t, 0.25+0.25, result.Score, 1e-9)
	assert.ElementsMatch(t, []string{"excessive_caps", "word_repetition"}, result.Tags)
}

func TestCapsRatioExemptsShortText(t *testing.T) {
	// fewer than twenty letters never counts as shouting
	assert.False(t, capsRatioExceeds("OK THANKS", 0.5))
	assert.True(t, capsRatioExceeds("THIS ENTIRE SENTENCE IS SHOUTED LOUDLY", 0.5))
	assert.False(t, capsRatioExceeds("This entire sentence is spoken normally", 0.5))
}

func TestWordRepetitionExemptsShortPhrases(t *testing.T) {
	assert.False(t, wordRepetitionExceeds("buy buy buy", 0.3))
	assert.True(t, wordRepetitionExceeds("buy buy buy buy buy buy buy now and here", 0.3))
	assert.False(t, wordRepetitionExceeds("each of these ten words appears exactly once in here", 0.3))
}
