package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

func regexDef(name, body string, priority int) core.PatternDefinition {
	return core.PatternDefinition{
		Name:       name,
		Kind:       core.PatternRegex,
		Body:       body,
		RiskWeight: 50,
		Priority:   priority,
		Enabled:    true,
	}
}

func TestStoreUpdateAndSnapshot(t *testing.T) {
	store := NewStore(zap.NewNop())
	assert.Empty(t, store.ActivePatterns(core.PatternRegex))

	ok := store.UpdatePatterns([]core.PatternDefinition{
		regexDef("third", `gamma`, 30),
		regexDef("first", `alpha`, 10),
		regexDef("second", `beta`, 20),
	})
	require.True(t, ok)

	active := store.ActivePatterns(core.PatternRegex)
	require.Len(t, active, 3)
	assert.Equal(t, "first", active[0].Name)
	assert.Equal(t, "second", active[1].Name)
	assert.Equal(t, "third", active[2].Name)
}

func TestStoreUpsertsByKindAndBody(t *testing.T) {
	store := NewStore(zap.NewNop())
	require.True(t, store.UpdatePatterns([]core.PatternDefinition{regexDef("old_name", `alpha`, 10)}))

	updated := regexDef("new_name", `alpha`, 10)
	updated.RiskWeight = 80
	require.True(t, store.UpdatePatterns([]core.PatternDefinition{updated}))

	active := store.ActivePatterns(core.PatternRegex)
	require.Len(t, active, 1)
	assert.Equal(t, "new_name", active[0].Name)
	assert.Equal(t, 80, active[0].RiskWeight)
}

func TestStoreRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  core.PatternDefinition
	}{
		{
			name: "unsafe regex shape",
			def:  regexDef("unsafe", `(a+)+`, 10),
		},
		{
			name: "empty body",
			def:  regexDef("empty", ``, 10),
		},
		{
			name: "risk weight above bound",
			def: core.PatternDefinition{
				Name: "heavy", Kind: core.PatternKeyword, Body: "spam",
				RiskWeight: 101, Priority: 10, Enabled: true,
			},
		},
		{
			name: "negative risk weight",
			def: core.PatternDefinition{
				Name: "light", Kind: core.PatternKeyword, Body: "spam",
				RiskWeight: -1, Priority: 10, Enabled: true,
			},
		},
		{
			name: "unknown kind",
			def: core.PatternDefinition{
				Name: "odd", Kind: core.PatternKind("hologram"), Body: "spam",
				RiskWeight: 10, Priority: 10, Enabled: true,
			},
		},
		{
			name: "malformed structural rule",
			def: core.PatternDefinition{
				Name: "broken", Kind: core.PatternStructural, Body: "min_length",
				RiskWeight: 10, Priority: 10, Enabled: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(zap.NewNop())
			good := regexDef("good", `alpha`, 10)

			ok := store.UpdatePatterns([]core.PatternDefinition{good, tt.def})
			assert.False(t, ok)
			// the valid definition in the batch still landed
			active := store.ActivePatterns(core.PatternRegex)
			require.Len(t, active, 1)
			assert.Equal(t, "good", active[0].Name)
		})
	}
}

func TestStoreExcludesDisabledPatterns(t *testing.T) {
	store := NewStore(zap.NewNop())
	disabled := regexDef("dormant", `alpha`, 10)
	disabled.Enabled = false

	require.True(t, store.UpdatePatterns([]core.PatternDefinition{disabled, regexDef("live", `beta`, 20)}))

	active := store.ActivePatterns(core.PatternRegex)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].Name)
}

func TestCompileRegexOptions(t *testing.T) {
	store := NewStore(zap.NewNop())
	def := regexDef("word", `viagra`, 10)
	def.WholeWord = true
	require.True(t, store.UpdatePatterns([]core.PatternDefinition{def}))

	re := store.ActivePatterns(core.PatternRegex)[0].Regexp
	assert.True(t, re.MatchString("buy VIAGRA now"))
	assert.True(t, re.MatchString("viagra!"))
	assert.False(t, re.MatchString("viagras"))
}

func TestCompileCaseSensitiveRegex(t *testing.T) {
	store := NewStore(zap.NewNop())
	def := regexDef("exact", `FormSentry`, 10)
	def.CaseSensitive = true
	require.True(t, store.UpdatePatterns([]core.PatternDefinition{def}))

	re := store.ActivePatterns(core.PatternRegex)[0].Regexp
	assert.True(t, re.MatchString("FormSentry"))
	assert.False(t, re.MatchString("formsentry"))
}

func TestCompileLowercasesKeywordBodies(t *testing.T) {
	store := NewStore(zap.NewNop())
	require.True(t, store.UpdatePatterns([]core.PatternDefinition{{
		Name: "kw", Kind: core.PatternKeyword, Body: "ViAgRa",
		RiskWeight: 50, Priority: 10, Enabled: true,
	}}))

	active := store.ActivePatterns(core.PatternKeyword)
	require.Len(t, active, 1)
	assert.Equal(t, "viagra", active[0].Body)
}

func TestParseStructuralRule(t *testing.T) {
	tests := []struct {
		body          string
		wantRule      string
		wantThreshold float64
		wantErr       bool
	}{
		{body: "max_links:3", wantRule: "max_links", wantThreshold: 3},
		{body: "caps_ratio:0.5", wantRule: "caps_ratio", wantThreshold: 0.5},
		{body: "min_length", wantErr: true},
		{body: ":3", wantErr: true},
		{body: "max_links:", wantErr: true},
		{body: "max_links:abc", wantErr: true},
	}

	for _, tt := range tests {
		rule, threshold, err := ParseStructuralRule(tt.body)
		if tt.wantErr {
			assert.Error(t, err, "body %q", tt.body)
			continue
		}
		require.NoError(t, err, "body %q", tt.body)
		assert.Equal(t, tt.wantRule, rule)
		assert.InDelta(t, tt.wantThreshold, threshold, 1e-9)
	}
}

func TestDefaultPatternsAllCompile(t *testing.T) {
	store := NewStoreWithDefaults(zap.NewNop())

	assert.Len(t, store.ActivePatterns(core.PatternRegex), 5)
	assert.Len(t, store.ActivePatterns(core.PatternKeyword), 3)
	assert.Len(t, store.ActivePatterns(core.PatternPhrase), 5)
	assert.Len(t, store.ActivePatterns(core.PatternStructural), 7)
}

func TestStoreRecordsMatches(t *testing.T) {
	store := NewStoreWithDefaults(zap.NewNop())
	store.RecordMatch("pharma_spam", 1500)
	store.RecordMatch("pharma_spam", 500)

	stats := store.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "pharma_spam", stats[0].Name)
	assert.EqualValues(t, 2, stats[0].Matches)
}
