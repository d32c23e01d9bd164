package analyzers

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// KeywordAnalyzer performs case-normalized substring and whole-word search
// against the keyword and phrase pattern sets. Unlike regex matches, keyword
// hits compound: independent hits are additive evidence up to the ceiling.
type KeywordAnalyzer struct {
	store      core.PatternStore
	combinator Combinator
	logger     *zap.Logger
}

// NewKeywordAnalyzer creates a keyword analyzer.
func NewKeywordAnalyzer(store core.PatternStore, combinator Combinator, logger *zap.Logger) *KeywordAnalyzer {
	return &KeywordAnalyzer{
		store:      store,
		combinator: combinator,
		logger:     logger,
	}
}

// Method returns the method identifier for this analyzer.
func (a *KeywordAnalyzer) Method() core.Method {
	return core.MethodKeyword
}

// Analyze searches the flattened text for keyword and phrase patterns.
func (a *KeywordAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	lowered := strings.ToLower(sub.Text)
	result := &core.MethodResult{}

	for _, kind := range []core.PatternKind{core.PatternKeyword, core.PatternPhrase} {
		for _, pattern := range a.store.ActivePatterns(kind) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			haystack := lowered
			if pattern.CaseSensitive {
				haystack = sub.Text
			}

			start := time.Now()
			var hit bool
			if pattern.WholeWord {
				hit = containsWholeWord(haystack, pattern.Body)
			} else {
				hit = strings.Contains(haystack, pattern.Body)
			}
			if !hit {
				continue
			}

			a.store.RecordMatch(pattern.Name, time.Since(start))
			result.Tags = append(result.Tags, pattern.Name)

			risk := float64(pattern.RiskWeight) / 100
			if a.combinator == CombinatorMax {
				if risk > result.Score {
					result.Score = risk
				}
			} else {
				result.Score += risk
			}
		}
	}

	result.Score = clamp01(result.Score)
	return result, nil
}

// containsWholeWord reports whether needle occurs in haystack bounded by
// non-alphanumeric runes on both sides.
func containsWholeWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for offset := 0; ; {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		abs := offset + idx
		prev, _ := utf8.DecodeLastRuneInString(haystack[:abs])
		before := abs == 0 || isBoundary(prev)
		afterIdx := abs + len(needle)
		next, _ := utf8.DecodeRuneInString(haystack[afterIdx:])
		after := afterIdx >= len(haystack) || isBoundary(next)
		if before && after {
			return true
		}
		offset = abs + 1
	}
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
