package analyzers

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/patterns"
	"go.uber.org/zap"
)

// Compiled once at package init and reused for every call; all are safe for
// concurrent use.
var (
	urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Anchored to whitespace/string boundaries to avoid matching random
	// digit sequences embedded in normal words.
	phonePattern = regexp.MustCompile(`(?:^|\s)(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:\s|$)`)
)

// structuralTags maps structural rule names to the threat tag emitted when
// the rule triggers.
var structuralTags = map[string]string{
	"min_length": "short_content",
	"max_length": "oversized_content",
	"max_links":  "excessive_links",
	"caps_ratio": "excessive_caps",
	"repetition": "word_repetition",
	"max_emails": "excessive_emails",
	"max_phones": "excessive_phones",
}

// ContentAnalyzer applies structural heuristics to the raw text: length
// bounds, link density, capitalization, word repetition, and contact-token
// counts. Each triggered rule contributes its weight additively; the total is
// clamped to [0, 1]. The rules themselves come from the pattern store's
// structural kind so operators can tune thresholds without a deploy.
type ContentAnalyzer struct {
	store  core.PatternStore
	logger *zap.Logger
}

// NewContentAnalyzer creates a content analyzer.
func NewContentAnalyzer(store core.PatternStore, logger *zap.Logger) *ContentAnalyzer {
	return &ContentAnalyzer{store: store, logger: logger}
}

// Method returns the method identifier for this analyzer.
func (a *ContentAnalyzer) Method() core.Method {
	return core.MethodContent
}

// Analyze evaluates every structural rule against the flattened text.
func (a *ContentAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	text := strings.TrimSpace(sub.Text)
	result := &core.MethodResult{}

	for _, pattern := range a.store.ActivePatterns(core.PatternStructural) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rule, threshold, err := patterns.ParseStructuralRule(pattern.Body)
		if err != nil {
			// rejected at load time; skip defensively
			continue
		}

		start := time.Now()
		triggered := evaluateStructuralRule(rule, threshold, text)
		if !triggered {
			continue
		}

		a.store.RecordMatch(pattern.Name, time.Since(start))
		result.Score += float64(pattern.RiskWeight) / 100
		if tag, ok := structuralTags[rule]; ok {
			result.Tags = append(result.Tags, tag)
		} else {
			result.Tags = append(result.Tags, rule)
		}
	}

	result.Score = clamp01(result.Score)
	return result, nil
}

// evaluateStructuralRule reports whether one structural heuristic fires.
func evaluateStructuralRule(rule string, threshold float64, text string) bool {
	switch rule {
	case "min_length":
		return len(text) > 0 && len(text) < int(threshold)
	case "max_length":
		return len(text) > int(threshold)
	case "max_links":
		return len(urlPattern.FindAllString(text, -1)) > int(threshold)
	case "caps_ratio":
		return capsRatioExceeds(text, threshold)
	case "repetition":
		return wordRepetitionExceeds(text, threshold)
	case "max_emails":
		return len(emailPattern.FindAllString(text, -1)) > int(threshold)
	case "max_phones":
		return len(phonePattern.FindAllString(text, -1)) > int(threshold)
	}
	return false
}

// capsRatioExceeds reports whether the share of uppercase letters among all
// letters exceeds ratio. Short texts are exempt: all-caps acronyms in a
// couple of words are not shouting.
func capsRatioExceeds(text string, ratio float64) bool {
	const minLetters = 20

	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < minLetters {
		return false
	}
	return float64(upper)/float64(letters) > ratio
}

// wordRepetitionExceeds reports whether the most frequent word accounts for
// more than ratio of all words. Requires at least eight words so short
// phrases do not trip it.
func wordRepetitionExceeds(text string, ratio float64) bool {
	const minWords = 8

	words := strings.Fields(strings.ToLower(text))
	if len(words) < minWords {
		return false
	}

	freq := make(map[string]int, len(words))
	max := 0
	for _, w := range words {
		freq[w]++
		if freq[w] > max {
			max = freq[w]
		}
	}
	return float64(max)/float64(len(words)) > ratio
}
