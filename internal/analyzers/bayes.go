package analyzers

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// Corpus holds per-token spam and ham observation counts for the bayesian
// analyzer. Training and scoring may run concurrently; a read-write mutex
// guards the maps since token updates are not per-key independent.
type Corpus struct {
	mu         sync.RWMutex
	spamTokens map[string]int
	hamTokens  map[string]int
	spamDocs   int
	hamDocs    int
}

// NewCorpus creates an empty training corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		spamTokens: make(map[string]int),
		hamTokens:  make(map[string]int),
	}
}

// Train adds one labeled document to the corpus.
func (c *Corpus) Train(text string, spam bool) {
	tokens := tokenize(text)
	c.mu.Lock()
	defer c.mu.Unlock()

	if spam {
		c.spamDocs++
		for _, t := range tokens {
			c.spamTokens[t]++
		}
	} else {
		c.hamDocs++
		for _, t := range tokens {
			c.hamTokens[t]++
		}
	}
}

// TrainedDocs returns the total number of labeled documents.
func (c *Corpus) TrainedDocs() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spamDocs + c.hamDocs
}

// tokenProbability returns the spam probability of one token, clamped away
// from 0 and 1 so a single token can never dominate the combined estimate.
func (c *Corpus) tokenProbability(token string) (float64, bool) {
	spamFreq := float64(c.spamTokens[token])
	hamFreq := float64(c.hamTokens[token])
	if spamFreq+hamFreq < 1 {
		return 0, false
	}

	spamRate := spamFreq / math.Max(1, float64(c.spamDocs))
	hamRate := hamFreq / math.Max(1, float64(c.hamDocs))
	p := spamRate / (spamRate + hamRate)
	return math.Min(0.99, math.Max(0.01, p)), true
}

// Score combines the most decisive token probabilities into one spam
// probability for the text.
func (c *Corpus) Score(text string) float64 {
	const maxDecisive = 15

	c.mu.RLock()
	defer c.mu.RUnlock()

	var probs []float64
	for _, t := range tokenize(text) {
		if p, ok := c.tokenProbability(t); ok {
			probs = append(probs, p)
		}
	}
	if len(probs) == 0 {
		return 0.5
	}

	// Keep the tokens furthest from neutral.
	sort.Slice(probs, func(i, j int) bool {
		return math.Abs(probs[i]-0.5) > math.Abs(probs[j]-0.5)
	})
	if len(probs) > maxDecisive {
		probs = probs[:maxDecisive]
	}

	num, den := 1.0, 1.0
	for _, p := range probs {
		num *= p
		den *= 1 - p
	}
	return num / (num + den)
}

// tokenize lowercases and splits text into word tokens of useful length.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 && len(f) <= 24 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// BayesianAnalyzer scores submissions against the trained token corpus. The
// method is unavailable until the corpus has seen enough labeled documents to
// produce estimates worth weighting.
type BayesianAnalyzer struct {
	corpus     *Corpus
	minSamples int
	logger     *zap.Logger
}

// NewBayesianAnalyzer creates a bayesian analyzer over the given corpus.
func NewBayesianAnalyzer(corpus *Corpus, minSamples int, logger *zap.Logger) *BayesianAnalyzer {
	if minSamples <= 0 {
		minSamples = 20
	}
	return &BayesianAnalyzer{corpus: corpus, minSamples: minSamples, logger: logger}
}

// Method returns the method identifier for this analyzer.
func (a *BayesianAnalyzer) Method() core.Method {
	return core.MethodBayesian
}

// Analyze scores the flattened text against the corpus.
func (a *BayesianAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	if a.corpus.TrainedDocs() < a.minSamples {
		return nil, core.ErrUnavailable
	}

	score := clamp01(a.corpus.Score(sub.Text))
	result := &core.MethodResult{Score: score}
	if score >= 0.8 {
		result.Tags = append(result.Tags, "bayesian_spam")
	}
	return result, nil
}
