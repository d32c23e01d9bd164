package core

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ScoringOptions configures the score calculator. Weights are per method and
// renormalize automatically over the methods actually present, so skipped
// methods never drag a submission toward clean.
type ScoringOptions struct {
	Weights              map[Method]float64
	Threshold            float64
	FormThresholds       map[string]float64
	ReferenceMethodCount int
	HighConfidence       float64
	ContextRules         map[string]float64
}

// Validate checks the options against the method enumeration and basic
// numeric constraints.
func (o ScoringOptions) Validate() error {
	if len(o.Weights) == 0 {
		return fmt.Errorf("no method weights configured")
	}
	total := 0.0
	for method, w := range o.Weights {
		if !IsKnownMethod(method) {
			return fmt.Errorf("weight configured for unknown method %q", method)
		}
		if w < 0 {
			return fmt.Errorf("negative weight %f for method %q", w, method)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("method weights must sum to a positive total")
	}
	if o.Threshold <= 0 || o.Threshold >= 1 {
		return fmt.Errorf("spam threshold %f outside (0,1)", o.Threshold)
	}
	for form, t := range o.FormThresholds {
		if t <= 0 || t >= 1 {
			return fmt.Errorf("spam threshold %f for form %q outside (0,1)", t, form)
		}
	}
	if o.ReferenceMethodCount <= 0 {
		return fmt.Errorf("reference method count must be positive")
	}
	return nil
}

// Evaluation is the calculator's reduction of a method-score map.
type Evaluation struct {
	OverallScore   float64
	Confidence     float64
	IsSpam         bool
	RiskLevel      RiskLevel
	Recommendation Recommendation
}

// ScoreCalculator reduces a method-score map to one calibrated decision. It
// is a pure function of its options and inputs and holds no per-request
// state, so one instance serves any number of concurrent analyses.
type ScoreCalculator struct {
	opts   ScoringOptions
	logger *zap.Logger
}

// NewScoreCalculator validates the options and creates a calculator.
func NewScoreCalculator(opts ScoringOptions, logger *zap.Logger) (*ScoreCalculator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring options: %w", err)
	}
	return &ScoreCalculator{opts: opts, logger: logger}, nil
}

// WeightedScore computes the weighted mean of the present method scores,
// renormalizing the configured weights over that subset. A method missing
// from the map contributes nothing, in weight or in score.
func (c *ScoreCalculator) WeightedScore(scores map[Method]float64) float64 {
	var weighted, totalWeight float64
	for method, score := range scores {
		w, ok := c.opts.Weights[method]
		if !ok {
			continue
		}
		weighted += clampScore(score) * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0
	}
	return clampScore(weighted / totalWeight)
}

// Confidence derives a confidence estimate from agreement between the
// present method scores and from coverage, each factor in [0, 1].
func (c *ScoreCalculator) Confidence(scores map[Method]float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}

	mean := 0.0
	for _, s := range scores {
		mean += clampScore(s)
	}
	mean /= float64(n)

	variance := 0.0
	for _, s := range scores {
		d := clampScore(s) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(n))

	// Scores live in [0,1] so the standard deviation tops out at 0.5.
	deviationFactor := clampScore(1 - 2*stddev)
	coverageFactor := math.Min(1, float64(n)/float64(c.opts.ReferenceMethodCount))
	return (deviationFactor + coverageFactor) / 2
}

// ContextAdjustment computes the bounded additive delta from the context
// risk indicators enabled in the rule table.
func (c *ScoreCalculator) ContextAdjustment(sc *SubmissionContext) float64 {
	if sc == nil {
		return 0
	}

	delta := 0.0
	for rule, d := range c.opts.ContextRules {
		if contextRuleApplies(rule, sc) {
			delta += d
		}
	}
	return math.Max(-1, math.Min(1, delta))
}

// contextRuleApplies evaluates one named risk indicator against the context.
// Unknown rule names never apply; configuration validation warns about them.
func contextRuleApplies(rule string, sc *SubmissionContext) bool {
	switch rule {
	case "high_frequency":
		return sc.SubmissionFrequency >= 10
	case "missing_user_agent":
		return sc.UserAgent == ""
	case "anonymizer":
		return sc.Geo != nil && sc.Geo.Anonymizer
	case "authenticated":
		return sc.Authenticated
	}
	return false
}

// ThresholdFor returns the spam threshold for a form type, falling back to
// the global default.
func (c *ScoreCalculator) ThresholdFor(formType string) float64 {
	if t, ok := c.opts.FormThresholds[formType]; ok {
		return t
	}
	return c.opts.Threshold
}

// Evaluate reduces the method scores plus context into the final decision.
func (c *ScoreCalculator) Evaluate(scores map[Method]float64, sc *SubmissionContext) Evaluation {
	weighted := c.WeightedScore(scores)
	overall := clampScore(weighted + c.ContextAdjustment(sc))
	confidence := c.Confidence(scores)

	formType := ""
	if sc != nil {
		formType = sc.FormType
	}
	threshold := c.ThresholdFor(formType)
	isSpam := overall >= threshold

	return Evaluation{
		OverallScore:   overall,
		Confidence:     confidence,
		IsSpam:         isSpam,
		RiskLevel:      RiskLevelFor(overall),
		Recommendation: c.recommend(overall, confidence, isSpam, threshold),
	}
}

// recommend derives the suggested action from the decision triple.
func (c *ScoreCalculator) recommend(overall, confidence float64, isSpam bool, threshold float64) Recommendation {
	switch {
	case isSpam && confidence >= c.opts.HighConfidence:
		return RecommendBlock
	case isSpam:
		// high score without high confidence gets a challenge
		return RecommendCaptcha
	case overall >= threshold*0.7 && confidence < 0.5:
		return RecommendReview
	default:
		return RecommendAllow
	}
}

// clampScore bounds a score to [0, 1] and squashes non-finite values to the
// nearest bound so every published score satisfies the finiteness invariant.
func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 1 || math.IsInf(score, 1) {
		return 1
	}
	return score
}
