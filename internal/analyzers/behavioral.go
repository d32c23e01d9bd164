package analyzers

import (
	"context"
	"regexp"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

var botUserAgentPattern = regexp.MustCompile(`(?i)(curl|wget|python-requests|go-http-client|libwww|scrapy|headless|phantomjs|bot|spider|crawler)`)

// BehavioralAnalyzer evaluates request-context signals: submission frequency,
// user-agent shape, authentication state, and field-fill patterns. Each
// signal contributes an additive weight; the total is clamped to [0, 1].
type BehavioralAnalyzer struct {
	highFrequency int
	logger        *zap.Logger
}

// NewBehavioralAnalyzer creates a behavioral analyzer. highFrequency is the
// hourly submission count treated as abusive.
func NewBehavioralAnalyzer(highFrequency int, logger *zap.Logger) *BehavioralAnalyzer {
	if highFrequency <= 0 {
		highFrequency = 10
	}
	return &BehavioralAnalyzer{highFrequency: highFrequency, logger: logger}
}

// Method returns the method identifier for this analyzer.
func (a *BehavioralAnalyzer) Method() core.Method {
	return core.MethodBehavioral
}

// Analyze scores the context signals of one submission.
func (a *BehavioralAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	sc := sub.Context
	if sc == nil {
		return nil, core.ErrUnavailable
	}
	result := &core.MethodResult{}

	switch {
	case sc.SubmissionFrequency >= a.highFrequency:
		result.Score += 0.30
		result.Tags = append(result.Tags, "high_frequency")
	case sc.SubmissionFrequency >= a.highFrequency/2:
		result.Score += 0.15
		result.Tags = append(result.Tags, "elevated_frequency")
	}

	if sc.UserAgent == "" {
		result.Score += 0.25
		result.Tags = append(result.Tags, "missing_user_agent")
	} else if botUserAgentPattern.MatchString(sc.UserAgent) {
		result.Score += 0.20
		result.Tags = append(result.Tags, "bot_user_agent")
	}

	if !sc.Authenticated && len(sub.Text) > 2000 {
		result.Score += 0.15
		result.Tags = append(result.Tags, "unauthenticated_longform")
	}

	// Many fields filled with almost nothing is a bot walking a form.
	if sub.FieldCount >= 5 && len(sub.Text)/sub.FieldCount < 4 {
		result.Score += 0.20
		result.Tags = append(result.Tags, "minimal_field_content")
	}

	result.Score = clamp01(result.Score)
	return result, nil
}
