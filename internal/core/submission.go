package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// AnalysisOutcome collects everything the analyzer pipeline produced for one
// submission before scoring.
type AnalysisOutcome struct {
	Scores    map[Method]float64
	Tags      []string
	Degraded  bool
	EarlyExit bool
}

// SubmissionAnalyzer runs the registered method analyzers against one
// submission. Mandatory methods run first in registration order, optional
// methods after, cheapest first, so the early-exit check sees the broad
// signals before any expensive external call is made.
type SubmissionAnalyzer struct {
	analyzers          []MethodAnalyzer
	earlyExitThreshold float64
	minBeforeExit      int
	sink               EventSink
	logger             *zap.Logger
}

// NewSubmissionAnalyzer validates the analyzer set against the method
// enumeration and the mandatory-method requirement.
func NewSubmissionAnalyzer(
	analyzers []MethodAnalyzer,
	earlyExitThreshold float64,
	minBeforeExit int,
	sink EventSink,
	logger *zap.Logger,
) (*SubmissionAnalyzer, error) {
	seen := make(map[Method]bool, len(analyzers))
	for _, a := range analyzers {
		m := a.Method()
		if !IsKnownMethod(m) {
			return nil, fmt.Errorf("analyzer registered for unknown method %q", m)
		}
		if seen[m] {
			return nil, fmt.Errorf("duplicate analyzer for method %q", m)
		}
		seen[m] = true
	}
	for _, m := range MandatoryMethods {
		if !seen[m] {
			return nil, fmt.Errorf("mandatory method %q has no analyzer", m)
		}
	}
	if earlyExitThreshold <= 0 || earlyExitThreshold > 1 {
		return nil, fmt.Errorf("early exit threshold %f outside (0,1]", earlyExitThreshold)
	}
	if minBeforeExit < 1 {
		return nil, fmt.Errorf("min methods before exit must be at least 1")
	}

	ordered := make([]MethodAnalyzer, 0, len(analyzers))
	for _, m := range MandatoryMethods {
		for _, a := range analyzers {
			if a.Method() == m {
				ordered = append(ordered, a)
			}
		}
	}
	for _, a := range analyzers {
		if !isMandatory(a.Method()) {
			ordered = append(ordered, a)
		}
	}

	return &SubmissionAnalyzer{
		analyzers:          ordered,
		earlyExitThreshold: earlyExitThreshold,
		minBeforeExit:      minBeforeExit,
		sink:               sink,
		logger:             logger,
	}, nil
}

func isMandatory(m Method) bool {
	for _, k := range MandatoryMethods {
		if k == m {
			return true
		}
	}
	return false
}

// Analyze runs each analyzer in order and collects scores and tags. A failed
// or panicking analyzer marks the outcome degraded and the remaining methods
// still run; an unavailable analyzer is skipped silently. Once the minimum
// method count has been reached, a score at or above the early-exit threshold
// stops the pipeline.
func (s *SubmissionAnalyzer) Analyze(ctx context.Context, sub *Submission) *AnalysisOutcome {
	outcome := &AnalysisOutcome{
		Scores: make(map[Method]float64, len(s.analyzers)),
	}

	for _, analyzer := range s.analyzers {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("analysis cancelled",
				zap.String("method", string(analyzer.Method())),
				zap.Error(err))
			outcome.Degraded = true
			break
		}

		method := analyzer.Method()
		result, err := s.runOne(ctx, analyzer, sub)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				s.logger.Debug("method unavailable, skipping",
					zap.String("method", string(method)))
				continue
			}
			s.logger.Error("method analyzer failed",
				zap.String("method", string(method)),
				zap.Error(err))
			outcome.Degraded = true
			s.sink.RecordDegradation(string(method), err)
			continue
		}

		score := result.Score
		if math.IsNaN(score) || math.IsInf(score, 0) {
			s.logger.Error("method produced non-finite score",
				zap.String("method", string(method)))
			outcome.Degraded = true
			s.sink.RecordDegradation(string(method), fmt.Errorf("non-finite score"))
			continue
		}
		score = clampScore(score)

		outcome.Scores[method] = score
		outcome.Tags = append(outcome.Tags, result.Tags...)

		if len(outcome.Scores) >= s.minBeforeExit && score >= s.earlyExitThreshold {
			s.logger.Debug("early exit triggered",
				zap.String("method", string(method)),
				zap.Float64("score", score))
			outcome.EarlyExit = true
			break
		}
	}

	return outcome
}

// runOne executes a single analyzer, converting a panic into an error so one
// misbehaving method can never take down the whole analysis.
func (s *SubmissionAnalyzer) runOne(ctx context.Context, analyzer MethodAnalyzer, sub *Submission) (result *MethodResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("analyzer panicked: %v", r)
		}
	}()

	result, err = analyzer.Analyze(ctx, sub)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("analyzer returned nil result")
	}
	return result, nil
}
