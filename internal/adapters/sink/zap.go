// Package sink provides EventSink implementations: structured logging,
// Prometheus metrics, NATS result publishing, and a fan-out combinator.
package sink

import (
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

// ZapSink logs every detection outcome and degradation event as structured
// log entries.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a new logging sink
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// RecordDetection logs a completed detection result
func (s *ZapSink) RecordDetection(result *core.DetectionResult) {
	s.logger.Info("Submission analyzed",
		zap.String("processing_id", result.ProcessingID),
		zap.Float64("overall_score", result.OverallScore),
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("confidence", result.Confidence),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Strings("threat_tags", result.ThreatTags),
		zap.Bool("degraded", result.Degraded),
		zap.Bool("early_exit", result.EarlyExit),
		zap.Bool("cached", result.Cached),
		zap.Duration("processing_time", result.ProcessingTime))
}

// RecordDegradation logs a component failure
func (s *ZapSink) RecordDegradation(component string, err error) {
	s.logger.Warn("Detection component degraded",
		zap.String("component", component),
		zap.Error(err))
}

// RecordPatternTimeout logs a pattern that exceeded its matching budget
func (s *ZapSink) RecordPatternTimeout(pattern string) {
	s.logger.Warn("Pattern exceeded matching budget",
		zap.String("pattern", pattern))
}
