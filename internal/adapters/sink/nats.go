package sink

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

// detectionEvent is the wire form of a detection outcome published to NATS.
type detectionEvent struct {
	ProcessingID   string                  `json:"processing_id"`
	OverallScore   float64                 `json:"overall_score"`
	IsSpam         bool                    `json:"is_spam"`
	Confidence     float64                 `json:"confidence"`
	RiskLevel      core.RiskLevel          `json:"risk_level"`
	ThreatTags     []string                `json:"threat_tags"`
	MethodScores   map[core.Method]float64 `json:"method_scores"`
	Recommendation core.Recommendation     `json:"recommendation"`
	Degraded       bool                    `json:"degraded"`
	EarlyExit      bool                    `json:"early_exit"`
	FailureReason  string                  `json:"failure_reason,omitempty"`
	AnalyzedAt     time.Time               `json:"analyzed_at"`
}

// NATSSink publishes detection outcomes to a NATS subject so downstream
// consumers (moderation queues, audit trails) can react to verdicts.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// NewNATSSink connects to NATS and returns a ready sink
func NewNATSSink(url, subject, name string, logger *zap.Logger) (*NATSSink, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))

	return &NATSSink{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}, nil
}

// RecordDetection publishes the detection outcome. Publish failures are
// logged and swallowed so the analysis path never blocks on the broker.
func (s *NATSSink) RecordDetection(result *core.DetectionResult) {
	event := detectionEvent{
		ProcessingID:   result.ProcessingID,
		OverallScore:   result.OverallScore,
		IsSpam:         result.IsSpam,
		Confidence:     result.Confidence,
		RiskLevel:      result.RiskLevel,
		ThreatTags:     result.ThreatTags,
		MethodScores:   result.MethodScores,
		Recommendation: result.Recommendation,
		Degraded:       result.Degraded,
		EarlyExit:      result.EarlyExit,
		FailureReason:  result.FailureReason,
		AnalyzedAt:     result.AnalyzedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to encode detection event", zap.Error(err))
		return
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		s.logger.Error("Failed to publish detection event",
			zap.String("subject", s.subject),
			zap.Error(err))
	}
}

// RecordDegradation is a no-op for the NATS sink; degradations are surfaced
// through logs and metrics.
func (s *NATSSink) RecordDegradation(component string, err error) {}

// RecordPatternTimeout is a no-op for the NATS sink.
func (s *NATSSink) RecordPatternTimeout(pattern string) {}

// Stop drains and closes the NATS connection
func (s *NATSSink) Stop() {
	if err := s.conn.Drain(); err != nil {
		s.logger.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}
