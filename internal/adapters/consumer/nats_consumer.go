// Package consumer provides the NATS submission consumer: it receives form
// submissions from a request subject, runs them through the detection
// service, and publishes verdicts to a result subject.
package consumer

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

// submissionRequest is the wire form of one inbound submission.
type submissionRequest struct {
	FormData map[string]any    `json:"form_data"`
	Context  submissionContext `json:"context"`
}

type submissionContext struct {
	Identifier          string            `json:"identifier"`
	FormType            string            `json:"form_type"`
	UserAgent           string            `json:"user_agent"`
	Authenticated       bool              `json:"authenticated"`
	SubmissionFrequency int               `json:"submission_frequency"`
	Metadata            map[string]string `json:"metadata"`
	Geo                 *geoData          `json:"geo,omitempty"`
}

type geoData struct {
	CountryCode     string  `json:"country_code"`
	ASN             string  `json:"asn"`
	Anonymizer      bool    `json:"anonymizer"`
	ReputationScore float64 `json:"reputation_score"`
	HasReputation   bool    `json:"has_reputation"`
}

// submissionVerdict is the wire form of one published result.
type submissionVerdict struct {
	ProcessingID   string                  `json:"processing_id"`
	OverallScore   float64                 `json:"overall_score"`
	IsSpam         bool                    `json:"is_spam"`
	Confidence     float64                 `json:"confidence"`
	RiskLevel      core.RiskLevel          `json:"risk_level"`
	ThreatTags     []string                `json:"threat_tags"`
	MethodScores   map[core.Method]float64 `json:"method_scores"`
	Recommendation core.Recommendation     `json:"recommendation"`
	Degraded       bool                    `json:"degraded"`
	FailureReason  string                  `json:"failure_reason,omitempty"`
}

// NATSConsumer subscribes to submission requests and answers with verdicts.
// Replies go to the message reply subject when present, otherwise to the
// configured result subject.
type NATSConsumer struct {
	service       *core.DetectionService
	url           string
	subject       string
	resultSubject string
	requestTTL    time.Duration
	conn          *nats.Conn
	sub           *nats.Subscription
	logger        *zap.Logger
}

// NewNATSConsumer creates a new NATS submission consumer
func NewNATSConsumer(
	service *core.DetectionService,
	url string,
	subject string,
	resultSubject string,
	requestTTL time.Duration,
	logger *zap.Logger,
) *NATSConsumer {
	return &NATSConsumer{
		service:       service,
		url:           url,
		subject:       subject,
		resultSubject: resultSubject,
		requestTTL:    requestTTL,
		logger:        logger,
	}
}

// Start connects to NATS and subscribes to the submission subject
func (c *NATSConsumer) Start() error {
	opts := []nats.Option{
		nats.Name("formsentry-consumer"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	c.conn = conn

	sub, err := conn.QueueSubscribe(c.subject, "formsentry", c.handleMessage)
	if err != nil {
		conn.Close()
		return fmt.Errorf("nats subscribe %s: %w", c.subject, err)
	}
	c.sub = sub

	c.logger.Info("Submission consumer started",
		zap.String("url", conn.ConnectedUrl()),
		zap.String("subject", c.subject))
	return nil
}

// handleMessage analyzes one submission message and publishes the verdict
func (c *NATSConsumer) handleMessage(msg *nats.Msg) {
	var req submissionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		c.logger.Error("Failed to decode submission request", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.requestTTL)
	defer cancel()

	sc := &core.SubmissionContext{
		Identifier:          req.Context.Identifier,
		FormType:            req.Context.FormType,
		UserAgent:           req.Context.UserAgent,
		Authenticated:       req.Context.Authenticated,
		SubmissionFrequency: req.Context.SubmissionFrequency,
		Metadata:            req.Context.Metadata,
		SubmittedAt:         time.Now(),
	}
	if req.Context.Geo != nil {
		sc.Geo = &core.GeoData{
			CountryCode:     req.Context.Geo.CountryCode,
			ASN:             req.Context.Geo.ASN,
			Anonymizer:      req.Context.Geo.Anonymizer,
			ReputationScore: req.Context.Geo.ReputationScore,
			HasReputation:   req.Context.Geo.HasReputation,
		}
	}

	result := c.service.AnalyzeSubmission(ctx, req.FormData, sc)

	verdict := submissionVerdict{
		ProcessingID:   result.ProcessingID,
		OverallScore:   result.OverallScore,
		IsSpam:         result.IsSpam,
		Confidence:     result.Confidence,
		RiskLevel:      result.RiskLevel,
		ThreatTags:     result.ThreatTags,
		MethodScores:   result.MethodScores,
		Recommendation: result.Recommendation,
		Degraded:       result.Degraded,
		FailureReason:  result.FailureReason,
	}
	data, err := json.Marshal(verdict)
	if err != nil {
		c.logger.Error("Failed to encode verdict", zap.Error(err))
		return
	}

	target := c.resultSubject
	if msg.Reply != "" {
		target = msg.Reply
	}
	if err := c.conn.Publish(target, data); err != nil {
		c.logger.Error("Failed to publish verdict",
			zap.String("subject", target),
			zap.Error(err))
	}
}

// Stop drains the subscription and closes the connection
func (c *NATSConsumer) Stop() error {
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			c.logger.Warn("Failed to drain subscription", zap.Error(err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			return fmt.Errorf("nats drain: %w", err)
		}
	}
	c.logger.Info("Submission consumer stopped")
	return nil
}
