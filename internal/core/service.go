package core

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/utils"
	"github.com/formsentry/spam-detector/internal/whitelist"
)

// ServiceOptions carries the orchestration knobs of the detection service.
type ServiceOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	MaxTextSize  int
}

// DetectionService is the core service for submission analysis. It owns the
// full pipeline for one submission: trust bypass, the rate gate, the memoized
// lookup, the analyzer run, and the final score reduction.
type DetectionService struct {
	analyzer *SubmissionAnalyzer
	calc     *ScoreCalculator
	limiter  RateLimiter
	cache    KeyValueStore
	sink     EventSink
	stats    *Statistics
	trust    *whitelist.Checker
	text     *utils.TextProcessor
	logger   *zap.Logger
	opts     ServiceOptions
}

// NewDetectionService creates a new detection service.
func NewDetectionService(
	analyzer *SubmissionAnalyzer,
	calc *ScoreCalculator,
	limiter RateLimiter,
	cache KeyValueStore,
	sink EventSink,
	trust *whitelist.Checker,
	text *utils.TextProcessor,
	opts ServiceOptions,
	logger *zap.Logger,
) *DetectionService {
	return &DetectionService{
		analyzer: analyzer,
		calc:     calc,
		limiter:  limiter,
		cache:    cache,
		sink:     sink,
		stats:    NewStatistics(),
		trust:    trust,
		text:     text,
		logger:   logger,
		opts:     opts,
	}
}

// cachedResult is the subset of a detection result that memoization stores.
// Request-scoped fields like the processing ID and timings are never reused.
type cachedResult struct {
	OverallScore   float64            `json:"overall_score"`
	IsSpam         bool               `json:"is_spam"`
	Confidence     float64            `json:"confidence"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	Recommendation Recommendation     `json:"recommendation"`
	ThreatTags     []string           `json:"threat_tags"`
	MethodScores   map[Method]float64 `json:"method_scores"`
	EarlyExit      bool               `json:"early_exit"`
}

// AnalyzeSubmission runs the full detection pipeline for one form submission.
// It always returns a result: infrastructure failures degrade the analysis or
// produce an explicit error-variant result, never an opaque error to the
// caller.
func (s *DetectionService) AnalyzeSubmission(ctx context.Context, formData map[string]any, sc *SubmissionContext) *DetectionResult {
	start := time.Now()
	processingID := uuid.New().String()

	text := s.text.Normalize(s.text.FlattenFields(formData))
	if s.opts.MaxTextSize > 0 {
		text = s.text.TruncateText(text, s.opts.MaxTextSize)
	}

	if len(formData) == 0 || strings.TrimSpace(text) == "" {
		s.logger.Debug("Empty submission, passing clean",
			zap.String("processing_id", processingID))
		return s.finish(cleanResult(processingID, "empty_submission"), start)
	}

	if sc != nil && s.trust != nil && s.trust.IsTrusted(sc.Identifier) {
		s.logger.Info("Skipping analysis for trusted identifier",
			zap.String("processing_id", processingID),
			zap.String("identifier", sc.Identifier),
			zap.String("action", "trust_bypass"))
		return s.finish(cleanResult(processingID, "trusted_identifier"), start)
	}

	// The rate gate runs before the memoized lookup: a cache hit must never
	// let an identifier skip its submission windows.
	degraded := false
	var usage []WindowUsage
	if sc != nil && s.limiter != nil {
		allowed, u, err := s.limiter.CheckAndIncrement(ctx, sc.Identifier, sc.Authenticated)
		switch {
		case err != nil:
			// Rate limiting fails open: scoring continues without usage data.
			s.logger.Error("Rate limiter unavailable, failing open",
				zap.String("processing_id", processingID),
				zap.Error(err))
			s.sink.RecordDegradation("rate_limiter", err)
			degraded = true
		case !allowed:
			s.logger.Warn("Rate limit exceeded, blocking without analysis",
				zap.String("processing_id", processingID),
				zap.String("identifier", sc.Identifier))
			return s.finish(rateLimitedResult(processingID), start)
		default:
			usage = u
		}
	}

	cacheKey := s.cacheKey(text, sc)
	if result := s.cachedLookup(ctx, cacheKey, processingID); result != nil {
		result.Degraded = degraded
		return s.finish(result, start)
	}

	sub := &Submission{
		Fields:     formData,
		Text:       text,
		FieldCount: s.text.CountLeafFields(formData),
		Context:    sc,
		RateUsage:  usage,
	}

	outcome := s.analyzer.Analyze(ctx, sub)
	if len(outcome.Scores) == 0 {
		s.logger.Error("All detection methods failed",
			zap.String("processing_id", processingID))
		return s.finish(errorResult(processingID, "all_methods_failed"), start)
	}

	eval := s.calc.Evaluate(outcome.Scores, sc)
	result := &DetectionResult{
		ProcessingID:   processingID,
		OverallScore:   eval.OverallScore,
		IsSpam:         eval.IsSpam,
		Confidence:     eval.Confidence,
		RiskLevel:      eval.RiskLevel,
		ThreatTags:     dedupeTags(outcome.Tags),
		MethodScores:   outcome.Scores,
		Recommendation: eval.Recommendation,
		Degraded:       degraded || outcome.Degraded,
		EarlyExit:      outcome.EarlyExit,
	}

	s.storeCached(ctx, cacheKey, result)
	return s.finish(result, start)
}

// Stats returns a point-in-time snapshot of the service counters.
func (s *DetectionService) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// finish stamps timing fields and publishes the result to stats and the sink.
func (s *DetectionService) finish(result *DetectionResult, start time.Time) *DetectionResult {
	result.ProcessingTime = time.Since(start)
	result.AnalyzedAt = time.Now()
	s.stats.Record(result)
	s.sink.RecordDetection(result)
	return result
}

// cacheKey derives the memoization key from the normalized content and the
// form type, so identical content on different forms is scored independently.
func (s *DetectionService) cacheKey(text string, sc *SubmissionContext) string {
	formType := ""
	if sc != nil {
		formType = sc.FormType
	}
	return "result:" + s.text.ContentHash(formType+"\x00"+text)
}

// cachedLookup returns a replayed result for the key, or nil on miss. Any
// decode failure is treated as a miss and the entry is dropped.
func (s *DetectionService) cachedLookup(ctx context.Context, key, processingID string) *DetectionResult {
	if !s.opts.CacheEnabled || s.cache == nil {
		return nil
	}

	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil
	}

	var entry cachedResult
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("Dropping undecodable cache entry", zap.Error(err))
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Debug("Failed to delete cache entry", zap.Error(err))
		}
		return nil
	}

	s.logger.Debug("Cache hit for submission content",
		zap.String("processing_id", processingID))
	return &DetectionResult{
		ProcessingID:   processingID,
		OverallScore:   entry.OverallScore,
		IsSpam:         entry.IsSpam,
		Confidence:     entry.Confidence,
		RiskLevel:      entry.RiskLevel,
		ThreatTags:     entry.ThreatTags,
		MethodScores:   entry.MethodScores,
		Recommendation: entry.Recommendation,
		EarlyExit:      entry.EarlyExit,
		Cached:         true,
	}
}

// storeCached memoizes a completed analysis. Degraded results are not stored:
// a replay could otherwise pin an incomplete score for the whole TTL.
func (s *DetectionService) storeCached(ctx context.Context, key string, result *DetectionResult) {
	if !s.opts.CacheEnabled || s.cache == nil || result.Degraded {
		return
	}

	entry := cachedResult{
		OverallScore:   result.OverallScore,
		IsSpam:         result.IsSpam,
		Confidence:     result.Confidence,
		RiskLevel:      result.RiskLevel,
		Recommendation: result.Recommendation,
		ThreatTags:     result.ThreatTags,
		MethodScores:   result.MethodScores,
		EarlyExit:      result.EarlyExit,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("Failed to encode cache entry", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
}

// cleanResult builds a zero-score pass-through result tagged with the reason.
func cleanResult(processingID, tag string) *DetectionResult {
	return &DetectionResult{
		ProcessingID:   processingID,
		OverallScore:   0,
		IsSpam:         false,
		Confidence:     1.0,
		RiskLevel:      RiskMinimal,
		ThreatTags:     []string{tag},
		MethodScores:   map[Method]float64{},
		Recommendation: RecommendAllow,
	}
}

// rateLimitedResult builds the fast-fail verdict for an identifier that has
// exhausted a submission window.
func rateLimitedResult(processingID string) *DetectionResult {
	return &DetectionResult{
		ProcessingID:   processingID,
		OverallScore:   1.0,
		IsSpam:         true,
		Confidence:     1.0,
		RiskLevel:      RiskCritical,
		ThreatTags:     []string{"rate_limit_exceeded"},
		MethodScores:   map[Method]float64{MethodRateLimit: 1.0},
		Recommendation: RecommendBlock,
	}
}

// errorResult builds the explicit error-variant result returned when no
// detection method produced a score. The neutral score keeps the caller from
// treating a broken pipeline as either a clean pass or a hard block.
func errorResult(processingID, reason string) *DetectionResult {
	return &DetectionResult{
		ProcessingID:   processingID,
		OverallScore:   0.5,
		IsSpam:         false,
		Confidence:     0,
		RiskLevel:      RiskLevelFor(0.5),
		ThreatTags:     []string{"analysis_failed"},
		MethodScores:   map[Method]float64{},
		Recommendation: RecommendReview,
		Degraded:       true,
		FailureReason:  reason,
	}
}

// dedupeTags removes duplicates while preserving first-seen order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
