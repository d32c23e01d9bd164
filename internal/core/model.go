package core

import (
	"time"
)

// Method identifies a single detection method. The set of methods is closed:
// analyzers registering any other value are rejected by the submission
// analyzer, and weight configuration is validated against this enumeration.
type Method string

const (
	MethodRegex        Method = "regex"
	MethodKeyword      Method = "keyword"
	MethodContent      Method = "content"
	MethodBehavioral   Method = "behavioral"
	MethodRateLimit    Method = "rate_limit"
	MethodBayesian     Method = "bayesian"
	MethodAI           Method = "ai"
	MethodGeolocation  Method = "geolocation"
	MethodIPReputation Method = "ip_reputation"
)

// MandatoryMethods are always executed for every non-empty submission.
var MandatoryMethods = []Method{
	MethodRegex,
	MethodKeyword,
	MethodContent,
	MethodBehavioral,
	MethodRateLimit,
}

// KnownMethods is the full enumeration of valid method identifiers.
var KnownMethods = []Method{
	MethodRegex,
	MethodKeyword,
	MethodContent,
	MethodBehavioral,
	MethodRateLimit,
	MethodBayesian,
	MethodAI,
	MethodGeolocation,
	MethodIPReputation,
}

// IsKnownMethod reports whether m belongs to the closed method enumeration.
func IsKnownMethod(m Method) bool {
	for _, k := range KnownMethods {
		if k == m {
			return true
		}
	}
	return false
}

// RiskLevel is the discretized severity bucket derived from the overall score.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelFor maps an overall score to its risk tier at fixed 0.2 increments.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 0.8:
		return RiskCritical
	case score >= 0.6:
		return RiskHigh
	case score >= 0.4:
		return RiskMedium
	case score >= 0.2:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// Recommendation is the action suggested to the caller for a submission.
type Recommendation string

const (
	RecommendAllow   Recommendation = "allow"
	RecommendReview  Recommendation = "review"
	RecommendCaptcha Recommendation = "captcha"
	RecommendBlock   Recommendation = "block"
)

// GeoData carries optional geolocation and IP-reputation metadata resolved by
// an upstream provider. Nil means the data was not available for this request.
type GeoData struct {
	CountryCode     string
	ASN             string
	Anonymizer      bool
	ReputationScore float64 // 0.0 = worst reputation, 1.0 = best
	HasReputation   bool
}

// SubmissionContext is an immutable snapshot of one inbound request. It is
// created once by the orchestrator and only read by analyzers.
type SubmissionContext struct {
	Identifier          string
	FormType            string
	UserAgent           string
	Authenticated       bool
	SubmissionFrequency int // submissions seen from this identifier in the last hour
	Geo                 *GeoData
	Metadata            map[string]string
	SubmittedAt         time.Time
}

// WindowUsage reports the post-gate counter state of one rate-limit window.
type WindowUsage struct {
	Name   string
	Count  int64
	Limit  int
	Window time.Duration
}

// Submission bundles everything analyzers need for a single analysis call:
// the raw form fields, the flattened normalized text, and the request context.
type Submission struct {
	Fields     map[string]any
	Text       string
	FieldCount int
	Context    *SubmissionContext
	RateUsage  []WindowUsage
}

// MethodResult is the output of one method analyzer for one submission.
// Score is always within [0.0, 1.0].
type MethodResult struct {
	Score float64
	Tags  []string
}

// PatternKind classifies how a pattern body is interpreted by the matcher.
type PatternKind string

const (
	PatternRegex      PatternKind = "regex"
	PatternKeyword    PatternKind = "keyword"
	PatternPhrase     PatternKind = "phrase"
	PatternStructural PatternKind = "structural"
)

// PatternDefinition is the plain-data form of a detection pattern as supplied
// by pattern-management workflows. Validation and compilation happen in the
// pattern store; effectiveness counters live in a separate tracker so this
// struct stays safe to snapshot for concurrent readers.
type PatternDefinition struct {
	Name          string
	Kind          PatternKind
	Body          string
	CaseSensitive bool
	WholeWord     bool
	RiskWeight    int // [0, 100]
	Priority      int // execution order, ascending
	Enabled       bool
}

// DetectionResult is the final, immutable output of one analysis call.
type DetectionResult struct {
	ProcessingID   string
	OverallScore   float64
	IsSpam         bool
	Confidence     float64
	RiskLevel      RiskLevel
	ThreatTags     []string
	MethodScores   map[Method]float64
	Recommendation Recommendation
	Degraded       bool
	EarlyExit      bool
	Cached         bool
	FailureReason  string
	ProcessingTime time.Duration
	AnalyzedAt     time.Time
}

// AIVerdict is the structured answer returned by an external AI classifier.
type AIVerdict struct {
	IsSpam      bool
	Score       float64
	Confidence  float64
	Explanation string
	ModelUsed   string
}
