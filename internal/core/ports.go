package core

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// ErrUnavailable is returned by a method analyzer when the data or service it
// depends on is absent. An unavailable method is excluded from weighting
// entirely; it is never coerced to a score of zero.
var ErrUnavailable = errors.New("method unavailable")

// SpamPattern is a validated, ready-to-execute detection pattern as exposed by
// the pattern store. Regex kinds carry a compiled expression; keyword and
// phrase kinds carry a pre-normalized body. Instances are shared between
// concurrent readers and must never be mutated after publication.
type SpamPattern struct {
	Name          string
	Kind          PatternKind
	Body          string
	CaseSensitive bool
	WholeWord     bool
	RiskWeight    int
	Priority      int
	Regexp        *regexp.Regexp // nil for non-regex kinds
}

// PatternStore provides read access to the active pattern set.
type PatternStore interface {
	// ActivePatterns returns the enabled patterns of the given kind in
	// priority-ascending order. The returned slice is a stable snapshot
	// shared between callers and must be treated as read-only.
	ActivePatterns(kind PatternKind) []SpamPattern

	// RecordMatch records one match of the named pattern together with its
	// matching duration. Safe for concurrent use; never blocks analysis.
	RecordMatch(name string, elapsed time.Duration)
}

// RateLimiter tracks submission counts per identifier across configured
// windows.
type RateLimiter interface {
	// CheckAndIncrement checks every configured window for the identifier
	// before incrementing any of them. When all windows are below their
	// limits the counters are incremented and allowed is true; when any
	// window is at its limit nothing is incremented and allowed is false.
	// An empty identifier fails open with no usage data.
	CheckAndIncrement(ctx context.Context, identifier string, authenticated bool) (allowed bool, usage []WindowUsage, err error)
}

// KeyValueStore is the injected store used for result memoization. Values are
// opaque bytes with a TTL; correctness never depends on entries surviving.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AIClient is the optional external classifier consulted by the AI analyzer.
type AIClient interface {
	// ClassifySubmission scores the flattened submission text. It must honor
	// ctx cancellation; the caller applies its own timeout.
	ClassifySubmission(ctx context.Context, text string) (*AIVerdict, error)
}

// MethodAnalyzer is one detection algorithm producing a score in [0, 1] for
// one submission. Analyzers are pure with respect to their inputs apart from
// telemetry side effects such as pattern match recording. Returning
// ErrUnavailable signals that the method could not run at all.
type MethodAnalyzer interface {
	Method() Method
	Analyze(ctx context.Context, sub *Submission) (*MethodResult, error)
}

// EventSink receives detection outcomes and degradation events as side
// effects. Implementations must be safe for concurrent use and must never
// block the analysis path.
type EventSink interface {
	RecordDetection(result *DetectionResult)
	RecordDegradation(component string, err error)
	RecordPatternTimeout(pattern string)
}
