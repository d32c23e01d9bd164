package core

import (
	"sync/atomic"
	"time"
)

// methodCounters accumulates per-method usage with lock-free counters. Scores
// are accumulated in thousandths so they fit an integer counter.
type methodCounters struct {
	uses          atomic.Int64
	scoreMillsSum atomic.Int64
}

// Statistics aggregates detection outcomes across the life of the service.
// The method map is fixed at construction over the full method enumeration,
// so recording never writes to the map itself and is safe under concurrency.
type Statistics struct {
	totalAnalyzed   atomic.Int64
	spamDetected    atomic.Int64
	cleanPassed     atomic.Int64
	errorResults    atomic.Int64
	earlyExits      atomic.Int64
	cacheHits       atomic.Int64
	processingNanos atomic.Int64
	methods         map[Method]*methodCounters
}

// NewStatistics creates an empty statistics aggregate.
func NewStatistics() *Statistics {
	methods := make(map[Method]*methodCounters, len(KnownMethods))
	for _, m := range KnownMethods {
		methods[m] = &methodCounters{}
	}
	return &Statistics{methods: methods}
}

// Record folds one detection result into the aggregate.
func (s *Statistics) Record(result *DetectionResult) {
	s.totalAnalyzed.Add(1)
	s.processingNanos.Add(int64(result.ProcessingTime))

	switch {
	case result.FailureReason != "":
		s.errorResults.Add(1)
	case result.IsSpam:
		s.spamDetected.Add(1)
	default:
		s.cleanPassed.Add(1)
	}

	if result.EarlyExit {
		s.earlyExits.Add(1)
	}
	if result.Cached {
		s.cacheHits.Add(1)
	}

	for method, score := range result.MethodScores {
		c, ok := s.methods[method]
		if !ok {
			continue
		}
		c.uses.Add(1)
		c.scoreMillsSum.Add(int64(score * 1000))
	}
}

// MethodUsage is the exported per-method aggregate.
type MethodUsage struct {
	Uses         int64   `json:"uses"`
	AverageScore float64 `json:"average_score"`
}

// StatsSnapshot is a point-in-time copy of the aggregate counters.
type StatsSnapshot struct {
	TotalAnalyzed     int64                 `json:"total_analyzed"`
	SpamDetected      int64                 `json:"spam_detected"`
	CleanPassed       int64                 `json:"clean_passed"`
	ErrorResults      int64                 `json:"error_results"`
	EarlyExits        int64                 `json:"early_exits"`
	CacheHits         int64                 `json:"cache_hits"`
	AvgProcessingTime time.Duration         `json:"avg_processing_time"`
	Methods           map[Method]MethodUsage `json:"methods"`
}

// Snapshot copies the current counter values. Counters keep moving while the
// snapshot is taken, so totals are approximate under load.
func (s *Statistics) Snapshot() StatsSnapshot {
	total := s.totalAnalyzed.Load()
	snap := StatsSnapshot{
		TotalAnalyzed: total,
		SpamDetected:  s.spamDetected.Load(),
		CleanPassed:   s.cleanPassed.Load(),
		ErrorResults:  s.errorResults.Load(),
		EarlyExits:    s.earlyExits.Load(),
		CacheHits:     s.cacheHits.Load(),
		Methods:       make(map[Method]MethodUsage, len(s.methods)),
	}
	if total > 0 {
		snap.AvgProcessingTime = time.Duration(s.processingNanos.Load() / total)
	}
	for method, c := range s.methods {
		uses := c.uses.Load()
		usage := MethodUsage{Uses: uses}
		if uses > 0 {
			usage.AverageScore = float64(c.scoreMillsSum.Load()) / float64(uses) / 1000
		}
		snap.Methods[method] = usage
	}
	return snap
}
