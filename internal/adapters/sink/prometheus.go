package sink

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/formsentry/spam-detector/internal/core"
)

var (
	// submissionsTotal counts analyzed submissions, labeled by verdict:
	// "spam", "clean", or "error".
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formsentry_submissions_total",
		Help: "Total number of form submissions analyzed",
	}, []string{"verdict"})

	// detectionScore records the distribution of overall spam scores.
	detectionScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "formsentry_detection_score",
		Help:    "Distribution of overall spam scores",
		Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
	})

	// detectionLatency records end-to-end analysis latency in seconds.
	detectionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "formsentry_detection_latency_seconds",
		Help:    "End-to-end submission analysis latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// degradationsTotal counts degradation events, labeled by component.
	degradationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formsentry_degradations_total",
		Help: "Total number of detection component degradations",
	}, []string{"component"})

	// patternTimeoutsTotal counts patterns that exceeded their match budget.
	patternTimeoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formsentry_pattern_timeouts_total",
		Help: "Total number of pattern match budget overruns",
	}, []string{"pattern"})

	// earlyExitsTotal counts analyses that stopped at a decisive score.
	earlyExitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formsentry_early_exits_total",
		Help: "Total number of analyses ended by early exit",
	})

	// cacheHitsTotal counts memoized result replays.
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formsentry_cache_hits_total",
		Help: "Total number of memoized result replays",
	})
)

func init() {
	prometheus.MustRegister(
		submissionsTotal,
		detectionScore,
		detectionLatency,
		degradationsTotal,
		patternTimeoutsTotal,
		earlyExitsTotal,
		cacheHitsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// PrometheusSink publishes detection outcomes as Prometheus metrics.
type PrometheusSink struct{}

// NewPrometheusSink creates a new metrics sink
func NewPrometheusSink() *PrometheusSink {
	return &PrometheusSink{}
}

// RecordDetection updates the submission counters and histograms
func (s *PrometheusSink) RecordDetection(result *core.DetectionResult) {
	verdict := "clean"
	switch {
	case result.FailureReason != "":
		verdict = "error"
	case result.IsSpam:
		verdict = "spam"
	}
	submissionsTotal.WithLabelValues(verdict).Inc()
	detectionScore.Observe(result.OverallScore)
	detectionLatency.Observe(result.ProcessingTime.Seconds())

	if result.EarlyExit {
		earlyExitsTotal.Inc()
	}
	if result.Cached {
		cacheHitsTotal.Inc()
	}
}

// RecordDegradation increments the degradation counter for the component
func (s *PrometheusSink) RecordDegradation(component string, err error) {
	degradationsTotal.WithLabelValues(component).Inc()
}

// RecordPatternTimeout increments the budget overrun counter for the pattern
func (s *PrometheusSink) RecordPatternTimeout(pattern string) {
	patternTimeoutsTotal.WithLabelValues(pattern).Inc()
}
