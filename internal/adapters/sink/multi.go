package sink

import (
	"github.com/formsentry/spam-detector/internal/core"
)

// MultiSink fans events out to every configured sink in order.
type MultiSink struct {
	sinks []core.EventSink
}

// NewMultiSink creates a fan-out sink
func NewMultiSink(sinks ...core.EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordDetection forwards the result to every sink
func (m *MultiSink) RecordDetection(result *core.DetectionResult) {
	for _, s := range m.sinks {
		s.RecordDetection(result)
	}
}

// RecordDegradation forwards the event to every sink
func (m *MultiSink) RecordDegradation(component string, err error) {
	for _, s := range m.sinks {
		s.RecordDegradation(component, err)
	}
}

// RecordPatternTimeout forwards the event to every sink
func (m *MultiSink) RecordPatternTimeout(pattern string) {
	for _, s := range m.sinks {
		s.RecordPatternTimeout(pattern)
	}
}

// NoopSink discards all events. Useful as a default and in tests.
type NoopSink struct{}

// NewNoopSink creates a sink that discards everything
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (NoopSink) RecordDetection(result *core.DetectionResult)  {}
func (NoopSink) RecordDegradation(component string, err error) {}
func (NoopSink) RecordPatternTimeout(pattern string)           {}
