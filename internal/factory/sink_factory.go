package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/adapters/sink"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
)

// SinkFactory creates event sinks based on configuration
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEventSink creates the configured sink chain. Logging is always on;
// metrics and NATS publishing are added when enabled.
func (f *SinkFactory) CreateEventSink() (core.EventSink, error) {
	sinkCfg := f.cfg.GetSinks()

	sinks := []core.EventSink{sink.NewZapSink(f.logger)}

	if sinkCfg.MetricsEnabled {
		sinks = append(sinks, sink.NewPrometheusSink())
	}

	if sinkCfg.NATSEnabled {
		natsSink, err := sink.NewNATSSink(sinkCfg.NATSURL, sinkCfg.NATSSubject, "formsentry-sink", f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS sink: %w", err)
		}
		sinks = append(sinks, natsSink)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sink.NewMultiSink(sinks...), nil
}
