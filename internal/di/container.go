package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/adapters/consumer"
	"github.com/formsentry/spam-detector/internal/analyzers"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/factory"
	"github.com/formsentry/spam-detector/internal/logging"
	"github.com/formsentry/spam-detector/internal/patterns"
	"github.com/formsentry/spam-detector/internal/ports"
	"github.com/formsentry/spam-detector/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewKVFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLimiterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSinkFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewPatternFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewDetectorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register key-value store
	if err := container.Provide(func(f *factory.KVFactory) (core.KeyValueStore, error) {
		return f.CreateKeyValueStore()
	}); err != nil {
		return nil, err
	}

	// Register rate limiter
	if err := container.Provide(func(f *factory.LimiterFactory) (core.RateLimiter, error) {
		return f.CreateRateLimiter()
	}); err != nil {
		return nil, err
	}

	// Register event sink
	if err := container.Provide(func(f *factory.SinkFactory) (core.EventSink, error) {
		return f.CreateEventSink()
	}); err != nil {
		return nil, err
	}

	// Register pattern store
	if err := container.Provide(func(f *factory.PatternFactory) (*patterns.Store, error) {
		return f.CreatePatternStore()
	}); err != nil {
		return nil, err
	}

	// Register bayesian corpus
	if err := container.Provide(analyzers.NewCorpus); err != nil {
		return nil, err
	}

	// Register analyzer set
	if err := container.Provide(func(
		f *factory.DetectorFactory,
		store *patterns.Store,
		corpus *analyzers.Corpus,
		sink core.EventSink,
	) ([]core.MethodAnalyzer, error) {
		return f.CreateAnalyzers(store, corpus, sink)
	}); err != nil {
		return nil, err
	}

	// Register detection service
	if err := container.Provide(func(
		f *factory.DetectorFactory,
		analyzerSet []core.MethodAnalyzer,
		limiter core.RateLimiter,
		cache core.KeyValueStore,
		sink core.EventSink,
		textProcessor *utils.TextProcessor,
	) (*core.DetectionService, error) {
		return f.CreateDetectionService(analyzerSet, limiter, cache, sink, textProcessor)
	}); err != nil {
		return nil, err
	}

	// Register submission consumer
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.DetectionService,
		logger *zap.Logger,
	) ports.SubmissionConsumer {
		serverCfg := cfg.GetServer()
		return consumer.NewNATSConsumer(
			service,
			serverCfg.NATSURL,
			serverCfg.Subject,
			serverCfg.ResultSubject,
			30*time.Second,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
