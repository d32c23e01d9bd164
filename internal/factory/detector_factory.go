package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/analyzers"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/patterns"
	"github.com/formsentry/spam-detector/internal/utils"
	"github.com/formsentry/spam-detector/internal/whitelist"
)

// DetectorFactory assembles the analyzer pipeline and the detection service
type DetectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config, logger *zap.Logger) *DetectorFactory {
	return &DetectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzers builds the configured analyzer set: the mandatory methods
// plus every optional method enabled in the configuration.
func (f *DetectorFactory) CreateAnalyzers(
	store *patterns.Store,
	corpus *analyzers.Corpus,
	sink core.EventSink,
) ([]core.MethodAnalyzer, error) {
	analyzersCfg, err := f.cfg.GetAnalyzers()
	if err != nil {
		return nil, fmt.Errorf("invalid analyzer configuration: %w", err)
	}
	scoringCfg := f.cfg.GetScoring()

	combinatorFor := func(method string, fallback analyzers.Combinator) analyzers.Combinator {
		return analyzers.ParseCombinator(scoringCfg.Combinators[method], fallback)
	}

	set := []core.MethodAnalyzer{
		analyzers.NewRegexAnalyzer(store, sink, analyzersCfg.PatternBudget,
			combinatorFor("regex", analyzers.CombinatorMax), f.logger),
		analyzers.NewKeywordAnalyzer(store,
			combinatorFor("keyword", analyzers.CombinatorAdditive), f.logger),
		analyzers.NewContentAnalyzer(store, f.logger),
		analyzers.NewBehavioralAnalyzer(analyzersCfg.BehavioralHighFreq, f.logger),
		analyzers.NewRateLimitAnalyzer(f.logger),
	}

	if analyzersCfg.BayesianEnabled {
		set = append(set, analyzers.NewBayesianAnalyzer(corpus, analyzersCfg.BayesianMinSamples, f.logger))
	}
	if analyzersCfg.GeolocationEnabled {
		set = append(set, analyzers.NewGeoAnalyzer(analyzersCfg.HighRiskCountries, f.logger))
	}
	if analyzersCfg.IPReputationEnable {
		set = append(set, analyzers.NewIPReputationAnalyzer(f.logger))
	}
	if analyzersCfg.AIEnabled {
		aiFactory := NewAIFactory(f.cfg, f.logger, utils.NewTextProcessor(f.logger))
		client, err := aiFactory.CreateAIClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		set = append(set, analyzers.NewAIAnalyzer(client, analyzersCfg.AITimeout, f.logger))
	}

	return set, nil
}

// CreateDetectionService wires the analyzers, calculator, and orchestration
// pieces into a ready detection service.
func (f *DetectorFactory) CreateDetectionService(
	analyzerSet []core.MethodAnalyzer,
	limiter core.RateLimiter,
	cache core.KeyValueStore,
	sink core.EventSink,
	textProcessor *utils.TextProcessor,
) (*core.DetectionService, error) {
	scoringCfg := f.cfg.GetScoring()
	spamCfg := f.cfg.GetSpam()
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	weights := make(map[core.Method]float64, len(scoringCfg.Weights))
	for method, w := range scoringCfg.Weights {
		weights[core.Method(method)] = w
	}

	calc, err := core.NewScoreCalculator(core.ScoringOptions{
		Weights:              weights,
		Threshold:            spamCfg.Threshold,
		FormThresholds:       spamCfg.FormThresholds,
		ReferenceMethodCount: scoringCfg.ReferenceMethodCount,
		HighConfidence:       scoringCfg.HighConfidence,
		ContextRules:         scoringCfg.ContextRules,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create score calculator: %w", err)
	}

	submissionAnalyzer, err := core.NewSubmissionAnalyzer(
		analyzerSet,
		scoringCfg.EarlyExitThreshold,
		scoringCfg.MinMethodsBeforeExit,
		sink,
		f.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission analyzer: %w", err)
	}

	trust := whitelist.NewChecker(spamCfg.TrustedIdentifiers, spamCfg.TrustedDomains, f.logger)

	return core.NewDetectionService(
		submissionAnalyzer,
		calc,
		limiter,
		cache,
		sink,
		trust,
		textProcessor,
		core.ServiceOptions{
			CacheEnabled: cacheCfg.Enabled,
			CacheTTL:     cacheCfg.TTL,
			MaxTextSize:  spamCfg.MaxTextSize,
		},
		f.logger,
	), nil
}
