package factory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/patterns"
)

// PatternFactory creates pattern stores based on configuration
type PatternFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPatternFactory creates a new pattern store factory
func NewPatternFactory(cfg *config.Config, logger *zap.Logger) *PatternFactory {
	return &PatternFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePatternStore creates a pattern store from the configured source. The
// postgres source overlays database patterns on top of the builtin set.
func (f *PatternFactory) CreatePatternStore() (*patterns.Store, error) {
	patternsCfg := f.cfg.GetPatterns()

	switch patternsCfg.Source {
	case "builtin":
		return patterns.NewStoreWithDefaults(f.logger), nil
	case "postgres":
		source, err := patterns.NewPostgresSource(patternsCfg.PostgresDSN, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open pattern source: %w", err)
		}
		defer source.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		defs, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load patterns: %w", err)
		}

		store := patterns.NewStoreWithDefaults(f.logger)
		if !store.UpdatePatterns(defs) {
			f.logger.Warn("Some database patterns were rejected during load")
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported pattern source: %s", patternsCfg.Source)
	}
}
