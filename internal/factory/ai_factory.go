package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/adapters/bedrock"
	"github.com/formsentry/spam-detector/internal/adapters/gemini"
	"github.com/formsentry/spam-detector/internal/adapters/openai"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/utils"
)

// AIFactory creates AI classification clients
type AIFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAIFactory creates a new AI factory
func NewAIFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *AIFactory {
	return &AIFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAIClient creates a new AI client based on the configuration
func (f *AIFactory) CreateAIClient() (core.AIClient, error) {
	aiConfig := f.cfg.GetAI()

	switch aiConfig.Provider {
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", aiConfig.Provider)
	}
}
