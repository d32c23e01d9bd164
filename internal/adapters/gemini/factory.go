package gemini

import (
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/utils"
)

// Factory creates Gemini clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new Gemini client
func (f *Factory) CreateClient() (*Client, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
