package gemini

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// Factory creates Gemini clients
type Factory struct {
	cfg           config.GeminiConfig
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg config.GeminiConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new Gemini LLM client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	return NewGeminiClient(
		f.cfg.APIKey,
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.cfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
