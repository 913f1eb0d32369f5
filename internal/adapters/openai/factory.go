package openai

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// Factory creates OpenAI clients
type Factory struct {
	cfg           config.OpenAIConfig
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new OpenAI factory
func NewFactory(cfg config.OpenAIConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new OpenAI LLM client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	return f.create(), nil
}

// CreateSummarizer creates a streaming summarizer backed by the same client
func (f *Factory) CreateSummarizer() core.Summarizer {
	return f.create()
}

func (f *Factory) create() *OpenAIClient {
	return NewOpenAIClient(
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
