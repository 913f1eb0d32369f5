package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-triage/internal/adapters/gemini"
	"github.com/mikey/llm-mail-triage/internal/adapters/openai"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	switch f.cfg.GetLLM().Provider {
	case "openai":
		factory := openai.NewFactory(f.cfg.GetOpenAI(), f.logger, f.textProcessor)
		return factory.CreateLLMClient()
	case "gemini":
		factory := gemini.NewFactory(f.cfg.GetGemini(), f.logger, f.textProcessor)
		return factory.CreateLLMClient()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg.GetBedrock(), f.logger, f.textProcessor)
		return factory.CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", f.cfg.GetLLM().Provider)
	}
}

// CreateSummarizer creates a streaming summarizer when the configured
// provider supports one. A nil summarizer means the capability is
// unavailable for the session.
func (f *LLMFactory) CreateSummarizer() core.Summarizer {
	switch f.cfg.GetLLM().Provider {
	case "openai":
		factory := openai.NewFactory(f.cfg.GetOpenAI(), f.logger, f.textProcessor)
		return factory.CreateSummarizer()
	default:
		return nil
	}
}
