// Package translate implements the translator provider over the LLM client.
package translate

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// Provider creates translator handles backed by the LLM client, one per
// language pair, reused for the whole session
type Provider struct {
	llm    core.LLMClient
	logger *zap.Logger
	source language.Tag

	mu      sync.Mutex
	handles map[string]core.Translator
}

// NewProvider creates a translator provider with English as source
func NewProvider(llm core.LLMClient, logger *zap.Logger) *Provider {
	return &Provider{
		llm:     llm,
		logger:  logger,
		source:  language.English,
		handles: make(map[string]core.Translator),
	}
}

// Translator returns the cached handle for the source-target pair,
// creating it on first use. Invalid language tags are rejected here so a
// bad selection never reaches the inference service.
func (p *Provider) Translator(targetLang string) (core.Translator, error) {
	target, err := language.Parse(targetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language %q: %w", targetLang, err)
	}

	key := fmt.Sprintf("%s-%s", p.source, target)

	p.mu.Lock()
	defer p.mu.Unlock()

	if handle, ok := p.handles[key]; ok {
		return handle, nil
	}

	handle := &llmTranslator{
		llm:        p.llm,
		sourceName: display.English.Tags().Name(p.source),
		targetName: display.English.Tags().Name(target),
	}
	p.handles[key] = handle
	p.logger.Debug("Created translator", zap.String("pair", key))
	return handle, nil
}

// llmTranslator is one cached language-pair handle
type llmTranslator struct {
	llm        core.LLMClient
	sourceName string
	targetName string
}

// Translate translates texts, preserving input order
func (t *llmTranslator) Translate(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return t.llm.Translate(ctx, t.sourceName, t.targetName, texts)
}
