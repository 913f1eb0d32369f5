package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/gmailapi"
	"github.com/mikey/llm-mail-triage/internal/adapters/translate"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/factory"
	"github.com/mikey/llm-mail-triage/internal/logging"
	"github.com/mikey/llm-mail-triage/internal/triage"
	"github.com/mikey/llm-mail-triage/internal/utils"
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
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewGatewayFactory); err != nil {
		return nil, err
	}

	// Register gateway and credentials
	if err := container.Provide(func(f *factory.GatewayFactory) (*gmailapi.TokenManager, error) {
		return f.CreateTokenManager()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.GatewayFactory, tokens *gmailapi.TokenManager) (core.MailGateway, error) {
		return f.CreateGateway(context.Background(), tokens)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(tokens *gmailapi.TokenManager) triage.CredentialSource {
		return tokens
	}); err != nil {
		return nil, err
	}

	// Register LLM client and optional summarizer
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.LLMFactory) core.Summarizer {
		return f.CreateSummarizer()
	}); err != nil {
		return nil, err
	}

	// Register profile store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ProfileStore, error) {
		return f.CreateProfileStore()
	}); err != nil {
		return nil, err
	}

	// Register session tracker
	if err := container.Provide(core.NewSessionTracker); err != nil {
		return nil, err
	}

	// Register profile builder and cache
	if err := container.Provide(func(cfg *config.Config) (config.ProfileConfig, error) {
		return cfg.GetProfile()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		gateway core.MailGateway,
		llm core.LLMClient,
		store core.ProfileStore,
		logger *zap.Logger,
		profileCfg config.ProfileConfig,
	) *core.ProfileBuilder {
		return core.NewProfileBuilder(gateway, llm, store, logger, core.ProfileBuilderConfig{
			Important:   core.SampleQuery{Query: profileCfg.ImportantQuery, Max: profileCfg.ImportantMax},
			UnreadStale: core.SampleQuery{Query: profileCfg.UnreadQuery, Max: profileCfg.UnreadMax},
			Spam:        core.SampleQuery{Query: profileCfg.SpamQuery, Max: profileCfg.SpamMax},
			Trash:       core.SampleQuery{Query: profileCfg.TrashQuery, Max: profileCfg.TrashMax},
		})
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		store core.ProfileStore,
		builder *core.ProfileBuilder,
		logger *zap.Logger,
		profileCfg config.ProfileConfig,
	) *core.ProfileCache {
		return core.NewProfileCache(store, builder, profileCfg.TTL, logger)
	}); err != nil {
		return nil, err
	}

	// Register scoring engine
	if err := container.Provide(func(cfg *config.Config) (config.ScanConfig, error) {
		return cfg.GetScan()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		gateway core.MailGateway,
		llm core.LLMClient,
		sessions *core.SessionTracker,
		logger *zap.Logger,
		scanCfg config.ScanConfig,
	) *core.ScoringEngine {
		return core.NewScoringEngine(gateway, llm, sessions, logger, core.ScanWindowConfig{
			Query:       scanCfg.Query,
			MaxMessages: scanCfg.MaxMessages,
			BatchSize:   scanCfg.BatchSize,
		})
	}); err != nil {
		return nil, err
	}

	// Register on-demand adapters
	if err := container.Provide(func(summarizer core.Summarizer, logger *zap.Logger) *core.DetailSummarizer {
		return core.NewDetailSummarizer(summarizer, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, llm core.LLMClient, logger *zap.Logger) *core.TranslatorAdapter {
		var provider core.TranslatorProvider
		if cfg.GetBool("translation.enabled") {
			provider = translate.NewProvider(llm, logger)
		}
		return core.NewTranslatorAdapter(provider, logger)
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		gateway core.MailGateway,
		profiles *core.ProfileCache,
		engine *core.ScoringEngine,
		sessions *core.SessionTracker,
		summarizer *core.DetailSummarizer,
		translator *core.TranslatorAdapter,
		store core.ProfileStore,
		creds triage.CredentialSource,
		logger *zap.Logger,
		scanCfg config.ScanConfig,
	) *triage.Service {
		return triage.NewService(gateway, profiles, engine, sessions, summarizer, translator, store, creds, logger, triage.Config{
			LowPriorityEnabled:  scanCfg.LowPriorityEnabled,
			LowPriorityMaxScore: scanCfg.LowPriorityMaxScore,
			LowPriorityLabelID:  scanCfg.LowPriorityLabelID,
		})
	}); err != nil {
		return nil, err
	}

	return container, nil
}
