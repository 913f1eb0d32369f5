package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/translate"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/factory"
	"github.com/mikey/llm-mail-triage/internal/logging"
	"github.com/mikey/llm-mail-triage/internal/triage"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, gemini, bedrock)")
	maxTokens   = flag.Int("max-tokens", 2000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum snippet size to send to the LLM")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-1.5-flash", "Gemini model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gmail flags
	gmailClientID     = flag.String("gmail-client-id", "", "Gmail OAuth client id")
	gmailClientSecret = flag.String("gmail-client-secret", "", "Gmail OAuth client secret")
	gmailTokenPath    = flag.String("gmail-token", "token.json", "Path to the persisted OAuth token")

	// Scan flags
	scanQuery   = flag.String("query", "in:inbox is:unread newer_than:2d", "Scoring window query")
	maxMessages = flag.Int64("max-messages", 7, "Maximum messages per scan")
	batchSize   = flag.Int("batch-size", 5, "Messages per inference batch")

	// Store flags
	storeType  = flag.String("store", "memory", "Profile store (memory, sqlite, mysql)")
	sqlitePath = flag.String("sqlite-path", "triage_profile.db", "SQLite database path")
	mysqlDSN   = flag.String("mysql-dsn", "", "MySQL DSN")

	// On-demand action flags
	summarizeTop = flag.Bool("summarize-top", false, "Stream a detailed summary of the top-ranked message")
	translateTo  = flag.String("translate-to", "", "Translate the top summary to this language tag (e.g. ja, fr)")

	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	if err := runScan(cfg, logger); err != nil {
		logger.Fatal("Scan failed", zap.Error(err))
	}
}

func runScan(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()

	llmFactory := factory.NewLLMFactory(cfg, logger, textProcessor)
	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	summarizer := llmFactory.CreateSummarizer()

	profileStore, err := factory.NewStoreFactory(cfg, logger).CreateProfileStore()
	if err != nil {
		return fmt.Errorf("failed to create profile store: %w", err)
	}

	gatewayFactory := factory.NewGatewayFactory(cfg, logger)
	tokens, err := gatewayFactory.CreateTokenManager()
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	gateway, err := gatewayFactory.CreateGateway(ctx, tokens)
	if err != nil {
		return fmt.Errorf("failed to create mail gateway: %w", err)
	}

	profileCfg, err := cfg.GetProfile()
	if err != nil {
		return fmt.Errorf("invalid profile configuration: %w", err)
	}
	scanCfg, err := cfg.GetScan()
	if err != nil {
		return fmt.Errorf("invalid scan configuration: %w", err)
	}

	sessions := core.NewSessionTracker()
	builder := core.NewProfileBuilder(gateway, llmClient, profileStore, logger, core.ProfileBuilderConfig{
		Important:   core.SampleQuery{Query: profileCfg.ImportantQuery, Max: profileCfg.ImportantMax},
		UnreadStale: core.SampleQuery{Query: profileCfg.UnreadQuery, Max: profileCfg.UnreadMax},
		Spam:        core.SampleQuery{Query: profileCfg.SpamQuery, Max: profileCfg.SpamMax},
		Trash:       core.SampleQuery{Query: profileCfg.TrashQuery, Max: profileCfg.TrashMax},
	})
	profiles := core.NewProfileCache(profileStore, builder, profileCfg.TTL, logger)
	engine := core.NewScoringEngine(gateway, llmClient, sessions, logger, core.ScanWindowConfig{
		Query:       scanCfg.Query,
		MaxMessages: scanCfg.MaxMessages,
		BatchSize:   scanCfg.BatchSize,
	})

	var translatorProvider core.TranslatorProvider
	if cfg.GetBool("translation.enabled") {
		translatorProvider = translate.NewProvider(llmClient, logger)
	}

	service := triage.NewService(
		gateway,
		profiles,
		engine,
		sessions,
		core.NewDetailSummarizer(summarizer, logger),
		core.NewTranslatorAdapter(translatorProvider, logger),
		profileStore,
		tokens,
		logger,
		triage.Config{
			LowPriorityEnabled:  scanCfg.LowPriorityEnabled,
			LowPriorityMaxScore: scanCfg.LowPriorityMaxScore,
			LowPriorityLabelID:  scanCfg.LowPriorityLabelID,
		},
	)

	session, err := service.SignIn(ctx)
	if err != nil {
		return err
	}

	sink := &consoleSink{}
	if err := service.Scan(ctx, session, sink); err != nil {
		return err
	}

	ranked := core.RankByScore(sink.latest)
	if len(ranked) == 0 {
		return nil
	}

	top := ranked[0]
	if *summarizeTop && session.Capabilities().Summarization {
		fmt.Printf("\n=== Detailed Summary: %s ===\n", top.Result.SummarizedTitle)
		points, err := service.SummarizeMessage(ctx, session, top.Detail.Snippet, nil)
		if err != nil {
			fmt.Printf("Summary unavailable: %v\n", err)
		}
		if *translateTo != "" {
			translated, terr := service.TranslateSummary(ctx, session, *translateTo, points)
			if terr != nil {
				fmt.Printf("Translation unavailable, showing original: %v\n", terr)
			}
			points = translated
		}
		for _, p := range points {
			fmt.Printf("  - %s\n", p)
		}
	}

	return nil
}

// consoleSink renders the evolving ranked list after every batch
type consoleSink struct {
	latest []core.ScoredMessage
}

func (s *consoleSink) OnBatch(messages []core.ScoredMessage) {
	s.latest = messages

	fmt.Printf("\n=== Inbox Triage (%d messages) ===\n", len(messages))
	for _, m := range core.RankByScore(messages) {
		score := "..."
		if !m.Result.Pending() {
			score = fmt.Sprintf("%3d", m.Result.Score)
		}
		fmt.Printf("[%s] %s — %s\n", score, m.Result.SummarizedTitle, m.Detail.Header("From"))
	}
}

func (s *consoleSink) OnStatus(status string) {
	fmt.Printf("\n%s\n", status)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	v.Set("openai.api_key", *openaiAPIKey)
	v.Set("openai.model_name", *openaiModelName)
	v.Set("openai.max_tokens", *maxTokens)
	v.Set("openai.temperature", *temperature)
	v.Set("openai.top_p", *topP)
	v.Set("openai.max_body_size", *maxBodySize)

	v.Set("gemini.api_key", *geminiAPIKey)
	v.Set("gemini.model_name", *geminiModelName)
	v.Set("gemini.max_tokens", *maxTokens)
	v.Set("gemini.temperature", *temperature)
	v.Set("gemini.top_p", *topP)
	v.Set("gemini.max_body_size", *maxBodySize)

	v.Set("bedrock.region", *bedrockRegion)
	v.Set("bedrock.model_id", *bedrockModelID)
	v.Set("bedrock.max_tokens", *maxTokens)
	v.Set("bedrock.temperature", *temperature)
	v.Set("bedrock.top_p", *topP)
	v.Set("bedrock.max_body_size", *maxBodySize)

	v.Set("gmail.client_id", *gmailClientID)
	v.Set("gmail.client_secret", *gmailClientSecret)
	v.Set("gmail.token_path", *gmailTokenPath)

	v.Set("scan.query", *scanQuery)
	v.Set("scan.max_messages", *maxMessages)
	v.Set("scan.batch_size", *batchSize)

	v.Set("store.type", *storeType)
	v.Set("store.sqlite_path", *sqlitePath)
	v.Set("store.mysql_dsn", *mysqlDSN)

	return config.NewFromViper(v)
}
