package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GmailConfig represents the configuration for the Gmail gateway
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
}

// ProfileConfig represents the configuration for profile building and freshness
type ProfileConfig struct {
	TTL            time.Duration
	ImportantQuery string
	ImportantMax   int64
	UnreadQuery    string
	UnreadMax      int64
	SpamQuery      string
	SpamMax        int64
	TrashQuery     string
	TrashMax       int64
}

// ScanConfig represents the configuration for the scoring scan
type ScanConfig struct {
	Query               string
	MaxMessages         int64
	BatchSize           int
	RescanInterval      time.Duration
	LowPriorityEnabled  bool
	LowPriorityMaxScore int
	LowPriorityLabelID  string
}

// StoreConfig represents the configuration for profile persistence
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGmail returns the Gmail gateway configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		ClientID:     c.GetString("gmail.client_id"),
		ClientSecret: c.GetString("gmail.client_secret"),
		RedirectURL:  c.GetString("gmail.redirect_url"),
		TokenPath:    c.GetString("gmail.token_path"),
	}
}

// GetProfile returns the profile configuration
func (c *Config) GetProfile() (ProfileConfig, error) {
	ttl, err := c.GetDuration("profile.ttl")
	if err != nil {
		return ProfileConfig{}, err
	}
	return ProfileConfig{
		TTL:            ttl,
		ImportantQuery: c.GetString("profile.important_query"),
		ImportantMax:   c.GetInt64("profile.important_max"),
		UnreadQuery:    c.GetString("profile.unread_query"),
		UnreadMax:      c.GetInt64("profile.unread_max"),
		SpamQuery:      c.GetString("profile.spam_query"),
		SpamMax:        c.GetInt64("profile.spam_max"),
		TrashQuery:     c.GetString("profile.trash_query"),
		TrashMax:       c.GetInt64("profile.trash_max"),
	}, nil
}

// GetScan returns the scan configuration
func (c *Config) GetScan() (ScanConfig, error) {
	interval, err := c.GetDuration("scan.rescan_interval")
	if err != nil {
		return ScanConfig{}, err
	}
	return ScanConfig{
		Query:               c.GetString("scan.query"),
		MaxMessages:         c.GetInt64("scan.max_messages"),
		BatchSize:           c.GetInt("scan.batch_size"),
		RescanInterval:      interval,
		LowPriorityEnabled:  c.GetBool("scan.low_priority.enabled"),
		LowPriorityMaxScore: c.GetInt("scan.low_priority.threshold"),
		LowPriorityLabelID:  c.GetString("scan.low_priority.label_id"),
	}, nil
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}
