package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        openai.NewClient(apiKey),
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

const profilePrompt = `You are an email triage assistant learning a user's priorities from their mailbox history.

Messages the user marked important or starred:
%s

Messages the user left unread for days:
%s

Messages in spam:
%s

Messages in trash:
%s

Derive the user's priority profile. Senders and keywords that recur in the important sample are high priority; senders and keywords that recur in the ignored, spam, and trash samples are low priority.`

var profileSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"highPrioritySenders": {"type": "array", "items": {"type": "string"}},
		"highPriorityKeywords": {"type": "array", "items": {"type": "string"}},
		"lowPrioritySenders": {"type": "array", "items": {"type": "string"}},
		"lowPriorityKeywords": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["highPrioritySenders", "highPriorityKeywords", "lowPrioritySenders", "lowPriorityKeywords"],
	"additionalProperties": false
}`)

// BuildProfile derives a priority profile from the historical samples
func (c *OpenAIClient) BuildProfile(ctx context.Context, samples core.ProfileSamples) (*core.UserProfile, error) {
	prompt := fmt.Sprintf(profilePrompt,
		renderSamples(samples.Important),
		renderSamples(samples.UnreadStale),
		renderSamples(samples.Spam),
		renderSamples(samples.Trash))

	text, err := c.complete(ctx, prompt, "user_profile", profileSchema)
	if err != nil {
		return nil, &core.ProfileGenerationError{Reason: "inference call failed", Err: err}
	}

	var profile core.UserProfile
	if err := json.Unmarshal(extractJSON(text), &profile); err != nil {
		return nil, &core.ProfileGenerationError{Reason: "response is not valid JSON", Err: err}
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

const scorePrompt = `You are an email triage assistant. Score each email from 0 to 100 for how urgently this user should read it, using their priority profile.

Priority profile:
%s

Emails:
%s

For every email return its id, a score, a short summarized title, up to three summary points, and the reasons for and against prioritizing it.`

var scoreSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"results": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"score": {"type": "integer"},
					"summarizedTitle": {"type": "string"},
					"summaryPoints": {"type": "array", "items": {"type": "string"}},
					"positiveReasons": {"type": "array", "items": {"type": "string"}},
					"negativeReasons": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["id", "score", "summarizedTitle", "summaryPoints", "positiveReasons", "negativeReasons"],
				"additionalProperties": false
			}
		}
	},
	"required": ["results"],
	"additionalProperties": false
}`)

// ScoreBatch scores one batch of messages against the profile
func (c *OpenAIClient) ScoreBatch(ctx context.Context, profile *core.UserProfile, batch []core.MessageDetail) ([]core.AnalysisResult, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	prompt := fmt.Sprintf(scorePrompt, profileJSON, c.renderBatch(batch))

	text, err := c.complete(ctx, prompt, "batch_scores", scoreSchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []core.AnalysisResult `json:"results"`
	}
	if err := json.Unmarshal(extractJSON(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse batch response as JSON: %w", err)
	}
	return parsed.Results, nil
}

const translatePrompt = `Translate each of the following texts from %s to %s. Return the translations in the same order as the input.

Texts:
%s`

var translationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"translations": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["translations"],
	"additionalProperties": false
}`)

// Translate translates texts into the target language, preserving order
func (c *OpenAIClient) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode texts: %w", err)
	}

	prompt := fmt.Sprintf(translatePrompt, sourceLang, targetLang, textsJSON)

	text, err := c.complete(ctx, prompt, "translations", translationSchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal(extractJSON(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("expected %d translations, got %d", len(texts), len(parsed.Translations))
	}
	return parsed.Translations, nil
}

// complete issues one schema-constrained chat completion
func (c *OpenAIClient) complete(ctx context.Context, prompt, schemaName string, schema json.RawMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an email triage assistant. Respond only with JSON matching the requested schema.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) renderBatch(batch []core.MessageDetail) string {
	type item struct {
		ID      string `json:"id"`
		From    string `json:"from"`
		Subject string `json:"subject"`
		Snippet string `json:"snippet"`
	}
	items := make([]item, 0, len(batch))
	for _, d := range batch {
		items = append(items, item{
			ID:      d.ID,
			From:    d.Header("From"),
			Subject: d.Header("Subject"),
			Snippet: c.textProcessor.PrepareForPrompt(d.Snippet, c.maxBodySize),
		})
	}
	encoded, _ := json.Marshal(items)
	return string(encoded)
}

func renderSamples(samples []core.ProfileSample) string {
	if len(samples) == 0 {
		return "(none)"
	}
	encoded, _ := json.Marshal(samples)
	return string(encoded)
}

// extractJSON returns the JSON object embedded in text, salvaging
// responses that wrap the object in prose
func extractJSON(text string) json.RawMessage {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start = i
			break
		}
	}
	end := -1
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '}' {
			end = i + 1
			break
		}
	}
	if start >= 0 && end > start {
		return json.RawMessage(text[start:end])
	}
	return json.RawMessage(text)
}
