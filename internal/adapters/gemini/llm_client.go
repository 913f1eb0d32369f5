package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// GeminiClient is an implementation of the LLMClient interface using
// Google Gemini, with output constrained by a native response schema
type GeminiClient struct {
	client        *genai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func stringArraySchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
}

var profileFields = []string{"highPrioritySenders", "highPriorityKeywords", "lowPrioritySenders", "lowPriorityKeywords"}

func profileSchema() *genai.Schema {
	properties := make(map[string]*genai.Schema, len(profileFields))
	for _, field := range profileFields {
		properties[field] = stringArraySchema()
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   profileFields,
	}
}

func scoreSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"results": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":              {Type: genai.TypeString},
						"score":           {Type: genai.TypeInteger},
						"summarizedTitle": {Type: genai.TypeString},
						"summaryPoints":   stringArraySchema(),
						"positiveReasons": stringArraySchema(),
						"negativeReasons": stringArraySchema(),
					},
					Required: []string{"id", "score", "summarizedTitle", "summaryPoints", "positiveReasons", "negativeReasons"},
				},
			},
		},
		Required: []string{"results"},
	}
}

func translationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"translations": stringArraySchema(),
		},
		Required: []string{"translations"},
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

Derive the user's priority profile: recurring senders and keywords from the important sample are high priority; recurring ones from the ignored, spam, and trash samples are low priority.`

// BuildProfile derives a priority profile from the historical samples
func (c *GeminiClient) BuildProfile(ctx context.Context, samples core.ProfileSamples) (*core.UserProfile, error) {
	prompt := fmt.Sprintf(profilePrompt,
		renderSamples(samples.Important),
		renderSamples(samples.UnreadStale),
		renderSamples(samples.Spam),
		renderSamples(samples.Trash))

	text, err := c.generate(ctx, prompt, profileSchema())
	if err != nil {
		return nil, &core.ProfileGenerationError{Reason: "inference call failed", Err: err}
	}

	var profile core.UserProfile
	if err := json.Unmarshal([]byte(text), &profile); err != nil {
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

// ScoreBatch scores one batch of messages against the profile
func (c *GeminiClient) ScoreBatch(ctx context.Context, profile *core.UserProfile, batch []core.MessageDetail) ([]core.AnalysisResult, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	prompt := fmt.Sprintf(scorePrompt, profileJSON, c.renderBatch(batch))

	text, err := c.generate(ctx, prompt, scoreSchema())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []core.AnalysisResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse batch response as JSON: %w", err)
	}
	return parsed.Results, nil
}

const translatePrompt = `Translate each of the following texts from %s to %s. Return the translations in the same order as the input.

Texts:
%s`

// Translate translates texts into the target language, preserving order
func (c *GeminiClient) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode texts: %w", err)
	}

	prompt := fmt.Sprintf(translatePrompt, sourceLang, targetLang, textsJSON)

	text, err := c.generate(ctx, prompt, translationSchema())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("expected %d translations, got %d", len(texts), len(parsed.Translations))
	}
	return parsed.Translations, nil
}

// generate issues one schema-constrained generation call
func (c *GeminiClient) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)
	model.SetTopP(c.topP)
	model.SetMaxOutputTokens(int32(c.maxTokens))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text parts in Gemini response")
	}
	return text, nil
}

func (c *GeminiClient) renderBatch(batch []core.MessageDetail) string {
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
