package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// BedrockClient is an implementation of the LLMClient interface using
// Amazon Bedrock. Bedrock has no native response-schema constraint, so the
// schema is stated in the prompt and enforced by validating the parsed
// output; anything that fails validation is an error, never a partial
// result.
type BedrockClient struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		modelID:       modelID,
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

Derive the user's priority profile and respond with only a JSON object containing exactly these fields, each an array of strings:
- highPrioritySenders
- highPriorityKeywords
- lowPrioritySenders
- lowPriorityKeywords`

// BuildProfile derives a priority profile from the historical samples
func (c *BedrockClient) BuildProfile(ctx context.Context, samples core.ProfileSamples) (*core.UserProfile, error) {
	prompt := fmt.Sprintf(profilePrompt,
		renderSamples(samples.Important),
		renderSamples(samples.UnreadStale),
		renderSamples(samples.Spam),
		renderSamples(samples.Trash))

	responseText, err := c.invoke(ctx, prompt)
	if err != nil {
		return nil, &core.ProfileGenerationError{Reason: "inference call failed", Err: err}
	}

	var profile core.UserProfile
	if err := json.Unmarshal(extractJSON(responseText), &profile); err != nil {
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

Respond with only a JSON object of the form {"results": [...]} where every result has exactly these fields: id (string), score (integer 0-100), summarizedTitle (string), summaryPoints (array of strings), positiveReasons (array of strings), negativeReasons (array of strings).`

// ScoreBatch scores one batch of messages against the profile
func (c *BedrockClient) ScoreBatch(ctx context.Context, profile *core.UserProfile, batch []core.MessageDetail) ([]core.AnalysisResult, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	prompt := fmt.Sprintf(scorePrompt, profileJSON, c.renderBatch(batch))

	responseText, err := c.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []core.AnalysisResult `json:"results"`
	}
	if err := json.Unmarshal(extractJSON(responseText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse batch response as JSON: %w", err)
	}
	return parsed.Results, nil
}

const translatePrompt = `Translate each of the following texts from %s to %s.

Texts:
%s

Respond with only a JSON object of the form {"translations": [...]} with one translated string per input text, in the same order.`

// Translate translates texts into the target language, preserving order
func (c *BedrockClient) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode texts: %w", err)
	}

	prompt := fmt.Sprintf(translatePrompt, sourceLang, targetLang, textsJSON)

	responseText, err := c.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal(extractJSON(responseText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("expected %d translations, got %d", len(texts), len(parsed.Translations))
	}
	return parsed.Translations, nil
}

// invoke calls the model with a payload shaped for its family and returns
// the raw response text
func (c *BedrockClient) invoke(ctx context.Context, prompt string) (string, error) {
	var payload []byte
	var err error

	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}

	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	}
	return string(resp.Body), nil
}

func (c *BedrockClient) renderBatch(batch []core.MessageDetail) string {
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
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return json.RawMessage(text[start : end+1])
	}
	return json.RawMessage(text)
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
