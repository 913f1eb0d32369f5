package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

const summaryPrompt = `Summarize the following email in detail as a short bulleted list, one point per line, each line starting with "- ".

Email:
%s`

// Summarize streams a detailed summary of the text through onChunk.
// Chunks already delivered stay delivered when the stream faults.
func (c *OpenAIClient) Summarize(ctx context.Context, text string, onChunk func(chunk string)) error {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(summaryPrompt, c.textProcessor.PrepareForPrompt(text, c.maxBodySize)),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		Stream:      true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to open summary stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("summary stream failed: %w", err)
		}
		if len(resp.Choices) > 0 {
			onChunk(resp.Choices[0].Delta.Content)
		}
	}
}
