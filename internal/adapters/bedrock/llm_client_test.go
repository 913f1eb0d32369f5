package bedrock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"completion preamble", " Sure! Here is the JSON:\n{\"a\":1}", `{"a":1}`},
		{"nested braces", `{"outer":{"inner":2}} trailing`, `{"outer":{"inner":2}}`},
		{"no object passes through", "no json here", "no json here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(extractJSON(tt.text)))
		})
	}
}

func TestModelFamilyDetection(t *testing.T) {
	tests := []struct {
		modelID   string
		anthropic bool
		titan     bool
	}{
		{"anthropic.claude-v2", true, false},
		{"anthropic.claude-3-sonnet-20240229-v1:0", true, false},
		{"amazon.titan-text-express-v1", false, true},
		{"meta.llama3-8b-instruct-v1:0", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			c := &BedrockClient{modelID: tt.modelID}
			assert.Equal(t, tt.anthropic, c.isAnthropicModel())
			assert.Equal(t, tt.titan, c.isAmazonTitanModel())
		})
	}
}
