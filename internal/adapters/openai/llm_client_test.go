package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-mail-triage/internal/core"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around object", "Here is the result:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"nested braces", `prefix {"outer":{"inner":2}} suffix`, `{"outer":{"inner":2}}`},
		{"no object passes through", "not json at all", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(extractJSON(tt.text)))
		})
	}
}

func TestExtractJSONRemainsParseable(t *testing.T) {
	text := "The profile is:\n{\"highPrioritySenders\":[\"a@test.com\"],\"highPriorityKeywords\":[],\"lowPrioritySenders\":[],\"lowPriorityKeywords\":[]}"

	var profile core.UserProfile
	require.NoError(t, json.Unmarshal(extractJSON(text), &profile))
	assert.Equal(t, []string{"a@test.com"}, profile.HighPrioritySenders)
	assert.NoError(t, profile.Validate())
}

func TestRenderSamples(t *testing.T) {
	assert.Equal(t, "(none)", renderSamples(nil))
	assert.Equal(t, "(none)", renderSamples([]core.ProfileSample{}))

	rendered := renderSamples([]core.ProfileSample{
		{From: "alice@test.com", Subject: "Report"},
	})
	assert.JSONEq(t, `[{"from":"alice@test.com","subject":"Report"}]`, rendered)
}

func TestSchemasAreValidJSON(t *testing.T) {
	for name, schema := range map[string]json.RawMessage{
		"profile":     profileSchema,
		"score":       scoreSchema,
		"translation": translationSchema,
	} {
		var decoded map[string]any
		assert.NoError(t, json.Unmarshal(schema, &decoded), name)
	}
}
