package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name     string
		text     string
		maxSize  int
		expected string
	}{
		{"no limit", "hello world", 0, "hello world"},
		{"within limit", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hello [...]"},
		{"empty text", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tp.TruncateText(tt.text, tt.maxSize))
		})
	}
}

func TestTruncateTextMidRune(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "héllo" cut inside the two-byte é
	text := "héllo"
	truncated := tp.TruncateText(text, 2)

	assert.True(t, utf8.ValidString(truncated))
	assert.Equal(t, "h [...]", truncated)
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean text", tp.SanitizeUTF8("clean text"))

	dirty := "bad" + string([]byte{0xff, 0xfe}) + "bytes"
	cleaned := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(cleaned))
	assert.Equal(t, "badbytes", cleaned)
}

func TestPrepareForPrompt(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	long := strings.Repeat("a", 100) + string([]byte{0xff})
	prepared := tp.PrepareForPrompt(long, 50)

	assert.True(t, utf8.ValidString(prepared))
	assert.Equal(t, strings.Repeat("a", 50)+" [...]", prepared)
}
