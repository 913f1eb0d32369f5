package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return NewFromViper(NewEmptyViper())
}

func TestDefaults(t *testing.T) {
	cfg := newTestConfig()

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.GetOpenAI().ModelName)
	assert.Equal(t, "gemini-1.5-flash", cfg.GetGemini().ModelName)
	assert.Equal(t, "us-east-1", cfg.GetBedrock().Region)
	assert.Equal(t, "memory", cfg.GetStore().Type)
	assert.Equal(t, "token.json", cfg.GetGmail().TokenPath)
}

func TestScanDefaults(t *testing.T) {
	scan, err := newTestConfig().GetScan()
	require.NoError(t, err)

	assert.Equal(t, "in:inbox is:unread newer_than:2d", scan.Query)
	assert.Equal(t, int64(7), scan.MaxMessages)
	assert.Equal(t, 5, scan.BatchSize)
	assert.Equal(t, 10*time.Minute, scan.RescanInterval)
	assert.False(t, scan.LowPriorityEnabled)
	assert.Equal(t, 20, scan.LowPriorityMaxScore)
}

func TestProfileDefaults(t *testing.T) {
	profile, err := newTestConfig().GetProfile()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, profile.TTL)
	assert.Equal(t, "is:important OR is:starred", profile.ImportantQuery)
	assert.Equal(t, int64(15), profile.ImportantMax)
	assert.Equal(t, "is:unread older_than:2d", profile.UnreadQuery)
	assert.Equal(t, "in:spam", profile.SpamQuery)
	assert.Equal(t, int64(10), profile.TrashMax)
}

func TestOverridesApply(t *testing.T) {
	v := NewEmptyViper()
	v.Set("llm.provider", "gemini")
	v.Set("scan.batch_size", 3)
	v.Set("profile.ttl", "1h30m")
	cfg := NewFromViper(v)

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)

	scan, err := cfg.GetScan()
	require.NoError(t, err)
	assert.Equal(t, 3, scan.BatchSize)

	profile, err := cfg.GetProfile()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, profile.TTL)
}

func TestInvalidDurationRejected(t *testing.T) {
	v := NewEmptyViper()
	v.Set("profile.ttl", "yesterday")
	cfg := NewFromViper(v)

	_, err := cfg.GetProfile()
	assert.Error(t, err)
}
