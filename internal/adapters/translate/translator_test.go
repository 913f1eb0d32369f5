package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

type llmMock struct {
	TranslateFunc func(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error)
}

func (m *llmMock) BuildProfile(context.Context, core.ProfileSamples) (*core.UserProfile, error) {
	return nil, errors.New("not implemented")
}

func (m *llmMock) ScoreBatch(context.Context, *core.UserProfile, []core.MessageDetail) ([]core.AnalysisResult, error) {
	return nil, errors.New("not implemented")
}

func (m *llmMock) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	return m.TranslateFunc(ctx, sourceLang, targetLang, texts)
}

func TestProviderRejectsInvalidTag(t *testing.T) {
	p := NewProvider(&llmMock{}, zap.NewNop())

	handle, err := p.Translator("not a language tag")
	assert.Error(t, err)
	assert.Nil(t, handle)
}

func TestProviderCachesHandlePerPair(t *testing.T) {
	p := NewProvider(&llmMock{}, zap.NewNop())

	ja1, err := p.Translator("ja")
	require.NoError(t, err)
	ja2, err := p.Translator("ja")
	require.NoError(t, err)
	de, err := p.Translator("de")
	require.NoError(t, err)

	assert.Same(t, ja1, ja2, "one handle per language pair for the session")
	assert.NotSame(t, ja1, de)
}

func TestTranslatorUsesDisplayNames(t *testing.T) {
	var gotSource, gotTarget string
	llm := &llmMock{
		TranslateFunc: func(_ context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
			gotSource = sourceLang
			gotTarget = targetLang
			return texts, nil
		},
	}

	p := NewProvider(llm, zap.NewNop())
	handle, err := p.Translator("ja")
	require.NoError(t, err)

	_, err = handle.Translate(context.Background(), []string{"hello"})
	require.NoError(t, err)

	assert.Equal(t, "English", gotSource)
	assert.Equal(t, "Japanese", gotTarget)
}

func TestTranslatorSkipsEmptyInput(t *testing.T) {
	called := false
	llm := &llmMock{
		TranslateFunc: func(_ context.Context, _, _ string, texts []string) ([]string, error) {
			called = true
			return texts, nil
		},
	}

	p := NewProvider(llm, zap.NewNop())
	handle, err := p.Translator("fr")
	require.NoError(t, err)

	out, err := handle.Translate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.False(t, called, "nothing to translate means no inference call")
}

func TestTranslatorPropagatesFailure(t *testing.T) {
	cause := errors.New("model timeout")
	llm := &llmMock{
		TranslateFunc: func(context.Context, string, string, []string) ([]string, error) {
			return nil, cause
		},
	}

	p := NewProvider(llm, zap.NewNop())
	handle, err := p.Translator("de")
	require.NoError(t, err)

	_, err = handle.Translate(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, cause)
}
