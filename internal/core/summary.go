package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DetailSummarizer produces an on-demand detailed summary for a single
// message, independent of the scoring loop
type DetailSummarizer struct {
	summarizer Summarizer
	logger     *zap.Logger
}

// NewDetailSummarizer creates a detail summarizer. A nil Summarizer means
// the capability was not established at sign-in.
func NewDetailSummarizer(summarizer Summarizer, logger *zap.Logger) *DetailSummarizer {
	return &DetailSummarizer{
		summarizer: summarizer,
		logger:     logger,
	}
}

// Available reports whether summarization was negotiated for this session
func (s *DetailSummarizer) Available() bool {
	return s.summarizer != nil
}

// SummarizeDetailed streams a summary of the snippet, reporting the
// accumulated text through onProgress as chunks arrive, then splits the
// final text into point strings. On a mid-stream fault the points
// accumulated so far are returned alongside a SummarizationError.
func (s *DetailSummarizer) SummarizeDetailed(ctx context.Context, snippet string, onProgress func(partial string)) ([]string, error) {
	if s.summarizer == nil {
		return nil, ErrSummarizerUnavailable
	}

	var acc strings.Builder
	err := s.summarizer.Summarize(ctx, snippet, func(chunk string) {
		acc.WriteString(chunk)
		if onProgress != nil {
			onProgress(acc.String())
		}
	})

	points := SplitSummaryPoints(acc.String())
	if err != nil {
		s.logger.Warn("Summarization stream failed", zap.Error(err))
		return points, &SummarizationError{Err: err}
	}
	return points, nil
}

// SplitSummaryPoints splits summary text on line breaks into point
// strings, stripping a leading bullet marker from each
func SplitSummaryPoints(text string) []string {
	lines := strings.Split(text, "\n")
	points := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line != "" {
			points = append(points, line)
		}
	}
	return points
}

// TranslatorAdapter translates summary lists on demand, reusing one
// translator handle per language pair for the session
type TranslatorAdapter struct {
	provider TranslatorProvider
	logger   *zap.Logger
}

// NewTranslatorAdapter creates a translator adapter. A nil provider means
// the capability was not established at sign-in.
func NewTranslatorAdapter(provider TranslatorProvider, logger *zap.Logger) *TranslatorAdapter {
	return &TranslatorAdapter{
		provider: provider,
		logger:   logger,
	}
}

// Available reports whether translation was negotiated for this session
func (a *TranslatorAdapter) Available() bool {
	return a.provider != nil
}

// TranslateAll translates texts into the target language. On any failure
// the original texts are returned intact and a TranslationError is
// signalled; the caller reverts its language selection.
func (a *TranslatorAdapter) TranslateAll(ctx context.Context, targetLang string, texts []string) ([]string, error) {
	originals := make([]string, len(texts))
	copy(originals, texts)

	if a.provider == nil {
		return originals, &TranslationError{TargetLang: targetLang, Err: ErrTranslatorUnavailable}
	}

	handle, err := a.provider.Translator(targetLang)
	if err != nil {
		a.logger.Warn("Failed to create translator", zap.String("target", targetLang), zap.Error(err))
		return originals, &TranslationError{TargetLang: targetLang, Err: err}
	}

	translated, err := handle.Translate(ctx, texts)
	if err == nil && len(translated) != len(texts) {
		err = fmt.Errorf("expected %d translations, got %d", len(texts), len(translated))
	}
	if err != nil {
		a.logger.Warn("Translation failed, restoring original text",
			zap.String("target", targetLang),
			zap.Error(err))
		return originals, &TranslationError{TargetLang: targetLang, Err: err}
	}

	return translated, nil
}
