package core

import (
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound is returned when no profile record is persisted
	ErrProfileNotFound = errors.New("profile record not found")
	// ErrSummarizerUnavailable is returned when no summarization
	// capability was established at sign-in
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
	// ErrTranslatorUnavailable is returned when no translation
	// capability was established at sign-in
	ErrTranslatorUnavailable = errors.New("translator unavailable")
	// ErrScanInFlight is returned when a scan is requested while one is
	// already running
	ErrScanInFlight = errors.New("a scan is already in flight")
	// ErrStaleSession is returned when a result resolves after the
	// session it was started under has ended
	ErrStaleSession = errors.New("session is no longer active")
)

// AuthError indicates the session credential is unavailable or revoked.
// It is fatal to the session.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProfileGenerationError indicates the inference output could not be
// turned into a complete profile. No profile is persisted.
type ProfileGenerationError struct {
	Reason string
	Err    error
}

func (e *ProfileGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("profile generation failed: %s", e.Reason)
}

func (e *ProfileGenerationError) Unwrap() error { return e.Err }

// SearchFetchError indicates the scoring window could not be fetched.
// It aborts the scan it occurs in.
type SearchFetchError struct {
	Query string
	Err   error
}

func (e *SearchFetchError) Error() string {
	return fmt.Sprintf("fetching messages for %q failed: %v", e.Query, e.Err)
}

func (e *SearchFetchError) Unwrap() error { return e.Err }

// BatchScoringError indicates one batch's inference call failed. It is
// isolated to its batch and never aborts subsequent batches.
type BatchScoringError struct {
	Batch int
	Err   error
}

func (e *BatchScoringError) Error() string {
	return fmt.Sprintf("scoring batch %d failed: %v", e.Batch, e.Err)
}

func (e *BatchScoringError) Unwrap() error { return e.Err }

// SummarizationError indicates a mid-stream summarization fault. Partial
// text already accumulated stays visible.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed: %v", e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// TranslationError indicates a transient translation failure. Original
// texts are restored before it is surfaced.
type TranslationError struct {
	TargetLang string
	Err        error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation to %q failed: %v", e.TargetLang, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }
