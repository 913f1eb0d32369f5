package core

import (
	"context"
)

// MailGateway defines the interface to the mailbox store
type MailGateway interface {
	// Search returns refs for messages matching the query. It fails soft:
	// transport errors are logged and surface as an empty result, which
	// callers cannot distinguish from "no matches".
	Search(ctx context.Context, query string, maxResults int64) []MessageRef

	// FetchDetails fetches full messages in bounded concurrency windows.
	// A single failed fetch aborts the whole call.
	FetchDetails(ctx context.Context, refs []MessageRef) ([]MessageDetail, error)

	// MutateLabels adds and removes labels on one message. It never
	// returns an error; failures are logged and reported as false.
	MutateLabels(ctx context.Context, id string, addLabels, removeLabels []string) bool
}

// LLMClient defines the interface for constrained-output inference calls
type LLMClient interface {
	// BuildProfile derives a priority profile from the historical samples.
	// Output that does not parse or misses a required field is an error;
	// a partially valid profile is never returned.
	BuildProfile(ctx context.Context, samples ProfileSamples) (*UserProfile, error)

	// ScoreBatch scores one batch of messages against the profile. The
	// returned results are matched to messages by id, not position, and
	// may omit ids present in the batch.
	ScoreBatch(ctx context.Context, profile *UserProfile, batch []MessageDetail) ([]AnalysisResult, error)

	// Translate translates texts into the target language, preserving
	// order and length.
	Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error)
}

// Summarizer produces a detailed summary of one message as a chunk stream
type Summarizer interface {
	// Summarize streams summary text through onChunk. A mid-stream fault
	// returns an error; chunks already delivered stay delivered.
	Summarize(ctx context.Context, text string, onChunk func(chunk string)) error
}

// Translator is a session-cached handle for one language pair
type Translator interface {
	Translate(ctx context.Context, texts []string) ([]string, error)
}

// TranslatorProvider creates and caches Translator handles per target language
type TranslatorProvider interface {
	Translator(targetLang string) (Translator, error)
}

// ProfileStore persists the profile record as a unit
type ProfileStore interface {
	// Get retrieves the persisted record, or ErrProfileNotFound
	Get(ctx context.Context) (*ProfileRecord, error)

	// Set stores the record atomically, replacing any previous one
	Set(ctx context.Context, record *ProfileRecord) error

	// Clear removes the record and its timestamp as a unit
	Clear(ctx context.Context) error
}

// ProgressSink receives the full accumulated collection after every batch
// of a scan, plus a terminal status once the scan settles
type ProgressSink interface {
	OnBatch(messages []ScoredMessage)
	OnStatus(status string)
}
