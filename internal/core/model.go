package core

import (
	"net/textproto"
	"time"
)

// MessageRef identifies a message returned by a mailbox search
type MessageRef struct {
	ID string
}

// MessageDetail is a fully fetched message. It is immutable once fetched
// within a scoring pass.
type MessageDetail struct {
	ID      string
	Snippet string
	headers map[string]string
}

// NewMessageDetail creates a MessageDetail with canonicalized header keys
func NewMessageDetail(id, snippet string, headers map[string]string) MessageDetail {
	canonical := make(map[string]string, len(headers))
	for name, value := range headers {
		canonical[textproto.CanonicalMIMEHeaderKey(name)] = value
	}
	return MessageDetail{
		ID:      id,
		Snippet: snippet,
		headers: canonical,
	}
}

// Header returns the value of a header by case-insensitive name,
// or an empty string when the header is absent
func (d MessageDetail) Header(name string) string {
	return d.headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// UserProfile is the learned priority profile derived from mailbox history
type UserProfile struct {
	HighPrioritySenders  []string `json:"highPrioritySenders"`
	HighPriorityKeywords []string `json:"highPriorityKeywords"`
	LowPrioritySenders   []string `json:"lowPrioritySenders"`
	LowPriorityKeywords  []string `json:"lowPriorityKeywords"`
}

// Validate checks that all four profile fields are present. A profile with
// any field missing is rejected as a whole, never persisted partially.
func (p *UserProfile) Validate() error {
	if p == nil {
		return &ProfileGenerationError{Reason: "profile is empty"}
	}
	if p.HighPrioritySenders == nil {
		return &ProfileGenerationError{Reason: "missing highPrioritySenders"}
	}
	if p.HighPriorityKeywords == nil {
		return &ProfileGenerationError{Reason: "missing highPriorityKeywords"}
	}
	if p.LowPrioritySenders == nil {
		return &ProfileGenerationError{Reason: "missing lowPrioritySenders"}
	}
	if p.LowPriorityKeywords == nil {
		return &ProfileGenerationError{Reason: "missing lowPriorityKeywords"}
	}
	return nil
}

// ProfileRecord is the persisted unit: a profile with its build timestamp
type ProfileRecord struct {
	Profile UserProfile
	BuiltAt time.Time
}

// Stale reports whether the record is older than ttl at the given instant
func (r *ProfileRecord) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.BuiltAt) > ttl
}

// PendingScore marks an AnalysisResult whose batch has not resolved yet
const PendingScore = -1

// AnalysisResult is the per-message outcome of a batch inference call
type AnalysisResult struct {
	ID              string   `json:"id"`
	Score           int      `json:"score"`
	SummarizedTitle string   `json:"summarizedTitle"`
	SummaryPoints   []string `json:"summaryPoints"`
	PositiveReasons []string `json:"positiveReasons"`
	NegativeReasons []string `json:"negativeReasons"`
}

// PendingResult creates the placeholder seeded when a message enters the
// scoring window
func PendingResult(id string) AnalysisResult {
	return AnalysisResult{
		ID:              id,
		Score:           PendingScore,
		SummarizedTitle: "Analyzing...",
	}
}

// FailedResult creates the synthetic record written for every message of a
// batch whose inference call failed
func FailedResult(id string) AnalysisResult {
	return AnalysisResult{
		ID:              id,
		Score:           0,
		SummarizedTitle: "AI analysis failed for this email.",
		NegativeReasons: []string{"The analysis request for this batch did not complete."},
	}
}

// Pending reports whether the result is still the unresolved placeholder
func (r AnalysisResult) Pending() bool {
	return r.Score == PendingScore
}

// ScoredMessage joins a fetched message with its analysis result. The
// accumulated collection of these is owned by the active scan and is
// read-only to the presentation sink.
type ScoredMessage struct {
	Detail MessageDetail
	Result AnalysisResult
}

// ProfileSample is one historical message reduced to its profile signals
type ProfileSample struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
}

// ProfileSamples holds the four historical samples a profile is built from
type ProfileSamples struct {
	Important   []ProfileSample
	UnreadStale []ProfileSample
	Spam        []ProfileSample
	Trash       []ProfileSample
}

// SampleFromDetail reduces a message to its {from, subject} pair. Missing
// headers become empty strings.
func SampleFromDetail(d MessageDetail) ProfileSample {
	return ProfileSample{
		From:    d.Header("From"),
		Subject: d.Header("Subject"),
	}
}
