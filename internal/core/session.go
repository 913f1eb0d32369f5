package core

import (
	"sync"
)

// Capabilities records which optional services were negotiated at sign-in
type Capabilities struct {
	Summarization bool
	Translation   bool
}

// Session is the authority for one signed-in period. Async results carry
// the session they were started under; results tagged with a session that
// is no longer current are discarded rather than applied.
type Session struct {
	id         uint64
	credential string
	caps       Capabilities
}

// ID returns the session's monotonically increasing id
func (s *Session) ID() uint64 { return s.id }

// Credential returns the credential snapshot captured at sign-in
func (s *Session) Credential() string { return s.credential }

// Capabilities returns the capability set negotiated at sign-in
func (s *Session) Capabilities() Capabilities { return s.caps }

// SessionTracker issues sessions and answers whether a given session is
// still the current one
type SessionTracker struct {
	mu      sync.Mutex
	nextID  uint64
	current *Session
}

// NewSessionTracker creates a session tracker
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{}
}

// Begin ends any current session and starts a new one
func (t *SessionTracker) Begin(credential string, caps Capabilities) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	t.current = &Session{
		id:         t.nextID,
		credential: credential,
		caps:       caps,
	}
	return t.current
}

// End closes the current session. In-flight work started under it becomes
// stale and its results must be dropped.
func (t *SessionTracker) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
}

// Active reports whether the given session is still the current one
func (t *SessionTracker) Active(s *Session) bool {
	if s == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil && t.current.id == s.id
}
