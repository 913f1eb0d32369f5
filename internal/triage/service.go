// Package triage hosts the scoring pipeline behind a session boundary.
package triage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// CredentialSource supplies and revokes the session's bearer credential
type CredentialSource interface {
	// Credential returns an opaque snapshot of the current credential,
	// or an AuthError when none is available
	Credential(ctx context.Context) (string, error)

	// Revoke revokes the credential; false when revocation failed
	Revoke(ctx context.Context) bool
}

// Config holds the service's triage options
type Config struct {
	// LowPriorityEnabled applies a label to messages at or below
	// LowPriorityMaxScore after a scan
	LowPriorityEnabled  bool
	LowPriorityMaxScore int
	LowPriorityLabelID  string
}

// Service owns sign-in, the single-flight scan gate, and the on-demand
// summarize/translate actions. The core never sees the gate: no second
// scan may start while one is in flight, enforced here at the boundary.
type Service struct {
	gateway    core.MailGateway
	profiles   *core.ProfileCache
	engine     *core.ScoringEngine
	sessions   *core.SessionTracker
	summarizer *core.DetailSummarizer
	translator *core.TranslatorAdapter
	store      core.ProfileStore
	creds      CredentialSource
	logger     *zap.Logger
	cfg        Config

	scanMu sync.Mutex
}

// NewService creates a new triage service
func NewService(
	gateway core.MailGateway,
	profiles *core.ProfileCache,
	engine *core.ScoringEngine,
	sessions *core.SessionTracker,
	summarizer *core.DetailSummarizer,
	translator *core.TranslatorAdapter,
	store core.ProfileStore,
	creds CredentialSource,
	logger *zap.Logger,
	cfg Config,
) *Service {
	return &Service{
		gateway:    gateway,
		profiles:   profiles,
		engine:     engine,
		sessions:   sessions,
		summarizer: summarizer,
		translator: translator,
		store:      store,
		creds:      creds,
		logger:     logger,
		cfg:        cfg,
	}
}

// SignIn acquires the credential, negotiates optional capabilities once,
// and starts a session
func (s *Service) SignIn(ctx context.Context) (*core.Session, error) {
	credential, err := s.creds.Credential(ctx)
	if err != nil {
		var authErr *core.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &core.AuthError{Err: err}
	}

	caps := core.Capabilities{
		Summarization: s.summarizer != nil && s.summarizer.Available(),
		Translation:   s.translator != nil && s.translator.Available(),
	}
	session := s.sessions.Begin(credential, caps)

	s.logger.Info("Session started",
		zap.Uint64("session_id", session.ID()),
		zap.Bool("summarization", caps.Summarization),
		zap.Bool("translation", caps.Translation))

	return session, nil
}

// SignOut revokes the credential, ends the session, and clears persisted
// session state. In-flight scan results become stale and are discarded by
// the engine.
func (s *Service) SignOut(ctx context.Context, session *core.Session) {
	if !s.creds.Revoke(ctx) {
		s.logger.Warn("Credential revocation failed")
	}
	s.sessions.End()
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear persisted profile", zap.Error(err))
	}
	s.logger.Info("Session ended", zap.Uint64("session_id", session.ID()))
}

// Scan runs one scoring pass, delivering live progress to the sink and a
// terminal status once the scan settles. Only one scan may run at a time.
func (s *Service) Scan(ctx context.Context, session *core.Session, sink core.ProgressSink) error {
	if !s.scanMu.TryLock() {
		return core.ErrScanInFlight
	}
	defer s.scanMu.Unlock()

	if !s.sessions.Active(session) {
		return core.ErrStaleSession
	}

	profile, err := s.profiles.GetOrBuild(ctx)
	if err != nil {
		sink.OnStatus("Could not prepare your priority profile.")
		return err
	}

	if err := s.engine.ScoreRecent(ctx, session, profile, sink); err != nil {
		if errors.Is(err, core.ErrStaleSession) {
			return err
		}
		sink.OnStatus("Scan failed while fetching your inbox.")
		return err
	}

	sink.OnStatus("Triage complete.")
	return nil
}

// LabelLowPriority applies the configured label to scored messages at or
// below the low-priority threshold. Label mutation is best effort; it
// returns how many messages were labeled.
func (s *Service) LabelLowPriority(ctx context.Context, messages []core.ScoredMessage) int {
	if !s.cfg.LowPriorityEnabled || s.cfg.LowPriorityLabelID == "" {
		return 0
	}

	labeled := 0
	for _, m := range messages {
		if m.Result.Pending() || m.Result.Score > s.cfg.LowPriorityMaxScore {
			continue
		}
		if s.gateway.MutateLabels(ctx, m.Detail.ID, []string{s.cfg.LowPriorityLabelID}, nil) {
			labeled++
		}
	}
	if labeled > 0 {
		s.logger.Info("Labeled low-priority messages", zap.Int("count", labeled))
	}
	return labeled
}

// SummarizeMessage produces the on-demand detailed summary for one message
func (s *Service) SummarizeMessage(ctx context.Context, session *core.Session, snippet string, onProgress func(partial string)) ([]string, error) {
	if !session.Capabilities().Summarization {
		return nil, core.ErrSummarizerUnavailable
	}
	return s.summarizer.SummarizeDetailed(ctx, snippet, onProgress)
}

// TranslateSummary translates summary points into the target language.
// On failure the original points come back intact with a TranslationError.
func (s *Service) TranslateSummary(ctx context.Context, session *core.Session, targetLang string, points []string) ([]string, error) {
	if !session.Capabilities().Translation {
		return points, fmt.Errorf("translation not negotiated for this session: %w", core.ErrTranslatorUnavailable)
	}
	return s.translator.TranslateAll(ctx, targetLang, points)
}
