package triage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/store"
	"github.com/mikey/llm-mail-triage/internal/core"
)

type gatewayMock struct {
	SearchFunc func(ctx context.Context, query string, maxResults int64) []core.MessageRef
	FetchFunc  func(ctx context.Context, refs []core.MessageRef) ([]core.MessageDetail, error)
	MutateFunc func(ctx context.Context, id string, addLabels, removeLabels []string) bool
}

func (m *gatewayMock) Search(ctx context.Context, query string, maxResults int64) []core.MessageRef {
	if m.SearchFunc == nil {
		return nil
	}
	return m.SearchFunc(ctx, query, maxResults)
}

func (m *gatewayMock) FetchDetails(ctx context.Context, refs []core.MessageRef) ([]core.MessageDetail, error) {
	if m.FetchFunc == nil {
		details := make([]core.MessageDetail, 0, len(refs))
		for _, r := range refs {
			details = append(details, core.NewMessageDetail(r.ID, "snippet", nil))
		}
		return details, nil
	}
	return m.FetchFunc(ctx, refs)
}

func (m *gatewayMock) MutateLabels(ctx context.Context, id string, addLabels, removeLabels []string) bool {
	if m.MutateFunc == nil {
		return true
	}
	return m.MutateFunc(ctx, id, addLabels, removeLabels)
}

type llmMock struct {
	BuildProfileFunc func(ctx context.Context, samples core.ProfileSamples) (*core.UserProfile, error)
	ScoreBatchFunc   func(ctx context.Context, profile *core.UserProfile, batch []core.MessageDetail) ([]core.AnalysisResult, error)
}

func (m *llmMock) BuildProfile(ctx context.Context, samples core.ProfileSamples) (*core.UserProfile, error) {
	if m.BuildProfileFunc == nil {
		return &core.UserProfile{
			HighPrioritySenders:  []string{},
			HighPriorityKeywords: []string{},
			LowPrioritySenders:   []string{},
			LowPriorityKeywords:  []string{},
		}, nil
	}
	return m.BuildProfileFunc(ctx, samples)
}

func (m *llmMock) ScoreBatch(ctx context.Context, profile *core.UserProfile, batch []core.MessageDetail) ([]core.AnalysisResult, error) {
	if m.ScoreBatchFunc == nil {
		results := make([]core.AnalysisResult, 0, len(batch))
		for _, d := range batch {
			results = append(results, core.AnalysisResult{ID: d.ID, Score: 50})
		}
		return results, nil
	}
	return m.ScoreBatchFunc(ctx, profile, batch)
}

func (m *llmMock) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	return texts, nil
}

type credsMock struct {
	CredentialFunc func(ctx context.Context) (string, error)
	RevokeFunc     func(ctx context.Context) bool
}

func (m *credsMock) Credential(ctx context.Context) (string, error) {
	if m.CredentialFunc == nil {
		return "token", nil
	}
	return m.CredentialFunc(ctx)
}

func (m *credsMock) Revoke(ctx context.Context) bool {
	if m.RevokeFunc == nil {
		return true
	}
	return m.RevokeFunc(ctx)
}

type sinkRecorder struct {
	mu       sync.Mutex
	batches  [][]core.ScoredMessage
	statuses []string
}

func (s *sinkRecorder) OnBatch(messages []core.ScoredMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, messages)
}

func (s *sinkRecorder) OnStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *sinkRecorder) Statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.statuses))
	copy(out, s.statuses)
	return out
}

type serviceFixture struct {
	service  *Service
	sessions *core.SessionTracker
	store    *store.MemoryStore
}

func newFixture(gateway *gatewayMock, llm *llmMock, creds *credsMock, cfg Config) *serviceFixture {
	logger := zap.NewNop()
	profileStore := store.NewMemoryStore(logger)
	sessions := core.NewSessionTracker()

	builder := core.NewProfileBuilder(gateway, llm, profileStore, logger, core.DefaultProfileBuilderConfig())
	profiles := core.NewProfileCache(profileStore, builder, 24*time.Hour, logger)
	engine := core.NewScoringEngine(gateway, llm, sessions, logger, core.DefaultScanWindowConfig())

	svc := NewService(
		gateway,
		profiles,
		engine,
		sessions,
		core.NewDetailSummarizer(nil, logger),
		core.NewTranslatorAdapter(nil, logger),
		profileStore,
		creds,
		logger,
		cfg,
	)
	return &serviceFixture{service: svc, sessions: sessions, store: profileStore}
}

func TestSignInNegotiatesCapabilities(t *testing.T) {
	f := newFixture(&gatewayMock{}, &llmMock{}, &credsMock{}, Config{})

	session, err := f.service.SignIn(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token", session.Credential())
	assert.False(t, session.Capabilities().Summarization, "no summarizer was configured")
	assert.False(t, session.Capabilities().Translation, "no translator was configured")
}

func TestSignInCredentialFailure(t *testing.T) {
	creds := &credsMock{
		CredentialFunc: func(context.Context) (string, error) {
			return "", errors.New("no stored token")
		},
	}
	f := newFixture(&gatewayMock{}, &llmMock{}, creds, Config{})

	session, err := f.service.SignIn(context.Background())

	var authErr *core.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Nil(t, session)
}

func TestSignOutClearsSessionState(t *testing.T) {
	revoked := false
	creds := &credsMock{
		RevokeFunc: func(context.Context) bool {
			revoked = true
			return true
		},
	}
	f := newFixture(&gatewayMock{}, &llmMock{}, creds, Config{})
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, &core.ProfileRecord{BuiltAt: time.Now()}))

	session, err := f.service.SignIn(ctx)
	require.NoError(t, err)
	f.service.SignOut(ctx, session)

	assert.True(t, revoked)
	assert.False(t, f.sessions.Active(session))
	_, err = f.store.Get(ctx)
	assert.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestScanSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	gateway := &gatewayMock{
		SearchFunc: func(_ context.Context, query string, _ int64) []core.MessageRef {
			if query == core.DefaultScanWindowConfig().Query {
				return []core.MessageRef{{ID: "m1"}}
			}
			return nil
		},
	}
	var calls int64
	llm := &llmMock{
		ScoreBatchFunc: func(_ context.Context, _ *core.UserProfile, batch []core.MessageDetail) ([]core.AnalysisResult, error) {
			if atomic.AddInt64(&calls, 1) == 1 {
				close(entered)
				<-release
			}
			return []core.AnalysisResult{{ID: "m1", Score: 50}}, nil
		},
	}

	f := newFixture(gateway, llm, &credsMock{}, Config{})
	ctx := context.Background()

	session, err := f.service.SignIn(ctx)
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.service.Scan(ctx, session, &sinkRecorder{})
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first scan never reached inference")
	}

	err = f.service.Scan(ctx, session, &sinkRecorder{})
	assert.ErrorIs(t, err, core.ErrScanInFlight, "overlapping scan is rejected at the boundary")

	close(release)
	select {
	case err := <-firstDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first scan never finished")
	}

	// with the gate free again, a new scan is accepted
	assert.NoError(t, f.service.Scan(ctx, session, &sinkRecorder{}))
}

func TestScanCompletesWithTerminalStatus(t *testing.T) {
	gateway := &gatewayMock{
		SearchFunc: func(_ context.Context, query string, _ int64) []core.MessageRef {
			if query == core.DefaultScanWindowConfig().Query {
				return []core.MessageRef{{ID: "m1"}, {ID: "m2"}}
			}
			return nil
		},
	}

	f := newFixture(gateway, &llmMock{}, &credsMock{}, Config{})
	ctx := context.Background()

	session, err := f.service.SignIn(ctx)
	require.NoError(t, err)

	sink := &sinkRecorder{}
	require.NoError(t, f.service.Scan(ctx, session, sink))

	assert.Equal(t, []string{"Triage complete."}, sink.Statuses())
}

func TestScanRejectsEndedSession(t *testing.T) {
	f := newFixture(&gatewayMock{}, &llmMock{}, &credsMock{}, Config{})
	ctx := context.Background()

	session, err := f.service.SignIn(ctx)
	require.NoError(t, err)
	f.sessions.End()

	err = f.service.Scan(ctx, session, &sinkRecorder{})
	assert.ErrorIs(t, err, core.ErrStaleSession)
}

func TestScanReportsProfileFailure(t *testing.T) {
	llm := &llmMock{
		BuildProfileFunc: func(context.Context, core.ProfileSamples) (*core.UserProfile, error) {
			return nil, errors.New("model unreachable")
		},
	}
	f := newFixture(&gatewayMock{}, llm, &credsMock{}, Config{})
	ctx := context.Background()

	session, err := f.service.SignIn(ctx)
	require.NoError(t, err)

	sink := &sinkRecorder{}
	err = f.service.Scan(ctx, session, sink)

	var genErr *core.ProfileGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, []string{"Could not prepare your priority profile."}, sink.Statuses())
}

func TestLabelLowPriority(t *testing.T) {
	var labeled []string
	gateway := &gatewayMock{
		MutateFunc: func(_ context.Context, id string, addLabels, _ []string) bool {
			if id == "denied" {
				return false
			}
			assert.Equal(t, []string{"Label_42"}, addLabels)
			labeled = append(labeled, id)
			return true
		},
	}

	cfg := Config{
		LowPriorityEnabled:  true,
		LowPriorityMaxScore: 20,
		LowPriorityLabelID:  "Label_42",
	}
	f := newFixture(gateway, &llmMock{}, &credsMock{}, cfg)

	messages := []core.ScoredMessage{
		{Detail: core.NewMessageDetail("low", "", nil), Result: core.AnalysisResult{ID: "low", Score: 10}},
		{Detail: core.NewMessageDetail("at-threshold", "", nil), Result: core.AnalysisResult{ID: "at-threshold", Score: 20}},
		{Detail: core.NewMessageDetail("high", "", nil), Result: core.AnalysisResult{ID: "high", Score: 80}},
		{Detail: core.NewMessageDetail("pending", "", nil), Result: core.PendingResult("pending")},
		{Detail: core.NewMessageDetail("denied", "", nil), Result: core.AnalysisResult{ID: "denied", Score: 5}},
	}

	count := f.service.LabelLowPriority(context.Background(), messages)

	assert.Equal(t, 2, count, "a failed mutation is not counted")
	assert.Equal(t, []string{"low", "at-threshold"}, labeled)
}

func TestLabelLowPriorityDisabled(t *testing.T) {
	gateway := &gatewayMock{
		MutateFunc: func(context.Context, string, []string, []string) bool {
			t.Fatal("no mutation expected when labeling is disabled")
			return false
		},
	}
	f := newFixture(gateway, &llmMock{}, &credsMock{}, Config{})

	messages := []core.ScoredMessage{
		{Detail: core.NewMessageDetail("low", "", nil), Result: core.AnalysisResult{ID: "low", Score: 0}},
	}
	assert.Zero(t, f.service.LabelLowPriority(context.Background(), messages))
}

func TestSummarizeMessageWithoutCapability(t *testing.T) {
	f := newFixture(&gatewayMock{}, &llmMock{}, &credsMock{}, Config{})

	session, err := f.service.SignIn(context.Background())
	require.NoError(t, err)

	points, err := f.service.SummarizeMessage(context.Background(), session, "snippet", nil)
	assert.ErrorIs(t, err, core.ErrSummarizerUnavailable)
	assert.Nil(t, points)
}

func TestTranslateSummaryWithoutCapability(t *testing.T) {
	f := newFixture(&gatewayMock{}, &llmMock{}, &credsMock{}, Config{})

	session, err := f.service.SignIn(context.Background())
	require.NoError(t, err)

	original := []string{"one", "two"}
	points, err := f.service.TranslateSummary(context.Background(), session, "ja", original)

	assert.ErrorIs(t, err, core.ErrTranslatorUnavailable)
	assert.Equal(t, original, points, "points come back untouched")
}
