package core

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScanWindowConfig bounds the set of recent messages scored in one scan
type ScanWindowConfig struct {
	Query       string
	MaxMessages int64
	BatchSize   int
}

// DefaultScanWindowConfig returns the standard scoring window
func DefaultScanWindowConfig() ScanWindowConfig {
	return ScanWindowConfig{
		Query:       "in:inbox is:unread newer_than:2d",
		MaxMessages: 7,
		BatchSize:   5,
	}
}

// ScoringEngine scores the recent-message window against a profile in
// sequential batches and reports the accumulated collection to a sink
// after every batch
type ScoringEngine struct {
	gateway  MailGateway
	llm      LLMClient
	sessions *SessionTracker
	logger   *zap.Logger
	cfg      ScanWindowConfig
}

// NewScoringEngine creates a new scoring engine
func NewScoringEngine(
	gateway MailGateway,
	llm LLMClient,
	sessions *SessionTracker,
	logger *zap.Logger,
	cfg ScanWindowConfig,
) *ScoringEngine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &ScoringEngine{
		gateway:  gateway,
		llm:      llm,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
	}
}

// ScoreRecent runs one scan. The sink first sees every message as a
// placeholder, then the growing set of resolved results after each batch.
// Batches run strictly one at a time; a failed batch produces synthetic
// failure records for its own messages only and the scan continues.
// Results that resolve after the session has ended are discarded.
func (e *ScoringEngine) ScoreRecent(ctx context.Context, session *Session, profile *UserProfile, sink ProgressSink) error {
	scanID := uuid.NewString()
	log := e.logger.With(zap.String("scan_id", scanID))

	refs := e.gateway.Search(ctx, e.cfg.Query, e.cfg.MaxMessages)
	if len(refs) == 0 {
		// Caught up: one empty delivery, no inference calls
		log.Info("No messages in scoring window")
		sink.OnBatch([]ScoredMessage{})
		return nil
	}

	details, err := e.gateway.FetchDetails(ctx, refs)
	if err != nil {
		return &SearchFetchError{Query: e.cfg.Query, Err: err}
	}

	// Seed placeholders so a consumer sees the window before any
	// inference completes. Order is the fetch order throughout.
	collection := make([]ScoredMessage, len(details))
	for i, d := range details {
		collection[i] = ScoredMessage{Detail: d, Result: PendingResult(d.ID)}
	}
	sink.OnBatch(snapshot(collection))

	log.Info("Scoring window seeded",
		zap.Int("messages", len(collection)),
		zap.Int("batch_size", e.cfg.BatchSize))

	for start := 0; start < len(collection); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(collection) {
			end = len(collection)
		}
		batchIdx := start / e.cfg.BatchSize

		batch := make([]MessageDetail, 0, end-start)
		for _, m := range collection[start:end] {
			batch = append(batch, m.Detail)
		}

		results, err := e.llm.ScoreBatch(ctx, profile, batch)

		// The session is the authority: a call that resolves after
		// sign-out must not mutate anything.
		if !e.sessions.Active(session) {
			log.Info("Discarding batch results for ended session",
				zap.Uint64("session_id", session.ID()),
				zap.Int("batch", batchIdx))
			return ErrStaleSession
		}

		if err != nil {
			batchErr := &BatchScoringError{Batch: batchIdx, Err: err}
			log.Warn("Batch scoring failed, writing failure records",
				zap.Int("batch", batchIdx),
				zap.Error(batchErr))
			for i := start; i < end; i++ {
				collection[i].Result = FailedResult(collection[i].Detail.ID)
			}
		} else {
			e.applyBatch(log, collection[start:end], results)
		}

		sink.OnBatch(snapshot(collection))
	}

	return nil
}

// applyBatch overwrites placeholders with returned results, matching by id.
// Entries with ids outside the batch are dropped; batch messages the model
// omitted keep their placeholder.
func (e *ScoringEngine) applyBatch(log *zap.Logger, batch []ScoredMessage, results []AnalysisResult) {
	index := make(map[string]int, len(batch))
	for i, m := range batch {
		index[m.Detail.ID] = i
	}

	for _, r := range results {
		i, ok := index[r.ID]
		if !ok {
			log.Debug("Dropping result with unknown id", zap.String("id", r.ID))
			continue
		}
		if !batch[i].Result.Pending() {
			continue
		}
		batch[i].Result = r
	}

	for _, m := range batch {
		if m.Result.Pending() {
			log.Debug("Message left unscored by its batch", zap.String("id", m.Detail.ID))
		}
	}
}

// snapshot hands the sink its own copy so the scan's collection stays
// exclusively owned by the scan
func snapshot(collection []ScoredMessage) []ScoredMessage {
	out := make([]ScoredMessage, len(collection))
	copy(out, collection)
	return out
}
