package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SampleQuery describes one historical mailbox sample
type SampleQuery struct {
	Query string
	Max   int64
}

// ProfileBuilderConfig holds the four sample queries a profile is built from
type ProfileBuilderConfig struct {
	Important   SampleQuery
	UnreadStale SampleQuery
	Spam        SampleQuery
	Trash       SampleQuery
}

// DefaultProfileBuilderConfig returns the standard sample queries
func DefaultProfileBuilderConfig() ProfileBuilderConfig {
	return ProfileBuilderConfig{
		Important:   SampleQuery{Query: "is:important OR is:starred", Max: 15},
		UnreadStale: SampleQuery{Query: "is:unread older_than:2d", Max: 15},
		Spam:        SampleQuery{Query: "in:spam", Max: 10},
		Trash:       SampleQuery{Query: "in:trash", Max: 10},
	}
}

// ProfileBuilder derives a priority profile from mailbox history in one
// constrained inference call and persists the result
type ProfileBuilder struct {
	gateway MailGateway
	llm     LLMClient
	store   ProfileStore
	logger  *zap.Logger
	cfg     ProfileBuilderConfig
	now     func() time.Time
}

// NewProfileBuilder creates a new profile builder
func NewProfileBuilder(
	gateway MailGateway,
	llm LLMClient,
	store ProfileStore,
	logger *zap.Logger,
	cfg ProfileBuilderConfig,
) *ProfileBuilder {
	return &ProfileBuilder{
		gateway: gateway,
		llm:     llm,
		store:   store,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Build fetches the four historical samples concurrently, asks the LLM
// for a profile, validates it, and persists it with its build timestamp
// as one write. No partial profile is ever persisted.
func (b *ProfileBuilder) Build(ctx context.Context) (*UserProfile, error) {
	var samples ProfileSamples

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		samples.Important = b.sample(gctx, b.cfg.Important)
		return nil
	})
	g.Go(func() error {
		samples.UnreadStale = b.sample(gctx, b.cfg.UnreadStale)
		return nil
	})
	g.Go(func() error {
		samples.Spam = b.sample(gctx, b.cfg.Spam)
		return nil
	})
	g.Go(func() error {
		samples.Trash = b.sample(gctx, b.cfg.Trash)
		return nil
	})
	_ = g.Wait()

	profile, err := b.llm.BuildProfile(ctx, samples)
	if err != nil {
		var genErr *ProfileGenerationError
		if errors.As(err, &genErr) {
			return nil, err
		}
		return nil, &ProfileGenerationError{Reason: "inference call failed", Err: err}
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	record := &ProfileRecord{Profile: *profile, BuiltAt: b.now()}
	if err := b.store.Set(ctx, record); err != nil {
		return nil, err
	}

	b.logger.Info("Built priority profile",
		zap.Int("high_priority_senders", len(profile.HighPrioritySenders)),
		zap.Int("high_priority_keywords", len(profile.HighPriorityKeywords)),
		zap.Int("low_priority_senders", len(profile.LowPrioritySenders)),
		zap.Int("low_priority_keywords", len(profile.LowPriorityKeywords)))

	return profile, nil
}

// sample fetches one historical sample, degraded to empty on any failure.
// Historical sampling tolerates gaps; the profile is built from whatever
// history is reachable.
func (b *ProfileBuilder) sample(ctx context.Context, q SampleQuery) []ProfileSample {
	refs := b.gateway.Search(ctx, q.Query, q.Max)
	if len(refs) == 0 {
		return []ProfileSample{}
	}

	details, err := b.gateway.FetchDetails(ctx, refs)
	if err != nil {
		b.logger.Warn("Skipping history sample",
			zap.String("query", q.Query),
			zap.Error(err))
		return []ProfileSample{}
	}

	samples := make([]ProfileSample, 0, len(details))
	for _, d := range details {
		samples = append(samples, SampleFromDetail(d))
	}
	return samples
}

// ProfileCache answers whether the persisted profile is still fresh and
// supplies the cached or freshly built profile
type ProfileCache struct {
	store   ProfileStore
	builder *ProfileBuilder
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewProfileCache creates a new profile cache
func NewProfileCache(store ProfileStore, builder *ProfileBuilder, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	return &ProfileCache{
		store:   store,
		builder: builder,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// GetOrBuild returns the persisted profile when it is younger than the
// refresh interval, otherwise rebuilds it. The decision is synchronous:
// no background refresh, no stampede protection.
func (c *ProfileCache) GetOrBuild(ctx context.Context) (*UserProfile, error) {
	record, err := c.store.Get(ctx)
	if err == nil && !record.Stale(c.now(), c.ttl) {
		c.logger.Debug("Using cached profile", zap.Time("built_at", record.BuiltAt))
		profile := record.Profile
		return &profile, nil
	}
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		c.logger.Warn("Failed to read persisted profile, rebuilding", zap.Error(err))
	}

	return c.builder.Build(ctx)
}
