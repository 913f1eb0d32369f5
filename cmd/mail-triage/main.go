package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/di"
	"github.com/mikey/llm-mail-triage/internal/triage"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	service *triage.Service,
	scanCfg config.ScanConfig,
) error {
	defer logger.Sync()

	ctx := context.Background()

	session, err := service.SignIn(ctx)
	if err != nil {
		logger.Error("Sign-in failed", zap.Error(err))
		return err
	}

	sink := newLogSink(logger)

	scan := func() {
		if err := service.Scan(ctx, session, sink); err != nil {
			logger.Warn("Scan did not complete", zap.Error(err))
			return
		}
		service.LabelLowPriority(ctx, sink.Latest())
	}

	scan()

	ticker := time.NewTicker(scanCfg.RescanInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			scan()
		case <-sigCh:
			logger.Info("Shutting down...")
			return nil
		}
	}
}

// logSink reports scan progress through the logger and remembers the
// latest accumulated collection
type logSink struct {
	logger *zap.Logger

	mu     sync.Mutex
	latest []core.ScoredMessage
}

func newLogSink(logger *zap.Logger) *logSink {
	return &logSink{logger: logger}
}

func (s *logSink) OnBatch(messages []core.ScoredMessage) {
	s.mu.Lock()
	s.latest = messages
	s.mu.Unlock()

	pending := 0
	for _, m := range messages {
		if m.Result.Pending() {
			pending++
		}
	}

	fields := []zap.Field{
		zap.Int("messages", len(messages)),
		zap.Int("pending", pending),
	}
	if ranked := core.RankByScore(messages); len(ranked) > 0 && !ranked[0].Result.Pending() {
		fields = append(fields,
			zap.String("top_id", ranked[0].Detail.ID),
			zap.Int("top_score", ranked[0].Result.Score),
			zap.String("top_title", ranked[0].Result.SummarizedTitle))
	}
	s.logger.Info("Scan progress", fields...)
}

func (s *logSink) OnStatus(status string) {
	s.logger.Info("Scan status", zap.String("status", status))
}

// Latest returns the most recent collection the sink has seen
func (s *logSink) Latest() []core.ScoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
