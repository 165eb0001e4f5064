package application

import (
	"context"
	"errors"
	"fmt"

	"wordler/service"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultBackfillLimit is used when the caller gives no limit
	DefaultBackfillLimit = 1000
	// MaxBackfillLimit caps a single scan
	MaxBackfillLimit = 10000
)

// BackfillScanner replays channel history through the router into the store
type BackfillScanner struct {
	router    *ResultRouter
	store     StatsRecorder
	publisher EventPublisher
	metrics   MetricsRecorder
	selfID    string
}

// NewBackfillScanner creates a new BackfillScanner. Messages authored by
// selfID (the bot itself) are skipped.
func NewBackfillScanner(router *ResultRouter, store StatsRecorder, publisher EventPublisher, metrics MetricsRecorder, selfID string) *BackfillScanner {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &BackfillScanner{
		router:    router,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		selfID:    selfID,
	}
}

// Backfill consumes at most limit messages and returns how many results were
// recorded. History order is irrelevant because streaks follow puzzle IDs.
// A cancelled context, a closed store or a failing iterator ends the scan
// early; whatever was recorded is still persisted while the store is open.
func (s *BackfillScanner) Backfill(ctx context.Context, history MessageIterator, limit int) (int, error) {
	limit = ClampBackfillLimit(limit)

	recorded, scanned := 0, 0
	var scanErr error

	for scanned < limit {
		if err := ctx.Err(); err != nil {
			scanErr = err
			break
		}

		msg, ok, err := history.Next(ctx)
		if err != nil {
			scanErr = fmt.Errorf("failed to read message history: %w", err)
			break
		}
		if !ok {
			break
		}
		scanned++

		if s.selfID != "" && msg.AuthorID == s.selfID {
			continue
		}

		results := s.router.RouteAll(ctx, msg)
		if len(results) == 0 {
			continue
		}
		n, err := recordResults(ctx, s.store, s.publisher, s.metrics, results)
		recorded += n
		if err != nil {
			scanErr = fmt.Errorf("failed to record results: %w", err)
			break
		}
	}

	if recorded > 0 && !errors.Is(scanErr, service.ErrStoreClosed) {
		// The scan may have been cancelled; the checkpoint must still land
		persistCtx := context.WithoutCancel(ctx)
		if err := s.store.Persist(persistCtx); err != nil {
			scanErr = errors.Join(scanErr, fmt.Errorf("failed to persist stats: %w", err))
		}
	}

	log.WithFields(log.Fields{
		"scanned":  scanned,
		"recorded": recorded,
		"limit":    limit,
	}).Info("Wordle backfill complete")

	return recorded, scanErr
}

// ClampBackfillLimit applies the default and the upper bound
func ClampBackfillLimit(limit int) int {
	if limit <= 0 {
		return DefaultBackfillLimit
	}
	if limit > MaxBackfillLimit {
		return MaxBackfillLimit
	}
	return limit
}
