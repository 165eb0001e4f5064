package application

import (
	"context"
	"errors"
	"fmt"

	"wordler/models"
	"wordler/service"

	log "github.com/sirupsen/logrus"
)

// WordleHandler records the results carried by live channel messages
type WordleHandler struct {
	router    *ResultRouter
	store     StatsRecorder
	publisher EventPublisher
	metrics   MetricsRecorder
}

// NewWordleHandler creates a new WordleHandler
func NewWordleHandler(router *ResultRouter, store StatsRecorder, publisher EventPublisher, metrics MetricsRecorder) *WordleHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &WordleHandler{
		router:    router,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
	}
}

// HandleMessage routes a message and records every result it carries.
// Messages without a result are ignored silently; only a failed checkpoint
// is returned to the caller.
func (h *WordleHandler) HandleMessage(ctx context.Context, msg models.InboundMessage) (int, error) {
	results := h.router.RouteAll(ctx, msg)
	if len(results) == 0 {
		return 0, nil
	}

	recorded, err := recordResults(ctx, h.store, h.publisher, h.metrics, results)
	if err != nil {
		return recorded, fmt.Errorf("failed to record results: %w", err)
	}
	if recorded == 0 {
		return 0, nil
	}

	if err := h.store.Persist(ctx); err != nil {
		return recorded, fmt.Errorf("failed to persist stats: %w", err)
	}

	log.WithFields(log.Fields{
		"message_id": msg.MessageID,
		"author_id":  msg.AuthorID,
		"recorded":   recorded,
	}).Info("Successfully processed Wordle message")

	return recorded, nil
}

// recordResults records each result independently; a rejected result never
// stops the rest. A closed store or a cancelled context ends the loop and is
// returned.
func recordResults(ctx context.Context, store StatsRecorder, publisher EventPublisher, metrics MetricsRecorder, results []models.PuzzleResult) (int, error) {
	recorded := 0
	for _, result := range results {
		if err := store.Record(ctx, result); err != nil {
			if isTerminal(err) {
				return recorded, err
			}
			log.WithError(err).WithFields(log.Fields{
				"author_id": result.AuthorID,
				"puzzle_id": result.PuzzleID,
			}).Error("Failed to record Wordle result")
			continue
		}
		recorded++
		metrics.RecordResultRecorded(string(result.Source))

		if publisher == nil {
			continue
		}
		if err := publisher.PublishResultRecorded(ctx, result); err != nil {
			log.WithError(err).WithField("author_id", result.AuthorID).Warn("Failed to publish result recorded event")
		}
	}
	return recorded, nil
}

// isTerminal reports errors after which no further record can succeed
func isTerminal(err error) bool {
	return errors.Is(err, service.ErrStoreClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
