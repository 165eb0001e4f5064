package infrastructure

import (
	"context"

	"wordler/models"
)

// NoopEventPublisher is an event publisher that does nothing.
// Offline commands use it where events should not be emitted.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// PublishResultRecorded does nothing
func (n *NoopEventPublisher) PublishResultRecorded(ctx context.Context, result models.PuzzleResult) error {
	return nil
}

// PublishLeaderboardPublished does nothing
func (n *NoopEventPublisher) PublishLeaderboardPublished(ctx context.Context, channelID string, entries []models.LeaderboardEntry) error {
	return nil
}
