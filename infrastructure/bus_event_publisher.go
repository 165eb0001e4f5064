package infrastructure

import (
	"context"
	"math"
	"time"

	"wordler/events"
	"wordler/models"
)

// BusEventPublisher turns application notifications into domain events on
// the in-process bus
type BusEventPublisher struct {
	bus *events.Bus
	now func() time.Time
}

// NewBusEventPublisher creates a publisher emitting onto bus
func NewBusEventPublisher(bus *events.Bus) *BusEventPublisher {
	return &BusEventPublisher{
		bus: bus,
		now: time.Now,
	}
}

// PublishResultRecorded emits a ResultRecordedEvent
func (p *BusEventPublisher) PublishResultRecorded(ctx context.Context, result models.PuzzleResult) error {
	p.bus.Emit(ctx, events.ResultRecordedEvent{
		AuthorID:      result.AuthorID,
		AuthorName:    result.AuthorName,
		PuzzleID:      result.PuzzleID,
		Solved:        result.Solved,
		Attempts:      result.Attempts,
		HardMode:      result.HardMode,
		Source:        string(result.Source),
		MessageID:     result.MessageID,
		MessageSentAt: result.Timestamp.UTC(),
	})
	return nil
}

// PublishLeaderboardPublished emits a LeaderboardPublishedEvent
func (p *BusEventPublisher) PublishLeaderboardPublished(ctx context.Context, channelID string, entries []models.LeaderboardEntry) error {
	standings := make([]events.LeaderboardStanding, len(entries))
	for i, entry := range entries {
		avg := entry.AverageAttempts
		if math.IsInf(avg, 0) {
			avg = 0
		}
		standings[i] = events.LeaderboardStanding{
			Rank:            entry.Rank,
			AuthorID:        entry.AuthorID,
			DisplayName:     entry.DisplayName,
			WinRate:         entry.WinRate,
			AverageAttempts: avg,
			GamesPlayed:     entry.GamesPlayed,
			Movement:        entry.Movement.String(),
		}
	}

	p.bus.Emit(ctx, events.LeaderboardPublishedEvent{
		ChannelID:   channelID,
		Standings:   standings,
		PublishedAt: p.now().UTC(),
	})
	return nil
}
