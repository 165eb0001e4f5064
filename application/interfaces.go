package application

import (
	"context"
	"time"

	"wordler/models"
)

// StatsRecorder is the slice of the StatsStore the application layer writes through
type StatsRecorder interface {
	Record(ctx context.Context, result models.PuzzleResult) error
	Persist(ctx context.Context) error
}

// MessageIterator yields historical channel messages one at a time.
// ok is false once the history is exhausted.
type MessageIterator interface {
	Next(ctx context.Context) (msg models.InboundMessage, ok bool, err error)
}

// EventPublisher publishes domain events to the rest of the system
type EventPublisher interface {
	PublishResultRecorded(ctx context.Context, result models.PuzzleResult) error
	PublishLeaderboardPublished(ctx context.Context, channelID string, entries []models.LeaderboardEntry) error
}

// MetricsRecorder receives pipeline counters. The observability package
// provides the OpenTelemetry implementation.
type MetricsRecorder interface {
	RecordMessageRouted(source string)
	RecordResultRecorded(source string)
	RecordParseFailure(reason string)
	RecordExtractionFailure(reason string)
}

// Clock abstracts wall-clock time so schedules can be tested
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock implements Clock with the time package
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// After waits for the duration to elapse
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type noopMetrics struct{}

func (noopMetrics) RecordMessageRouted(string)     {}
func (noopMetrics) RecordResultRecorded(string)    {}
func (noopMetrics) RecordParseFailure(string)      {}
func (noopMetrics) RecordExtractionFailure(string) {}
