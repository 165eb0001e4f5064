package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBus_DeliversToSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	received := make(chan ResultRecordedEvent, 2)

	for i := 0; i < 2; i++ {
		bus.Subscribe(EventTypeResultRecorded, func(ctx context.Context, event Event) {
			if e, ok := event.(ResultRecordedEvent); ok {
				received <- e
			}
		})
	}

	event := ResultRecordedEvent{
		AuthorID: "111",
		PuzzleID: 1000,
		Solved:   true,
		Attempts: 3,
		Source:   "text",
	}
	bus.Emit(context.Background(), event)
	bus.Drain()

	require.Len(t, received, 2)
	assert.Equal(t, event, <-received)
	assert.Equal(t, event, <-received)
}

func TestBus_OnlyMatchingType(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	var calls atomic.Int32
	bus.Subscribe(EventTypeLeaderboardPublished, func(ctx context.Context, event Event) {
		calls.Add(1)
	})

	bus.Emit(context.Background(), ResultRecordedEvent{AuthorID: "111"})
	bus.Drain()
	assert.Equal(t, int32(0), calls.Load())

	bus.Emit(context.Background(), LeaderboardPublishedEvent{ChannelID: "c", PublishedAt: time.Now()})
	bus.Drain()
	assert.Equal(t, int32(1), calls.Load())
}

func TestBus_RecoversFromPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	var delivered atomic.Bool
	bus.Subscribe(EventTypeResultRecorded, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeResultRecorded, func(ctx context.Context, event Event) {
		delivered.Store(true)
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), ResultRecordedEvent{AuthorID: "111"})
		bus.Drain()
	})
	assert.True(t, delivered.Load())
}

func TestBus_HandlersOutliveCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	errs := make(chan error, 1)
	bus.Subscribe(EventTypeResultRecorded, func(ctx context.Context, event Event) {
		errs <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Emit(ctx, ResultRecordedEvent{AuthorID: "111"})
	bus.Drain()

	assert.NoError(t, <-errs)
}
