package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeResultRecorded       EventType = "result_recorded"
	EventTypeLeaderboardPublished EventType = "leaderboard_published"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ResultRecordedEvent is emitted after a puzzle result is folded into a
// player's stats
type ResultRecordedEvent struct {
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name,omitempty"`
	PuzzleID      int       `json:"puzzle_id"`
	Solved        bool      `json:"solved"`
	Attempts      int       `json:"attempts"`
	HardMode      bool      `json:"hard_mode"`
	Source        string    `json:"source"`
	MessageID     string    `json:"message_id,omitempty"`
	MessageSentAt time.Time `json:"message_sent_at"`
}

func (e ResultRecordedEvent) Type() EventType {
	return EventTypeResultRecorded
}

// LeaderboardStanding is one row of a published leaderboard
type LeaderboardStanding struct {
	Rank            int     `json:"rank"`
	AuthorID        string  `json:"author_id"`
	DisplayName     string  `json:"display_name,omitempty"`
	WinRate         float64 `json:"win_rate"`
	AverageAttempts float64 `json:"average_attempts,omitempty"`
	GamesPlayed     int     `json:"games_played"`
	Movement        string  `json:"movement"`
}

// LeaderboardPublishedEvent is emitted after the leaderboard is posted
type LeaderboardPublishedEvent struct {
	ChannelID   string                `json:"channel_id"`
	Standings   []LeaderboardStanding `json:"standings"`
	PublishedAt time.Time             `json:"published_at"`
}

func (e LeaderboardPublishedEvent) Type() EventType {
	return EventTypeLeaderboardPublished
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so a slow consumer never blocks message processing.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers outlive the emitting request
	ctx = context.WithoutCancel(ctx)

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Drain waits for every in-flight handler to return. Call it during
// shutdown after the last Emit.
func (b *Bus) Drain() {
	b.wg.Wait()
}
