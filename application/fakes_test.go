package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"wordler/models"

	"github.com/stretchr/testify/mock"
)

type stubRecognizer struct {
	text  string
	err   error
	calls int
}

func (s *stubRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubResolver map[string]ResolvedUser

func (s stubResolver) ResolveHandle(ctx context.Context, guildID, handle string) (*ResolvedUser, error) {
	user, ok := s[strings.ToLower(handle)]
	if !ok {
		return nil, errNotFound
	}
	return &user, nil
}

type testError string

func (e testError) Error() string { return string(e) }

const errNotFound = testError("member not found")

// fakeStore records results in memory
type fakeStore struct {
	mu         sync.Mutex
	recorded   []models.PuzzleResult
	persists   int
	recordErr  map[string]error
	persistErr error
}

func (f *fakeStore) Record(ctx context.Context, result models.PuzzleResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.recordErr[result.AuthorID]; err != nil {
		return err
	}
	f.recorded = append(f.recorded, result)
	return nil
}

func (f *fakeStore) Persist(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persists++
	return f.persistErr
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishResultRecorded(ctx context.Context, result models.PuzzleResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockPublisher) PublishLeaderboardPublished(ctx context.Context, channelID string, entries []models.LeaderboardEntry) error {
	args := m.Called(ctx, channelID, entries)
	return args.Error(0)
}

// countingMetrics counts each recorded label
type countingMetrics struct {
	mu         sync.Mutex
	routed     map[string]int
	recorded   map[string]int
	parse      map[string]int
	extraction map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		routed:     map[string]int{},
		recorded:   map[string]int{},
		parse:      map[string]int{},
		extraction: map[string]int{},
	}
}

func (m *countingMetrics) RecordMessageRouted(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routed[source]++
}

func (m *countingMetrics) RecordResultRecorded(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded[source]++
}

func (m *countingMetrics) RecordParseFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parse[reason]++
}

func (m *countingMetrics) RecordExtractionFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extraction[reason]++
}

// sliceHistory iterates over a fixed list of messages
type sliceHistory struct {
	messages []models.InboundMessage
	pos      int
	err      error
	errAt    int
}

func (h *sliceHistory) Next(ctx context.Context) (models.InboundMessage, bool, error) {
	if h.err != nil && h.pos == h.errAt {
		return models.InboundMessage{}, false, h.err
	}
	if h.pos >= len(h.messages) {
		return models.InboundMessage{}, false, nil
	}
	msg := h.messages[h.pos]
	h.pos++
	return msg, true, nil
}

// fakeClock advances only when told to
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

type clockWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	at := c.now.Add(d)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, clockWaiter{at: at, ch: ch})
	return ch
}

// Advance moves the clock forward and fires every due waiter
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}

func (c *fakeClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func textMessage(id, authorID, text string) models.InboundMessage {
	return models.InboundMessage{
		Text:       text,
		AuthorID:   authorID,
		AuthorName: "player-" + authorID,
		MessageID:  id,
		ChannelID:  "wordle-channel",
		GuildID:    "guild",
		Timestamp:  time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

// appMessage is a message posted by the Wordle app integration
func appMessage(id, text string) models.InboundMessage {
	msg := textMessage(id, "wordle-app", text)
	msg.AuthorIsBot = true
	return msg
}
