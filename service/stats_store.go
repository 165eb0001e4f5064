package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wordler/models"

	log "github.com/sirupsen/logrus"
)

// storeState is owned exclusively by the store goroutine
type storeState struct {
	players  map[string]*models.PlayerStats
	snapshot []string
}

type storeRequest struct {
	fn    func(*storeState)
	reply chan struct{}
}

// StatsStore owns every player's aggregate. All reads and writes are
// executed one at a time by a single goroutine, so each request observes
// and leaves the state consistent.
type StatsStore struct {
	repo     StatsRepository
	now      func() time.Time
	requests chan storeRequest
	quit     chan struct{}
	done     chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewStatsStore creates a store checkpointing through repo. Call Start
// before issuing requests.
func NewStatsStore(repo StatsRepository) *StatsStore {
	return &StatsStore{
		repo:     repo,
		now:      time.Now,
		requests: make(chan storeRequest),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the owning goroutine
func (s *StatsStore) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Stop ends the owning goroutine and waits for it. Requests issued after
// Stop return ErrStoreClosed.
func (s *StatsStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	s.startOnce.Do(func() {
		// Never started, nothing to wait for
		close(s.done)
	})
	<-s.done
}

func (s *StatsStore) run() {
	defer close(s.done)

	state := &storeState{players: make(map[string]*models.PlayerStats)}
	for {
		select {
		case req := <-s.requests:
			req.fn(state)
			close(req.reply)
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the store goroutine. Once accepted, fn always runs to
// completion even if ctx is cancelled meanwhile.
func (s *StatsStore) do(ctx context.Context, fn func(*storeState)) error {
	req := storeRequest{fn: fn, reply: make(chan struct{})}
	select {
	case s.requests <- req:
	case <-s.done:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.reply
	return nil
}

// Record folds one result into its author's aggregate. The same result
// recorded twice counts twice.
func (s *StatsStore) Record(ctx context.Context, result models.PuzzleResult) error {
	if result.AuthorID == "" {
		return fmt.Errorf("result has no author")
	}
	if result.Solved && (result.DistributionRow < 1 || result.DistributionRow > models.MaxAttempts) {
		return fmt.Errorf("invalid distribution row %d", result.DistributionRow)
	}

	return s.do(ctx, func(st *storeState) {
		player, ok := st.players[result.AuthorID]
		if !ok {
			player = &models.PlayerStats{}
			st.players[result.AuthorID] = player
		}
		player.Apply(result, s.now().UTC())

		log.WithFields(log.Fields{
			"author_id":      result.AuthorID,
			"puzzle_id":      result.PuzzleID,
			"solved":         result.Solved,
			"attempts":       result.Attempts,
			"source":         result.Source,
			"current_streak": player.CurrentStreak,
		}).Info("Recorded Wordle result")
	})
}

// Get returns a copy of one player's aggregate
func (s *StatsStore) Get(ctx context.Context, authorID string) (models.PlayerStats, error) {
	var stats models.PlayerStats
	found := false
	err := s.do(ctx, func(st *storeState) {
		if player, ok := st.players[authorID]; ok {
			stats = player.Clone()
			found = true
		}
	})
	if err != nil {
		return models.PlayerStats{}, err
	}
	if !found {
		return models.PlayerStats{}, ErrPlayerNotFound
	}
	return stats, nil
}

// Snapshot returns a consistent copy of every aggregate ordered by author ID
func (s *StatsStore) Snapshot(ctx context.Context) ([]models.PlayerSnapshot, error) {
	var snapshot []models.PlayerSnapshot
	err := s.do(ctx, func(st *storeState) {
		snapshot = st.playerSnapshot()
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RankingInput returns the player snapshot together with the last published
// ranking, both read in the same request so no record lands between them
func (s *StatsStore) RankingInput(ctx context.Context) ([]models.PlayerSnapshot, []string, error) {
	var (
		snapshot []models.PlayerSnapshot
		previous []string
	)
	err := s.do(ctx, func(st *storeState) {
		snapshot = st.playerSnapshot()
		previous = append([]string(nil), st.snapshot...)
	})
	if err != nil {
		return nil, nil, err
	}
	return snapshot, previous, nil
}

// playerSnapshot copies every player, sorted by author ID
func (st *storeState) playerSnapshot() []models.PlayerSnapshot {
	snapshot := make([]models.PlayerSnapshot, 0, len(st.players))
	for id, player := range st.players {
		snapshot = append(snapshot, models.PlayerSnapshot{AuthorID: id, Stats: player.Clone()})
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].AuthorID < snapshot[j].AuthorID
	})
	return snapshot
}

// LeaderboardSnapshot returns the author IDs of the last published ranking
func (s *StatsStore) LeaderboardSnapshot(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.do(ctx, func(st *storeState) {
		ids = append([]string(nil), st.snapshot...)
	})
	return ids, err
}

// UpdateLeaderboardSnapshot replaces the last published ranking
func (s *StatsStore) UpdateLeaderboardSnapshot(ctx context.Context, authorIDs []string) error {
	ids := append([]string(nil), authorIDs...)
	return s.do(ctx, func(st *storeState) {
		st.snapshot = ids
	})
}

// Persist writes the full state through the repository. Records wait while
// the checkpoint is written, so the saved document is a single point in time.
func (s *StatsStore) Persist(ctx context.Context) error {
	var saveErr error
	err := s.do(ctx, func(st *storeState) {
		doc := &models.StatsDocument{
			Users:               make(map[string]models.PlayerStats, len(st.players)),
			LeaderboardSnapshot: append([]string(nil), st.snapshot...),
			UpdatedAt:           s.now().UTC(),
		}
		for id, player := range st.players {
			doc.Users[id] = player.Clone()
		}
		saveErr = s.repo.Save(ctx, doc)
	})
	if err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save stats: %w", saveErr)
	}
	return nil
}

// Load replaces the in-memory state with the saved document. A missing or
// corrupt store starts empty; any other repository error is returned and
// the current state is kept.
func (s *StatsStore) Load(ctx context.Context) error {
	doc, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, ErrStoreNotFound):
		log.Info("No saved Wordle stats found, starting fresh")
		doc = models.NewStatsDocument()
	case errors.Is(err, ErrStoreCorruption):
		log.WithError(err).Warn("Saved Wordle stats are unreadable, starting from empty state")
		doc = models.NewStatsDocument()
	case err != nil:
		return fmt.Errorf("failed to load stats: %w", err)
	}

	players := make(map[string]*models.PlayerStats, len(doc.Users))
	for id, stats := range doc.Users {
		if err := stats.Validate(); err != nil {
			log.WithError(err).WithField("author_id", id).Warn("Dropping inconsistent player stats")
			continue
		}
		player := stats.Clone()
		players[id] = &player
	}

	snapshot := append([]string(nil), doc.LeaderboardSnapshot...)
	if err := s.do(ctx, func(st *storeState) {
		st.players = players
		st.snapshot = snapshot
	}); err != nil {
		return err
	}

	log.WithField("players", len(players)).Info("Loaded Wordle stats")
	return nil
}
