package service

import (
	"context"
	"fmt"

	"wordler/models"

	log "github.com/sirupsen/logrus"
)

// LeaderboardStore is what the leaderboard service needs from the StatsStore
type LeaderboardStore interface {
	StatsReader
	Persist(ctx context.Context) error
}

// LeaderboardService ranks the current stats for display and publication
type LeaderboardService struct {
	store    LeaderboardStore
	minGames int
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(store LeaderboardStore, minGames int) *LeaderboardService {
	return &LeaderboardService{
		store:    store,
		minGames: minGames,
	}
}

// Leaderboard returns the top size entries, with movement against the last
// published ranking
func (s *LeaderboardService) Leaderboard(ctx context.Context, size int) ([]models.LeaderboardEntry, error) {
	entries, err := s.rank(ctx)
	if err != nil {
		return nil, err
	}
	return Top(entries, size), nil
}

// PostFunc delivers a ranked board. Publish moves the movement baseline only
// after it returns nil.
type PostFunc func(ctx context.Context, entries []models.LeaderboardEntry) error

// Publish ranks the board, hands the top size entries to post and, once the
// post has gone out, records the full ranking as the new baseline for
// movement arrows. The returned entries carry movement against the previous
// baseline. A failed post leaves the baseline untouched.
func (s *LeaderboardService) Publish(ctx context.Context, size int, post PostFunc) ([]models.LeaderboardEntry, error) {
	entries, err := s.rank(ctx)
	if err != nil {
		return nil, err
	}

	top := Top(entries, size)
	if err := post(ctx, top); err != nil {
		return nil, err
	}

	// The board is out; a failure from here on must not trigger a second post
	if err := s.store.UpdateLeaderboardSnapshot(ctx, AuthorIDs(entries)); err != nil {
		log.WithError(err).Error("Failed to update leaderboard snapshot after posting")
		return top, nil
	}
	if err := s.store.Persist(ctx); err != nil {
		// The baseline is in memory and lands with the next checkpoint
		log.WithError(err).Warn("Failed to persist leaderboard snapshot")
	}

	return top, nil
}

func (s *LeaderboardService) rank(ctx context.Context) ([]models.LeaderboardEntry, error) {
	snapshot, previous, err := s.store.RankingInput(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot stats: %w", err)
	}

	entries := ApplyMovement(Rank(snapshot, s.minGames), previous)
	return entries, nil
}
