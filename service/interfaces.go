package service

import (
	"context"
	"errors"

	"wordler/models"
)

var (
	// ErrStoreNotFound is returned by a StatsRepository with nothing saved yet
	ErrStoreNotFound = errors.New("stats store not found")
	// ErrStoreCorruption is returned by a StatsRepository whose saved state cannot be read
	ErrStoreCorruption = errors.New("stats store is corrupt")
	// ErrPlayerNotFound is returned for a player with no recorded games
	ErrPlayerNotFound = errors.New("player not found")
	// ErrStoreClosed is returned for requests after the store stopped
	ErrStoreClosed = errors.New("stats store is closed")
)

// StatsRepository checkpoints and restores the whole stats document
type StatsRepository interface {
	// Load reads the saved document. It returns ErrStoreNotFound when
	// nothing was saved and wraps ErrStoreCorruption when the saved state
	// is unreadable.
	Load(ctx context.Context) (*models.StatsDocument, error)

	// Save replaces the saved document atomically
	Save(ctx context.Context, doc *models.StatsDocument) error
}

// StatsReader is the read side of the StatsStore used by ranking and rendering
type StatsReader interface {
	Get(ctx context.Context, authorID string) (models.PlayerStats, error)
	Snapshot(ctx context.Context) ([]models.PlayerSnapshot, error)
	RankingInput(ctx context.Context) ([]models.PlayerSnapshot, []string, error)
	LeaderboardSnapshot(ctx context.Context) ([]string, error)
	UpdateLeaderboardSnapshot(ctx context.Context, authorIDs []string) error
}
