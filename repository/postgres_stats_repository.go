package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wordler/database"
	"wordler/models"
	"wordler/service"

	"github.com/jackc/pgx/v5"
)

// playerStatsDB is a local struct for database mapping
type playerStatsDB struct {
	AuthorID            string    `db:"author_id"`
	DisplayName         string    `db:"display_name"`
	GamesPlayed         int       `db:"games_played"`
	GamesWon            int       `db:"games_won"`
	TotalAttemptsOnWins int       `db:"total_attempts_on_wins"`
	Distribution        []int32   `db:"distribution"`
	CurrentStreak       int       `db:"current_streak"`
	MaxStreak           int       `db:"max_streak"`
	LastPuzzleID        int       `db:"last_puzzle_id"`
	WonPuzzles          []int32   `db:"won_puzzles"`
	LastResult          []byte    `db:"last_result"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// toDomain converts the database struct to the domain model
func (p *playerStatsDB) toDomain() (models.PlayerStats, error) {
	if len(p.Distribution) != models.MaxAttempts {
		return models.PlayerStats{}, fmt.Errorf("distribution has %d buckets", len(p.Distribution))
	}

	stats := models.PlayerStats{
		DisplayName:         p.DisplayName,
		GamesPlayed:         p.GamesPlayed,
		GamesWon:            p.GamesWon,
		TotalAttemptsOnWins: p.TotalAttemptsOnWins,
		CurrentStreak:       p.CurrentStreak,
		MaxStreak:           p.MaxStreak,
		LastPuzzleID:        p.LastPuzzleID,
		UpdatedAt:           p.UpdatedAt,
	}
	for i, n := range p.Distribution {
		stats.Distribution[i] = int(n)
	}
	if len(p.WonPuzzles) > 0 {
		stats.WonPuzzles = make([]int, len(p.WonPuzzles))
		for i, id := range p.WonPuzzles {
			stats.WonPuzzles[i] = int(id)
		}
	}

	if len(p.LastResult) > 0 {
		var last models.LastResult
		if err := json.Unmarshal(p.LastResult, &last); err != nil {
			return models.PlayerStats{}, fmt.Errorf("invalid last result: %w", err)
		}
		stats.LastResult = &last
	}

	return stats, nil
}

// PostgresStatsRepository stores the document in the wordle_player_stats
// and wordle_leaderboard_snapshot tables
type PostgresStatsRepository struct {
	db *database.DB
}

// NewPostgresStatsRepository creates a new Postgres-backed stats repository
func NewPostgresStatsRepository(db *database.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

// Load reads the stats document. A database that has never been saved to
// reports ErrStoreNotFound.
func (r *PostgresStatsRepository) Load(ctx context.Context) (*models.StatsDocument, error) {
	doc := models.NewStatsDocument()

	err := r.db.QueryRow(ctx, `SELECT updated_at FROM wordle_store_metadata WHERE id`).Scan(&doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store metadata: %w", err)
	}

	query := `
		SELECT author_id, display_name, games_played, games_won, total_attempts_on_wins,
		       distribution, current_streak, max_streak, last_puzzle_id, won_puzzles, last_result, updated_at
		FROM wordle_player_stats`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query player stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row playerStatsDB
		if err := rows.Scan(
			&row.AuthorID,
			&row.DisplayName,
			&row.GamesPlayed,
			&row.GamesWon,
			&row.TotalAttemptsOnWins,
			&row.Distribution,
			&row.CurrentStreak,
			&row.MaxStreak,
			&row.LastPuzzleID,
			&row.WonPuzzles,
			&row.LastResult,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player stats: %w", err)
		}

		stats, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: player %s: %v", service.ErrStoreCorruption, row.AuthorID, err)
		}
		doc.Users[row.AuthorID] = stats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player stats: %w", err)
	}

	snapshotRows, err := r.db.Query(ctx, `SELECT author_id FROM wordle_leaderboard_snapshot ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard snapshot: %w", err)
	}
	doc.LeaderboardSnapshot, err = pgx.CollectRows(snapshotRows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan leaderboard snapshot: %w", err)
	}

	return doc, nil
}

// Save replaces the stored document in a single transaction
func (r *PostgresStatsRepository) Save(ctx context.Context, doc *models.StatsDocument) error {
	if doc == nil {
		return errors.New("stats document cannot be nil")
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM wordle_player_stats`)
	batch.Queue(`DELETE FROM wordle_leaderboard_snapshot`)

	insertPlayer := `
		INSERT INTO wordle_player_stats (
			author_id, display_name, games_played, games_won, total_attempts_on_wins,
			distribution, current_streak, max_streak, last_puzzle_id, won_puzzles, last_result, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for authorID, stats := range doc.Users {
		var lastResult []byte
		if stats.LastResult != nil {
			data, err := json.Marshal(stats.LastResult)
			if err != nil {
				return fmt.Errorf("failed to marshal last result for %s: %w", authorID, err)
			}
			lastResult = data
		}

		distribution := make([]int32, models.MaxAttempts)
		for i, n := range stats.Distribution {
			distribution[i] = int32(n)
		}

		var wonPuzzles []int32
		for _, id := range stats.WonPuzzles {
			wonPuzzles = append(wonPuzzles, int32(id))
		}

		batch.Queue(insertPlayer,
			authorID,
			stats.DisplayName,
			stats.GamesPlayed,
			stats.GamesWon,
			stats.TotalAttemptsOnWins,
			distribution,
			stats.CurrentStreak,
			stats.MaxStreak,
			stats.LastPuzzleID,
			wonPuzzles,
			lastResult,
			stats.UpdatedAt,
		)
	}

	for position, authorID := range doc.LeaderboardSnapshot {
		batch.Queue(`INSERT INTO wordle_leaderboard_snapshot (position, author_id) VALUES ($1, $2)`, position+1, authorID)
	}

	batch.Queue(`
		INSERT INTO wordle_store_metadata (id, updated_at) VALUES (TRUE, $1)
		ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		doc.UpdatedAt,
	)

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save stats: %w", err)
		}
		return nil
	})
}
