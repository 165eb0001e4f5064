package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"wordler/bot/common"
	"wordler/config"
	"wordler/models"
	"wordler/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6AAA64")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// PrintLeaderboard writes the current ranking from the configured store
// without touching the published baseline
func PrintLeaderboard(ctx context.Context, cfg *config.Config, w io.Writer) error {
	store, closeStore, err := OpenStore(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open stats store: %w", err)
	}
	defer closeStore()

	entries, err := service.NewLeaderboardService(store, cfg.LeaderboardMinGames).Leaderboard(ctx, cfg.LeaderboardSize)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No eligible players yet.")
		return err
	}

	_, err = fmt.Fprintln(w, renderLeaderboard(entries))
	return err
}

func renderLeaderboard(entries []models.LeaderboardEntry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "", "Player", "Avg", "Wins", "Games", "Win%").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = e.AuthorID
		}
		t.Row(
			strconv.Itoa(e.Rank),
			common.MovementIndicator(e.Movement),
			name,
			common.FormatAverage(e.AverageAttempts),
			strconv.Itoa(e.GamesWon),
			strconv.Itoa(e.GamesPlayed),
			common.FormatWinRate(e.WinRate),
		)
	}
	return t.String()
}

// PrintStats writes one player's aggregate from the configured store
func PrintStats(ctx context.Context, cfg *config.Config, authorID string, w io.Writer) error {
	store, closeStore, err := OpenStore(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open stats store: %w", err)
	}
	defer closeStore()

	stats, err := store.Get(ctx, authorID)
	if errors.Is(err, service.ErrPlayerNotFound) {
		return fmt.Errorf("no Wordle results recorded for %s", authorID)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, renderStats(authorID, stats))
	return err
}

func renderStats(authorID string, stats models.PlayerStats) string {
	avg, _ := stats.AverageAttempts()
	name := stats.DisplayName
	if name == "" {
		name = authorID
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Stat", name).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Row("Played", strconv.Itoa(stats.GamesPlayed)).
		Row("Won", strconv.Itoa(stats.GamesWon)).
		Row("Win %", common.FormatWinRate(stats.WinRate())).
		Row("Avg guesses", common.FormatAverage(avg)).
		Row("Current streak", strconv.Itoa(stats.CurrentStreak)).
		Row("Max streak", strconv.Itoa(stats.MaxStreak))

	for i, n := range stats.Distribution {
		t.Row(fmt.Sprintf("Solved in %d", i+1), strconv.Itoa(n))
	}
	return t.String()
}
