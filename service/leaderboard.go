package service

import (
	"sort"

	"wordler/models"
)

// Rank orders every eligible player. Players below minGames (at least one
// game is always required) are left out. The order is:
//
//  1. win rate, descending
//  2. average attempts on wins, ascending; players without a win sort last
//  3. games played, descending
//  4. author ID, ascending
//
// Rank is pure: the same snapshot always produces the same ranking.
func Rank(snapshot []models.PlayerSnapshot, minGames int) []models.LeaderboardEntry {
	if minGames < 1 {
		minGames = 1
	}

	entries := make([]models.LeaderboardEntry, 0, len(snapshot))
	for _, player := range snapshot {
		stats := player.Stats
		if stats.GamesPlayed < minGames {
			continue
		}
		avg, _ := stats.AverageAttempts()
		entries = append(entries, models.LeaderboardEntry{
			AuthorID:        player.AuthorID,
			DisplayName:     stats.DisplayName,
			WinRate:         stats.WinRate(),
			AverageAttempts: avg,
			GamesPlayed:     stats.GamesPlayed,
			GamesWon:        stats.GamesWon,
			MaxStreak:       stats.MaxStreak,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return rankLess(entries[i], entries[j])
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func rankLess(a, b models.LeaderboardEntry) bool {
	// Without a win the average is undefined; such players trail everyone
	if a.HasWins() != b.HasWins() {
		return a.HasWins()
	}
	if a.WinRate != b.WinRate {
		return a.WinRate > b.WinRate
	}
	if a.AverageAttempts != b.AverageAttempts {
		return a.AverageAttempts < b.AverageAttempts
	}
	if a.GamesPlayed != b.GamesPlayed {
		return a.GamesPlayed > b.GamesPlayed
	}
	return a.AuthorID < b.AuthorID
}

// Top returns at most size entries; size <= 0 returns all
func Top(entries []models.LeaderboardEntry, size int) []models.LeaderboardEntry {
	if size <= 0 || size >= len(entries) {
		return entries
	}
	return entries[:size]
}

// ApplyMovement annotates each entry with its change against the previous
// ranking, given as author IDs in rank order
func ApplyMovement(entries []models.LeaderboardEntry, previous []string) []models.LeaderboardEntry {
	previousRank := make(map[string]int, len(previous))
	for i, id := range previous {
		if _, ok := previousRank[id]; !ok {
			previousRank[id] = i + 1
		}
	}

	out := make([]models.LeaderboardEntry, len(entries))
	copy(out, entries)
	for i := range out {
		prev, ok := previousRank[out[i].AuthorID]
		out[i].PreviousRank = prev
		switch {
		case len(previous) == 0:
			out[i].Movement = models.MovementNone
		case !ok:
			out[i].Movement = models.MovementNew
		case out[i].Rank < prev:
			out[i].Movement = models.MovementUp
		case out[i].Rank > prev:
			out[i].Movement = models.MovementDown
		default:
			out[i].Movement = models.MovementNone
		}
	}
	return out
}

// AuthorIDs returns the author IDs of the entries in rank order
func AuthorIDs(entries []models.LeaderboardEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.AuthorID
	}
	return ids
}
