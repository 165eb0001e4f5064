package testutil

import (
	"time"

	"wordler/models"
)

// CreateTestPlayerStats creates a consistent aggregate with the given wins
// per distribution row and the given number of losses
func CreateTestPlayerStats(displayName string, distribution [models.MaxAttempts]int, losses int) models.PlayerStats {
	stats := models.PlayerStats{
		DisplayName:  displayName,
		Distribution: distribution,
		UpdatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, n := range distribution {
		stats.GamesWon += n
		stats.TotalAttemptsOnWins += n * (i + 1)
	}
	stats.GamesPlayed = stats.GamesWon + losses
	return stats
}

// CreateTestStatsDocument creates a document with two players and a snapshot
func CreateTestStatsDocument() *models.StatsDocument {
	alice := CreateTestPlayerStats("alice", [models.MaxAttempts]int{0, 1, 3, 2, 0, 0}, 1)
	alice.CurrentStreak = 2
	alice.MaxStreak = 4
	alice.LastPuzzleID = 985
	alice.WonPuzzles = []int{979, 980, 981, 982, 984, 985}
	alice.LastResult = &models.LastResult{
		PuzzleID:   985,
		Solved:     true,
		Attempts:   3,
		HardMode:   true,
		MessageID:  "m-985",
		Source:     string(models.SourceText),
		RecordedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	bob := CreateTestPlayerStats("bob", [models.MaxAttempts]int{0, 0, 1, 1, 1, 1}, 0)
	bob.CurrentStreak = 1
	bob.MaxStreak = 2
	bob.LastPuzzleID = 984

	return &models.StatsDocument{
		Users: map[string]models.PlayerStats{
			"111": alice,
			"222": bob,
		},
		LeaderboardSnapshot: []string{"222", "111"},
		UpdatedAt:           time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
