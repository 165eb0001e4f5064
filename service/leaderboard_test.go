package service

import (
	"math"
	"testing"

	"wordler/models"
	"wordler/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(players map[string]models.PlayerStats) []models.PlayerSnapshot {
	out := make([]models.PlayerSnapshot, 0, len(players))
	for id, stats := range players {
		out = append(out, models.PlayerSnapshot{AuthorID: id, Stats: stats})
	}
	return out
}

func TestRank_Ordering(t *testing.T) {
	players := map[string]models.PlayerStats{
		// perfect, avg 3 over 10 games
		"a": testutil.CreateTestPlayerStats("a", [models.MaxAttempts]int{0, 0, 10, 0, 0, 0}, 0),
		// perfect, avg 4
		"b": testutil.CreateTestPlayerStats("b", [models.MaxAttempts]int{0, 0, 0, 10, 0, 0}, 0),
		// perfect, avg 3 but fewer games than a
		"c": testutil.CreateTestPlayerStats("c", [models.MaxAttempts]int{0, 0, 5, 0, 0, 0}, 0),
		// same as c, ties broken by ID
		"d": testutil.CreateTestPlayerStats("d", [models.MaxAttempts]int{0, 0, 5, 0, 0, 0}, 0),
		// 50% win rate
		"e": testutil.CreateTestPlayerStats("e", [models.MaxAttempts]int{2, 0, 0, 0, 0, 0}, 2),
		// no wins
		"f": testutil.CreateTestPlayerStats("f", [models.MaxAttempts]int{}, 3),
		// never played
		"g": {},
	}

	entries := Rank(snapshotOf(players), 1)

	require.Len(t, entries, 6)
	assert.Equal(t, []string{"a", "c", "d", "b", "e", "f"}, AuthorIDs(entries))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}

	assert.Equal(t, 3.0, entries[0].AverageAttempts)
	assert.Equal(t, 0.5, entries[4].WinRate)
	assert.True(t, math.IsInf(entries[5].AverageAttempts, 1))
	assert.False(t, entries[5].HasWins())
}

func TestRank_PlayersWithoutWinsSortLast(t *testing.T) {
	players := map[string]models.PlayerStats{
		"winner": testutil.CreateTestPlayerStats("winner", [models.MaxAttempts]int{0, 0, 0, 0, 0, 1}, 9),
		"loser":  testutil.CreateTestPlayerStats("loser", [models.MaxAttempts]int{}, 1),
	}

	entries := Rank(snapshotOf(players), 1)
	assert.Equal(t, []string{"winner", "loser"}, AuthorIDs(entries))
}

func TestRank_MinGames(t *testing.T) {
	players := map[string]models.PlayerStats{
		"veteran": testutil.CreateTestPlayerStats("veteran", [models.MaxAttempts]int{0, 0, 0, 5, 0, 0}, 0),
		"rookie":  testutil.CreateTestPlayerStats("rookie", [models.MaxAttempts]int{1, 0, 0, 0, 0, 0}, 0),
	}

	assert.Equal(t, []string{"rookie", "veteran"}, AuthorIDs(Rank(snapshotOf(players), 0)))
	assert.Equal(t, []string{"veteran"}, AuthorIDs(Rank(snapshotOf(players), 3)))
}

func TestRank_Deterministic(t *testing.T) {
	players := make(map[string]models.PlayerStats)
	for _, id := range []string{"e", "b", "d", "a", "c"} {
		players[id] = testutil.CreateTestPlayerStats(id, [models.MaxAttempts]int{0, 1, 1, 0, 0, 0}, 1)
	}

	first := Rank(snapshotOf(players), 1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rank(snapshotOf(players), 1))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, AuthorIDs(first))
}

func TestTop(t *testing.T) {
	entries := []models.LeaderboardEntry{{AuthorID: "a"}, {AuthorID: "b"}, {AuthorID: "c"}}

	assert.Len(t, Top(entries, 2), 2)
	assert.Len(t, Top(entries, 10), 3)
	assert.Len(t, Top(entries, 0), 3)
	assert.Empty(t, Top(nil, 5))
}

func TestApplyMovement(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{Rank: 1, AuthorID: "b"},
		{Rank: 2, AuthorID: "a"},
		{Rank: 3, AuthorID: "c"},
		{Rank: 4, AuthorID: "new"},
	}

	out := ApplyMovement(entries, []string{"a", "b", "c"})

	assert.Equal(t, models.MovementUp, out[0].Movement)
	assert.Equal(t, 2, out[0].PreviousRank)
	assert.Equal(t, models.MovementDown, out[1].Movement)
	assert.Equal(t, models.MovementNone, out[2].Movement)
	assert.Equal(t, models.MovementNew, out[3].Movement)
	assert.Equal(t, 0, out[3].PreviousRank)

	assert.Equal(t, models.MovementNone, entries[0].Movement, "input is not modified")
}

func TestApplyMovement_NoBaseline(t *testing.T) {
	out := ApplyMovement([]models.LeaderboardEntry{{Rank: 1, AuthorID: "a"}}, nil)
	assert.Equal(t, models.MovementNone, out[0].Movement)
}
