package models

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// LastResult is the most recently recorded outcome for a player, kept for
// the stat card footer and manual correction of the store
type LastResult struct {
	PuzzleID   int       `json:"puzzle_id"`
	Solved     bool      `json:"solved"`
	Attempts   int       `json:"attempts"`
	HardMode   bool      `json:"hard_mode"`
	MessageID  string    `json:"message_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PlayerStats is the durable aggregate for one player
type PlayerStats struct {
	DisplayName         string           `json:"display_name"`
	GamesPlayed         int              `json:"games_played"`
	GamesWon            int              `json:"games_won"`
	TotalAttemptsOnWins int              `json:"total_attempts_on_wins"`
	Distribution        [MaxAttempts]int `json:"distribution"`
	CurrentStreak       int              `json:"current_streak"`
	MaxStreak           int              `json:"max_streak"`
	LastPuzzleID        int              `json:"last_puzzle_id"`
	WonPuzzles          []int            `json:"won_puzzles,omitempty"`
	LastResult          *LastResult      `json:"last_result,omitempty"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// PlayerSnapshot pairs a player ID with a point-in-time copy of their stats
type PlayerSnapshot struct {
	AuthorID string
	Stats    PlayerStats
}

// Losses returns the number of failed games
func (p PlayerStats) Losses() int {
	return p.GamesPlayed - p.GamesWon
}

// WinRate returns games won over games played, 0 for a player with no games
func (p PlayerStats) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.GamesWon) / float64(p.GamesPlayed)
}

// AverageAttempts returns the mean guesses over wins. The second return
// value is false when the player has never won.
func (p PlayerStats) AverageAttempts() (float64, bool) {
	if p.GamesWon == 0 {
		return math.Inf(1), false
	}
	return float64(p.TotalAttemptsOnWins) / float64(p.GamesWon), true
}

// Clone returns a deep copy
func (p PlayerStats) Clone() PlayerStats {
	c := p
	if p.LastResult != nil {
		last := *p.LastResult
		c.LastResult = &last
	}
	c.WonPuzzles = slices.Clone(p.WonPuzzles)
	return c
}

// Validate checks the aggregate invariants
func (p PlayerStats) Validate() error {
	if p.GamesPlayed < 0 || p.GamesWon < 0 || p.TotalAttemptsOnWins < 0 {
		return fmt.Errorf("counters must not be negative")
	}
	if p.GamesWon > p.GamesPlayed {
		return fmt.Errorf("games won (%d) exceeds games played (%d)", p.GamesWon, p.GamesPlayed)
	}
	sum := 0
	for i, n := range p.Distribution {
		if n < 0 {
			return fmt.Errorf("distribution bucket %d is negative", i+1)
		}
		sum += n
	}
	if sum != p.GamesWon {
		return fmt.Errorf("distribution sums to %d but games won is %d", sum, p.GamesWon)
	}
	if p.MaxStreak < p.CurrentStreak {
		return fmt.Errorf("max streak (%d) is below current streak (%d)", p.MaxStreak, p.CurrentStreak)
	}
	return nil
}

// Apply folds one result into the aggregate. Duplicate results are counted
// again. Streaks are derived from the set of solved puzzle IDs, so results
// may arrive in any order: the current streak is the run of consecutive
// solves ending at the highest puzzle seen.
func (p *PlayerStats) Apply(result PuzzleResult, now time.Time) {
	if len(p.WonPuzzles) == 0 && p.CurrentStreak > 0 {
		// Aggregates written before the solved set existed only know the
		// tail of the current run
		for id := p.LastPuzzleID - p.CurrentStreak + 1; id <= p.LastPuzzleID; id++ {
			p.WonPuzzles = append(p.WonPuzzles, id)
		}
	}

	p.GamesPlayed++

	if result.Solved {
		p.GamesWon++
		p.TotalAttemptsOnWins += result.Attempts
		p.Distribution[result.DistributionRow-1]++
		p.markWon(result.PuzzleID)
	} else {
		p.markLost(result.PuzzleID)
	}

	if p.GamesPlayed == 1 || result.PuzzleID > p.LastPuzzleID {
		p.LastPuzzleID = result.PuzzleID
	}
	p.CurrentStreak = runEndingAt(p.WonPuzzles, p.LastPuzzleID)
	p.MaxStreak = max(p.MaxStreak, longestRun(p.WonPuzzles), p.CurrentStreak)

	if result.AuthorName != "" {
		p.DisplayName = result.AuthorName
	}
	p.LastResult = &LastResult{
		PuzzleID:   result.PuzzleID,
		Solved:     result.Solved,
		Attempts:   result.Attempts,
		HardMode:   result.HardMode,
		MessageID:  result.MessageID,
		Source:     string(result.Source),
		RecordedAt: now,
	}
	p.UpdatedAt = now
}

func (p *PlayerStats) markWon(id int) {
	i, found := slices.BinarySearch(p.WonPuzzles, id)
	if !found {
		p.WonPuzzles = slices.Insert(p.WonPuzzles, i, id)
	}
}

// markLost drops a puzzle previously recorded as solved; the latest result
// for a puzzle decides whether it counts toward a streak
func (p *PlayerStats) markLost(id int) {
	if i, found := slices.BinarySearch(p.WonPuzzles, id); found {
		p.WonPuzzles = slices.Delete(p.WonPuzzles, i, i+1)
	}
}

// runEndingAt returns the length of the consecutive run in the sorted ids
// ending at id, 0 when id is absent
func runEndingAt(ids []int, id int) int {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return 0
	}
	n := 1
	for ; i > 0 && ids[i-1] == ids[i]-1; i-- {
		n++
	}
	return n
}

func longestRun(ids []int) int {
	best, run := 0, 0
	for i, id := range ids {
		if i > 0 && ids[i-1] == id-1 {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}
