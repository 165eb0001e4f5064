package models

// Movement describes how a player's rank changed since the last publication
type Movement int

const (
	MovementNone Movement = iota
	MovementUp
	MovementDown
	MovementNew
)

func (m Movement) String() string {
	switch m {
	case MovementUp:
		return "up"
	case MovementDown:
		return "down"
	case MovementNew:
		return "new"
	default:
		return "none"
	}
}

// LeaderboardEntry is one ranked row, derived from PlayerStats at ranking time
type LeaderboardEntry struct {
	Rank            int
	AuthorID        string
	DisplayName     string
	WinRate         float64
	AverageAttempts float64 // +Inf when the player has no wins
	GamesPlayed     int
	GamesWon        int
	MaxStreak       int
	Movement        Movement
	PreviousRank    int // 0 when the player was not on the previous board
}

// HasWins reports whether the average attempts value is defined
func (e LeaderboardEntry) HasWins() bool {
	return e.GamesWon > 0
}
