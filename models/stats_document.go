package models

import "time"

// StatsDocument is the full durable state: every player's aggregate plus
// the ranking that was last published
type StatsDocument struct {
	Users               map[string]PlayerStats `json:"users"`
	LeaderboardSnapshot []string               `json:"leaderboard_snapshot"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// NewStatsDocument returns an empty document
func NewStatsDocument() *StatsDocument {
	return &StatsDocument{
		Users: make(map[string]PlayerStats),
	}
}
