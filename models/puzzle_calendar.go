package models

import "time"

// puzzleEpoch is the UTC day of puzzle #0
var puzzleEpoch = time.Date(2021, time.June, 19, 0, 0, 0, 0, time.UTC)

// PuzzleIDForDate returns the puzzle number played on the UTC calendar day of t
func PuzzleIDForDate(t time.Time) int {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(puzzleEpoch) {
		return 0
	}
	return int(day.Sub(puzzleEpoch).Hours() / 24)
}

// DateForPuzzleID returns the UTC day a puzzle number was published
func DateForPuzzleID(id int) time.Time {
	return puzzleEpoch.AddDate(0, 0, id)
}
