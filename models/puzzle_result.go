package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// GridColumns is the number of letters per guess
	GridColumns = 5
	// MaxAttempts is the number of rows on a full board
	MaxAttempts = 6
	// FailedAttempts is the sentinel attempt count for an unsolved puzzle
	FailedAttempts = MaxAttempts + 1
)

// CellState is the outcome of one letter in one guess
type CellState int

const (
	CellAbsent CellState = iota
	CellPresent
	CellCorrect
)

// Symbol returns the canonical share-text symbol for the cell
func (c CellState) Symbol() string {
	switch c {
	case CellCorrect:
		return "🟩"
	case CellPresent:
		return "🟨"
	default:
		return "⬛"
	}
}

// GridRow is one guess on the board
type GridRow [GridColumns]CellState

// Solved reports whether every letter in the row is correct
func (r GridRow) Solved() bool {
	for _, c := range r {
		if c != CellCorrect {
			return false
		}
	}
	return true
}

// String renders the row in canonical symbols
func (r GridRow) String() string {
	var b strings.Builder
	for _, c := range r {
		b.WriteString(c.Symbol())
	}
	return b.String()
}

// ResultSource identifies which extraction path produced a result
type ResultSource string

const (
	SourceText    ResultSource = "text"
	SourceImage   ResultSource = "image"
	SourceSummary ResultSource = "summary"
)

// ParsedGrid is the structured content of a share text before it is
// attributed to a player
type ParsedGrid struct {
	PuzzleID       int
	Solved         bool
	Attempts       int
	HeaderScore    int // score from the header, FailedAttempts for X
	HardMode       bool
	Rows           []GridRow
	HeaderMismatch bool
}

// ResultMeta carries the message metadata a result is attributed to
type ResultMeta struct {
	AuthorID   string
	AuthorName string
	MessageID  string
	Timestamp  time.Time
	Source     ResultSource
}

// PuzzleResult is an immutable Wordle outcome extracted from one message
type PuzzleResult struct {
	PuzzleID        int
	Solved          bool
	Attempts        int
	DistributionRow int
	HardMode        bool
	Grid            []GridRow
	AuthorID        string
	AuthorName      string
	MessageID       string
	Timestamp       time.Time
	Source          ResultSource
}

// NewPuzzleResult validates the parsed grid and attributes it to a player.
// It never returns a partially populated result.
func NewPuzzleResult(grid ParsedGrid, meta ResultMeta) (PuzzleResult, error) {
	if meta.AuthorID == "" {
		return PuzzleResult{}, fmt.Errorf("author ID cannot be empty")
	}
	if grid.PuzzleID < 0 {
		return PuzzleResult{}, fmt.Errorf("puzzle ID must not be negative, got %d", grid.PuzzleID)
	}
	if grid.Solved && (grid.Attempts < 1 || grid.Attempts > MaxAttempts) {
		return PuzzleResult{}, fmt.Errorf("attempts must be between 1 and %d for a solved puzzle, got %d", MaxAttempts, grid.Attempts)
	}
	if !grid.Solved && grid.Attempts != FailedAttempts {
		return PuzzleResult{}, fmt.Errorf("attempts must be %d for a failed puzzle, got %d", FailedAttempts, grid.Attempts)
	}
	if len(grid.Rows) > MaxAttempts {
		return PuzzleResult{}, fmt.Errorf("grid cannot have more than %d rows, got %d", MaxAttempts, len(grid.Rows))
	}

	row := 0
	if grid.Solved {
		row = grid.Attempts
	}

	rows := make([]GridRow, len(grid.Rows))
	copy(rows, grid.Rows)

	return PuzzleResult{
		PuzzleID:        grid.PuzzleID,
		Solved:          grid.Solved,
		Attempts:        grid.Attempts,
		DistributionRow: row,
		HardMode:        grid.HardMode,
		Grid:            rows,
		AuthorID:        meta.AuthorID,
		AuthorName:      meta.AuthorName,
		MessageID:       meta.MessageID,
		Timestamp:       meta.Timestamp,
		Source:          meta.Source,
	}, nil
}

// ScoreLabel renders the attempts the way the share header does ("3/6", "X/6")
func (r PuzzleResult) ScoreLabel() string {
	if !r.Solved {
		return fmt.Sprintf("X/%d", MaxAttempts)
	}
	return fmt.Sprintf("%d/%d", r.Attempts, MaxAttempts)
}
