package application

import (
	"errors"
	"testing"
	"time"

	"wordler/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	absent  = models.CellAbsent
	present = models.CellPresent
	correct = models.CellCorrect
)

func row(cells ...models.CellState) models.GridRow {
	var r models.GridRow
	copy(r[:], cells)
	return r
}

var solved = row(correct, correct, correct, correct, correct)

func TestParseGrid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.ParsedGrid
	}{
		{
			name: "solved in three with hard mode",
			raw:  "Wordle 1,234 3/6*\n\n⬛🟨⬛⬛⬛\n⬛🟩🟩⬛🟨\n🟩🟩🟩🟩🟩",
			want: models.ParsedGrid{
				PuzzleID:    1234,
				Solved:      true,
				Attempts:    3,
				HeaderScore: 3,
				HardMode:    true,
				Rows: []models.GridRow{
					row(absent, present, absent, absent, absent),
					row(absent, correct, correct, absent, present),
					solved,
				},
			},
		},
		{
			name: "failed puzzle",
			raw: "Wordle 1000 X/6\n" +
				"⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n🟨🟩🟩🟩🟩",
			want: models.ParsedGrid{
				PuzzleID:    1000,
				Solved:      false,
				Attempts:    models.FailedAttempts,
				HeaderScore: models.FailedAttempts,
				Rows: []models.GridRow{
					row(), row(), row(), row(), row(),
					row(present, correct, correct, correct, correct),
				},
			},
		},
		{
			name: "light mode with variation selectors and trailing chatter",
			raw:  "wordle 999 2/6\n⬜️🟨⬜️⬜️⬜️\n🟩🟩🟩🟩🟩\nlucky guess",
			want: models.ParsedGrid{
				PuzzleID:    999,
				Solved:      true,
				Attempts:    2,
				HeaderScore: 2,
				Rows: []models.GridRow{
					row(absent, present, absent, absent, absent),
					solved,
				},
			},
		},
		{
			name: "high contrast palette",
			raw:  "Wordle 1 001 2/6\n🟦⬛⬛⬛🟧\n🟧🟧🟧🟧🟧",
			want: models.ParsedGrid{
				PuzzleID:    1001,
				Solved:      true,
				Attempts:    2,
				HeaderScore: 2,
				Rows: []models.GridRow{
					row(present, absent, absent, absent, correct),
					solved,
				},
			},
		},
		{
			name: "header score disagrees with rows",
			raw:  "Wordle 1000 4/6\n⬛⬛⬛⬛⬛\n🟩🟩🟩🟩🟩",
			want: models.ParsedGrid{
				PuzzleID:       1000,
				Solved:         true,
				Attempts:       2,
				HeaderScore:    4,
				Rows:           []models.GridRow{row(), solved},
				HeaderMismatch: true,
			},
		},
		{
			name: "header preceded by chatter",
			raw:  "finally!\nWordle 1000 1/6\n🟩🟩🟩🟩🟩",
			want: models.ParsedGrid{
				PuzzleID:    1000,
				Solved:      true,
				Attempts:    1,
				HeaderScore: 1,
				Rows:        []models.GridRow{solved},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrid(tt.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseGrid() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseGrid_Failures(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason FailureReason
		line   int
	}{
		{name: "chatter", raw: "anyone else get today's?", reason: ReasonNoHeader},
		{name: "header without grid", raw: "Wordle 1000 3/6\nthat was hard", reason: ReasonNoGrid},
		{name: "short row", raw: "Wordle 1000 2/6\n⬛⬛⬛⬛\n🟩🟩🟩🟩🟩", reason: ReasonRowShape, line: 2},
		{name: "long row", raw: "Wordle 1000 1/6\n🟩🟩🟩🟩🟩🟩", reason: ReasonRowShape, line: 2},
		{name: "foreign symbol", raw: "Wordle 1000 1/6\n🟩🟩🟥🟩🟩", reason: ReasonInvalidSymbol, line: 2},
		{
			name:   "too many rows",
			raw:    "Wordle 1000 X/6\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛",
			reason: ReasonRowCount,
			line:   8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGrid(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParseFailure))

			var failure *ParseFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.reason, failure.Reason)
			assert.Equal(t, tt.line, failure.Line)
		})
	}
}

func TestGridParser_Parse(t *testing.T) {
	parser := NewGridParser()
	meta := models.ResultMeta{
		AuthorID:   "111",
		AuthorName: "alice",
		MessageID:  "m-1",
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:     models.SourceText,
	}

	t.Run("solved", func(t *testing.T) {
		result, err := parser.Parse("Wordle 986 2/6\n⬛🟨⬛⬛⬛\n🟩🟩🟩🟩🟩", meta)
		require.NoError(t, err)

		assert.Equal(t, 986, result.PuzzleID)
		assert.True(t, result.Solved)
		assert.Equal(t, 2, result.Attempts)
		assert.Equal(t, 2, result.DistributionRow)
		assert.Equal(t, "111", result.AuthorID)
		assert.Equal(t, "alice", result.AuthorName)
		assert.Equal(t, models.SourceText, result.Source)
		assert.Len(t, result.Grid, 2)
	})

	t.Run("failed has no distribution row", func(t *testing.T) {
		result, err := parser.Parse("Wordle 986 X/6\n⬛⬛⬛⬛⬛", meta)
		require.NoError(t, err)

		assert.False(t, result.Solved)
		assert.Equal(t, models.FailedAttempts, result.Attempts)
		assert.Equal(t, 0, result.DistributionRow)
		assert.Equal(t, "X/6", result.ScoreLabel())
	})

	t.Run("missing author", func(t *testing.T) {
		_, err := parser.Parse("Wordle 986 1/6\n🟩🟩🟩🟩🟩", models.ResultMeta{})

		var failure *ParseFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, ReasonInvalidResult, failure.Reason)
	})
}
