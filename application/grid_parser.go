package application

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"wordler/models"

	log "github.com/sirupsen/logrus"
)

// headerPattern matches "Wordle 1,234 3/6" with an optional hard mode "*".
// Thousands separators vary by locale.
var headerPattern = regexp.MustCompile(`(?i)^\s*wordle\s+(\d[\d,.\s]*?)\s+([1-6x])/6(\*?)`)

const variationSelector = '\uFE0F'

// cellSymbols is the accepted alphabet. Orange and blue are the high
// contrast palette; circles come from a few third-party share clients.
var cellSymbols = map[rune]models.CellState{
	'⬛': models.CellAbsent,
	'⬜': models.CellAbsent,
	'◻': models.CellAbsent,
	'▫': models.CellAbsent,
	'⚫': models.CellAbsent,
	'⚪': models.CellAbsent,
	'🟨': models.CellPresent,
	'🟦': models.CellPresent,
	'🟡': models.CellPresent,
	'🟩': models.CellCorrect,
	'🟧': models.CellCorrect,
	'🟢': models.CellCorrect,
}

// GridParser turns share text into a PuzzleResult
type GridParser struct{}

// NewGridParser creates a new GridParser
func NewGridParser() *GridParser {
	return &GridParser{}
}

// Parse parses raw share text and attributes it to the message author
func (p *GridParser) Parse(raw string, meta models.ResultMeta) (models.PuzzleResult, error) {
	grid, err := ParseGrid(raw)
	if err != nil {
		return models.PuzzleResult{}, err
	}

	if grid.HeaderMismatch {
		log.WithFields(log.Fields{
			"puzzle_id":    grid.PuzzleID,
			"header_score": grid.HeaderScore,
			"rows":         len(grid.Rows),
			"message_id":   meta.MessageID,
			"author_id":    meta.AuthorID,
		}).Warn("Wordle header does not match grid, using row count")
	}

	result, err := models.NewPuzzleResult(grid, meta)
	if err != nil {
		return models.PuzzleResult{}, &ParseFailure{Reason: ReasonInvalidResult, Detail: err.Error()}
	}
	return result, nil
}

// ParseGrid extracts the header and board from share text. The row count is
// authoritative for attempts; a header that disagrees is flagged, not rejected.
func ParseGrid(raw string) (models.ParsedGrid, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	headerLine := -1
	var match []string
	for i, line := range lines {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			headerLine = i
			match = m
			break
		}
	}
	if headerLine < 0 {
		return models.ParsedGrid{}, &ParseFailure{Reason: ReasonNoHeader, Detail: "no \"Wordle N X/6\" header"}
	}

	puzzleID, err := parsePuzzleNumber(match[1])
	if err != nil {
		return models.ParsedGrid{}, &ParseFailure{Reason: ReasonNoHeader, Line: headerLine + 1, Detail: err.Error()}
	}

	headerScore := models.FailedAttempts
	solved := !strings.EqualFold(match[2], "x")
	if solved {
		headerScore, _ = strconv.Atoi(match[2])
	}

	rows, err := parseRows(lines, headerLine+1)
	if err != nil {
		return models.ParsedGrid{}, err
	}

	grid := models.ParsedGrid{
		PuzzleID:    puzzleID,
		Solved:      solved,
		HeaderScore: headerScore,
		HardMode:    match[3] == "*",
		Rows:        rows,
		Attempts:    models.FailedAttempts,
	}
	if solved {
		grid.Attempts = len(rows)
		grid.HeaderMismatch = headerScore != len(rows) || !rows[len(rows)-1].Solved()
	} else {
		grid.HeaderMismatch = len(rows) != models.MaxAttempts
	}

	return grid, nil
}

// parseRows reads consecutive grid rows starting at line index start.
// Blank lines before the grid are skipped; the grid ends at the first blank
// or symbol-free line after it starts.
func parseRows(lines []string, start int) ([]models.GridRow, error) {
	var rows []models.GridRow

	for i := start; i < len(lines); i++ {
		cells, hasSymbol, foreign := scanRow(lines[i])

		if !hasSymbol {
			if len(rows) == 0 && strings.TrimSpace(lines[i]) == "" {
				continue
			}
			break
		}
		if foreign != 0 {
			return nil, &ParseFailure{
				Reason: ReasonInvalidSymbol,
				Line:   i + 1,
				Detail: fmt.Sprintf("unexpected %q in grid row", foreign),
			}
		}
		if len(cells) != models.GridColumns {
			return nil, &ParseFailure{
				Reason: ReasonRowShape,
				Line:   i + 1,
				Detail: fmt.Sprintf("row has %d cells, want %d", len(cells), models.GridColumns),
			}
		}

		var row models.GridRow
		copy(row[:], cells)
		rows = append(rows, row)

		if len(rows) > models.MaxAttempts {
			return nil, &ParseFailure{
				Reason: ReasonRowCount,
				Line:   i + 1,
				Detail: fmt.Sprintf("more than %d rows", models.MaxAttempts),
			}
		}
	}

	if len(rows) == 0 {
		return nil, &ParseFailure{Reason: ReasonNoGrid, Detail: "header without grid rows"}
	}
	return rows, nil
}

// scanRow classifies one line. foreign is the first non-space rune outside
// the alphabet, or 0 when the line is clean.
func scanRow(line string) (cells []models.CellState, hasSymbol bool, foreign rune) {
	for _, r := range line {
		if r == variationSelector || unicode.IsSpace(r) {
			continue
		}
		state, ok := cellSymbols[r]
		if !ok {
			if foreign == 0 {
				foreign = r
			}
			continue
		}
		hasSymbol = true
		cells = append(cells, state)
	}
	return cells, hasSymbol, foreign
}

// parsePuzzleNumber reads "1,234", "1.234" and "1 234" as 1234
func parsePuzzleNumber(raw string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid puzzle number %q: %w", raw, err)
	}
	return n, nil
}
