package application

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"wordler/models"

	log "github.com/sirupsen/logrus"
)

// Recognizer is the optical recognition oracle: image in, text grid out
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// confusionTable maps glyphs recognizers commonly emit for tiles onto the
// canonical alphabet
var confusionTable = map[rune]models.CellState{
	'G': models.CellCorrect,
	'g': models.CellCorrect,
	'#': models.CellCorrect,
	'■': models.CellCorrect,
	'✅': models.CellCorrect,
	'Y': models.CellPresent,
	'y': models.CellPresent,
	'?': models.CellPresent,
	'~': models.CellPresent,
	'.': models.CellAbsent,
	'_': models.CellAbsent,
	'-': models.CellAbsent,
	'B': models.CellAbsent,
	'b': models.CellAbsent,
	'0': models.CellAbsent,
	'o': models.CellAbsent,
	'□': models.CellAbsent,
}

// ImageGridExtractor recovers a share text from a screenshot and hands it
// to the GridParser
type ImageGridExtractor struct {
	recognizer Recognizer
	parser     *GridParser
}

// NewImageGridExtractor creates a new ImageGridExtractor
func NewImageGridExtractor(recognizer Recognizer, parser *GridParser) *ImageGridExtractor {
	return &ImageGridExtractor{
		recognizer: recognizer,
		parser:     parser,
	}
}

// Extract recognizes the image and parses the result. The oracle call
// happens before any store interaction.
func (e *ImageGridExtractor) Extract(ctx context.Context, image []byte, meta models.ResultMeta) (models.PuzzleResult, error) {
	text, err := e.ExtractText(ctx, image, meta)
	if err != nil {
		return models.PuzzleResult{}, err
	}

	result, err := e.parser.Parse(text, meta)
	if err != nil {
		return models.PuzzleResult{}, &ExtractionFailure{Reason: ReasonImplausible, Err: err}
	}
	return result, nil
}

// ExtractText runs the oracle and normalizes its output into canonical share
// text. When the oracle reads only tiles, the header is rebuilt from the
// message date and the board.
func (e *ImageGridExtractor) ExtractText(ctx context.Context, image []byte, meta models.ResultMeta) (string, error) {
	if len(image) == 0 {
		return "", &ExtractionFailure{Reason: ReasonEmptyImage}
	}

	recognized, err := e.recognizer.Recognize(ctx, image)
	if err != nil {
		return "", &ExtractionFailure{Reason: ReasonOracle, Err: err}
	}

	header, rows := normalizeRecognized(recognized)
	if len(rows) == 0 || len(rows) > models.MaxAttempts {
		log.WithFields(log.Fields{
			"message_id": meta.MessageID,
			"rows":       len(rows),
		}).Debug("Recognized text has no plausible Wordle grid")
		return "", &ExtractionFailure{Reason: ReasonImplausible}
	}

	if header == "" {
		// A headerless board that is neither solved nor full is a game in progress
		if !boardFinished(rows) {
			return "", &ExtractionFailure{Reason: ReasonImplausible}
		}
		header = synthesizeHeader(meta, rows)
	}

	return header + "\n" + strings.Join(rows, "\n"), nil
}

// normalizeRecognized returns the header line, if any, and the first run of
// consecutive plausible grid rows in canonical symbols
func normalizeRecognized(text string) (string, []string) {
	var header string
	var rows []string
	inGrid := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(strings.ReplaceAll(line, string(variationSelector), "")), " ")

		if header == "" && len(rows) == 0 && headerPattern.MatchString(line) {
			header = line
			continue
		}

		row, ok := normalizeRow(line)
		if !ok {
			if inGrid {
				break
			}
			continue
		}
		inGrid = true
		rows = append(rows, row)
	}

	return header, rows
}

// normalizeRow maps a recognized line onto the alphabet. It succeeds only
// when every glyph maps and exactly five cells result.
func normalizeRow(line string) (string, bool) {
	var row models.GridRow
	n := 0
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		state, ok := cellSymbols[r]
		if !ok {
			state, ok = confusionTable[r]
		}
		if !ok || n == models.GridColumns {
			return "", false
		}
		row[n] = state
		n++
	}
	if n != models.GridColumns {
		return "", false
	}
	return row.String(), true
}

var solvedRow = strings.Repeat(models.CellCorrect.Symbol(), models.GridColumns)

func boardFinished(rows []string) bool {
	return rows[len(rows)-1] == solvedRow || len(rows) == models.MaxAttempts
}

// synthesizeHeader builds "Wordle N S/6" from the message date and the board
func synthesizeHeader(meta models.ResultMeta, rows []string) string {
	puzzleID := models.PuzzleIDForDate(meta.Timestamp)

	score := "X"
	if rows[len(rows)-1] == solvedRow {
		score = fmt.Sprintf("%d", len(rows))
	}
	return fmt.Sprintf("Wordle %d %s/%d", puzzleID, score, models.MaxAttempts)
}
