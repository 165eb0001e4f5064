package recognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"wordler/models"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNoTiles is returned when an image decodes but holds no tile grid
	ErrNoTiles = errors.New("no tile grid found")
	// ErrImageTooLarge is returned for images whose header declares more
	// than MaxPixels pixels; they are rejected before any pixel is decoded
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// MaxPixels bounds the decoded size of a screenshot. A small compressed
// file can declare huge dimensions, so the header is checked first.
const MaxPixels = 4096 * 4096

// tileColor is a reference colour for one tile state
type tileColor struct {
	r, g, b uint8
	state   models.CellState
}

// palette covers the light, dark and high-contrast themes
var palette = []tileColor{
	{0x6a, 0xaa, 0x64, models.CellCorrect}, // light green
	{0x53, 0x8d, 0x4e, models.CellCorrect}, // dark green
	{0xf5, 0x79, 0x3a, models.CellCorrect}, // high-contrast orange
	{0xc9, 0xb4, 0x58, models.CellPresent}, // light yellow
	{0xb5, 0x9f, 0x3b, models.CellPresent}, // dark yellow
	{0x85, 0xc0, 0xf9, models.CellPresent}, // high-contrast blue
	{0x78, 0x7c, 0x7e, models.CellAbsent},  // light grey
	{0x3a, 0x3a, 0x3c, models.CellAbsent},  // dark grey
}

const (
	// maxColorDistance is the squared RGB distance within which a pixel
	// counts as a tile colour
	maxColorDistance = 48 * 48
	// bandCoverage is the share of the image width tile pixels must fill
	// for a scanline to belong to a tile row
	bandCoverage = 0.2
	// columnCoverage is the share of a band's height tile pixels must fill
	// for an x position to belong to a tile. Letters printed on tiles stay
	// below the remainder.
	columnCoverage = 0.5
	// minTileSize rejects borders and thin decorations
	minTileSize = 8
)

// TileRecognizer reads a Wordle board out of a screenshot by tile colour.
// It emits one canonical symbol row per board row and no header; the
// extractor rebuilds the header from the message date.
type TileRecognizer struct{}

// NewTileRecognizer creates a new TileRecognizer
func NewTileRecognizer() *TileRecognizer {
	return &TileRecognizer{}
}

// Recognize decodes the image and returns its board rows as text
func (r *TileRecognizer) Recognize(ctx context.Context, data []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	classes := classify(img)
	rows := readRows(classes)
	if len(rows) == 0 {
		return "", ErrNoTiles
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = row.String()
	}

	log.WithFields(log.Fields{
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
		"rows":   len(rows),
	}).Debug("Recognized tile grid")

	return strings.Join(lines, "\n"), nil
}

// cellClass is a pixel's tile state plus one for "not a tile"
type cellClass int8

const classNone cellClass = -1

type classGrid struct {
	width, height int
	cells         []cellClass
}

func (g classGrid) at(x, y int) cellClass {
	return g.cells[y*g.width+x]
}

func classify(img image.Image) classGrid {
	bounds := img.Bounds()
	grid := classGrid{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		cells:  make([]cellClass, bounds.Dx()*bounds.Dy()),
	}

	for y := 0; y < grid.height; y++ {
		for x := 0; x < grid.width; x++ {
			grid.cells[y*grid.width+x] = classifyColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return grid
}

func classifyColor(c color.Color) cellClass {
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	if nrgba.A < 0x80 {
		return classNone
	}

	best, bestDist := classNone, maxColorDistance+1
	for _, ref := range palette {
		dr := int(nrgba.R) - int(ref.r)
		dg := int(nrgba.G) - int(ref.g)
		db := int(nrgba.B) - int(ref.b)
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			best, bestDist = cellClass(ref.state), dist
		}
	}
	return best
}

// span is a half-open interval of pixel positions
type span struct{ start, end int }

func (s span) size() int { return s.end - s.start }

// runs returns the maximal runs of true values at least minTileSize long
func runs(marks []bool) []span {
	var out []span
	start := -1
	for i := 0; i <= len(marks); i++ {
		on := i < len(marks) && marks[i]
		switch {
		case on && start < 0:
			start = i
		case !on && start >= 0:
			if i-start >= minTileSize {
				out = append(out, span{start, i})
			}
			start = -1
		}
	}
	return out
}

// readRows finds horizontal bands of tiles and splits each band into five
// tiles. Bands that do not split into exactly five tiles are ignored.
func readRows(grid classGrid) []models.GridRow {
	rowMarks := make([]bool, grid.height)
	for y := 0; y < grid.height; y++ {
		count := 0
		for x := 0; x < grid.width; x++ {
			if grid.at(x, y) != classNone {
				count++
			}
		}
		rowMarks[y] = float64(count) >= bandCoverage*float64(grid.width)
	}

	var rows []models.GridRow
	var columns []span
	for _, band := range runs(rowMarks) {
		row, tiles, ok := readBand(grid, band)
		if !ok {
			continue
		}
		// Later rows must line up with the first one; this keeps coloured
		// keyboard keys below the board out of the grid
		if columns != nil && !aligned(columns, tiles) {
			continue
		}
		columns = tiles
		rows = append(rows, row)
	}
	return rows
}

// aligned reports whether two rows of tiles share their column positions
func aligned(a, b []span) bool {
	for i := range a {
		tolerance := a[i].size()/4 + 1
		if abs(a[i].start-b[i].start) > tolerance || abs(a[i].end-b[i].end) > tolerance {
			return false
		}
	}
	return true
}

// uniform reports whether tiles have similar widths and even spacing
func uniform(tiles []span) bool {
	minW, maxW := tiles[0].size(), tiles[0].size()
	for _, t := range tiles[1:] {
		minW = min(minW, t.size())
		maxW = max(maxW, t.size())
	}
	if maxW > minW+minW/4+1 {
		return false
	}

	minGap, maxGap := tiles[1].start-tiles[0].end, tiles[1].start-tiles[0].end
	for i := 2; i < len(tiles); i++ {
		gap := tiles[i].start - tiles[i-1].end
		minGap = min(minGap, gap)
		maxGap = max(maxGap, gap)
	}
	return maxGap <= 2*minGap+2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func readBand(grid classGrid, band span) (models.GridRow, []span, bool) {
	colMarks := make([]bool, grid.width)
	for x := 0; x < grid.width; x++ {
		count := 0
		for y := band.start; y < band.end; y++ {
			if grid.at(x, y) != classNone {
				count++
			}
		}
		colMarks[x] = float64(count) >= columnCoverage*float64(band.size())
	}

	tiles := runs(colMarks)
	if len(tiles) != models.GridColumns || !uniform(tiles) {
		return models.GridRow{}, nil, false
	}

	var row models.GridRow
	for i, tile := range tiles {
		state, ok := majority(grid, tile, band)
		if !ok {
			return models.GridRow{}, nil, false
		}
		row[i] = state
	}
	return row, tiles, true
}

// majority returns the most common tile state inside the rectangle
func majority(grid classGrid, xs, ys span) (models.CellState, bool) {
	var counts [3]int
	for y := ys.start; y < ys.end; y++ {
		for x := xs.start; x < xs.end; x++ {
			if c := grid.at(x, y); c != classNone {
				counts[c]++
			}
		}
	}

	best := -1
	for state, n := range counts {
		if n > 0 && (best < 0 || n > counts[best]) {
			best = state
		}
	}
	if best < 0 {
		return 0, false
	}
	return models.CellState(best), true
}
