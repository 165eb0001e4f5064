package wordle

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"wordler/bot/common"
	"wordler/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// TableColumn defines a column in the leaderboard table
type TableColumn struct {
	Header    string
	XPosition int
	ColorRGB  [3]float64
}

// TableRow represents a single row of data
type TableRow struct {
	Rank     int
	IsTop3   bool
	Movement models.Movement
	Data     []string
}

// TableStyle defines the visual style of generated images
type TableStyle struct {
	Width           int
	MinHeight       int
	Padding         int
	RowHeight       int
	HighlightColors map[string][4]float64
}

// ImageGenerator renders leaderboard tables and stat cards as PNGs.
// truetype faces cache glyphs and are not safe for concurrent use, so
// rendering is serialized.
type ImageGenerator struct {
	style TableStyle
	faces map[string]font.Face
	mu    sync.Mutex
}

// NewImageGenerator creates a new image generator with the default style
func NewImageGenerator() (*ImageGenerator, error) {
	g := &ImageGenerator{
		style: TableStyle{
			Width:     420,
			MinHeight: 120,
			Padding:   15,
			RowHeight: 26,
			HighlightColors: map[string][4]float64{
				"gold":   {1, 0.84, 0, 0.1},
				"silver": {0.8, 0.8, 0.8, 0.08},
				"bronze": {0.8, 0.5, 0.2, 0.06},
			},
		},
		faces: make(map[string]font.Face),
	}

	for name, spec := range map[string]struct {
		data []byte
		size float64
	}{
		"body":  {gomono.TTF, 11},
		"small": {gomono.TTF, 10},
		"rank":  {gobold.TTF, 9},
		"title": {gobold.TTF, 16},
	} {
		face, err := loadFont(spec.data, spec.size)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s font: %w", name, err)
		}
		g.faces[name] = face
	}

	return g, nil
}

// GenerateLeaderboard renders ranked entries as a table image
func (g *ImageGenerator) GenerateLeaderboard(entries []models.LeaderboardEntry) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.style.Padding
	columns := []TableColumn{
		{Header: "#", XPosition: p, ColorRGB: [3]float64{0.85, 0.85, 0.9}},
		{Header: "Player", XPosition: p + 40, ColorRGB: [3]float64{1.0, 1.0, 1.0}},
		{Header: "Avg", XPosition: p + 170, ColorRGB: [3]float64{0.85, 1.0, 0.85}},
		{Header: "Wins", XPosition: p + 220, ColorRGB: [3]float64{0.85, 0.85, 1.0}},
		{Header: "Games", XPosition: p + 270, ColorRGB: [3]float64{0.85, 0.85, 1.0}},
		{Header: "Win%", XPosition: p + 330, ColorRGB: [3]float64{1.0, 0.95, 0.8}},
	}

	rows := make([]TableRow, len(entries))
	for i, e := range entries {
		rows[i] = TableRow{
			Rank:     e.Rank,
			IsTop3:   e.Rank <= 3,
			Movement: e.Movement,
			Data: []string{
				fmt.Sprintf("%d", e.Rank),
				common.TruncateName(entryName(e), 15),
				common.FormatAverage(e.AverageAttempts),
				fmt.Sprintf("%d", e.GamesWon),
				fmt.Sprintf("%d", e.GamesPlayed),
				common.FormatWinRate(e.WinRate),
			},
		}
	}

	return g.generateTable(columns, rows)
}

// generateTable creates the table image
func (g *ImageGenerator) generateTable(columns []TableColumn, rows []TableRow) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("row_count", len(rows)).
			Debug("Leaderboard image generation completed")
	}()

	// Header (25px) + header padding (30px) + rows + bottom padding (15px)
	height := 25 + 30 + len(rows)*g.style.RowHeight + 15
	if height < g.style.MinHeight {
		height = g.style.MinHeight
	}

	dc := gg.NewContext(g.style.Width, height)
	dc.SetFillRule(gg.FillRuleWinding)
	drawBackground(dc, g.style.Width, height)
	dc.SetFontFace(g.faces["body"])

	y := float64(25)

	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(g.style.Width), 20)
	dc.Fill()

	dc.SetRGB(1.0, 1.0, 1.0)
	for _, col := range columns {
		drawSharpText(dc, col.Header, float64(col.XPosition), y)
	}

	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, y+8, float64(g.style.Width), y+8)
	dc.Stroke()

	if len(rows) == 0 {
		dc.SetRGB(0.7, 0.7, 0.7)
		drawSharpText(dc, "No eligible players yet", float64(g.style.Padding), y+35)
	}

	y += 30
	for _, row := range rows {
		highlight := ""
		if row.IsTop3 {
			highlight = [...]string{"gold", "silver", "bronze"}[row.Rank-1]
		}

		if highlight != "" {
			color := g.style.HighlightColors[highlight]
			dc.SetRGBA(color[0], color[1], color[2], color[3])
		} else {
			dc.SetRGBA(0.5, 0.5, 0.6, 0.02)
		}
		dc.DrawRectangle(0, y-15, float64(g.style.Width), float64(g.style.RowHeight))
		dc.Fill()

		if row.IsTop3 {
			var red, green, blue float64
			switch row.Rank {
			case 1:
				red, green, blue = 1, 0.84, 0
			case 2:
				red, green, blue = 0.75, 0.75, 0.75
			default:
				red, green, blue = 0.8, 0.5, 0.2
			}
			dc.SetRGB(red, green, blue)
			dc.DrawCircle(float64(g.style.Padding+3), y-4, 6)
			dc.Fill()

			dc.SetRGB(0, 0, 0)
			dc.SetFontFace(g.faces["rank"])
			dc.DrawStringAnchored(row.Data[0], float64(g.style.Padding+3), y-5, 0.5, 0.4)
			dc.SetFontFace(g.faces["body"])
		} else {
			dc.SetRGB(columns[0].ColorRGB[0], columns[0].ColorRGB[1], columns[0].ColorRGB[2])
			drawSharpText(dc, row.Data[0], float64(columns[0].XPosition), y)
		}

		drawMovement(dc, row.Movement, float64(g.style.Padding+22), y-4)

		for j := 1; j < len(columns) && j < len(row.Data); j++ {
			col := columns[j]
			dc.SetRGB(col.ColorRGB[0], col.ColorRGB[1], col.ColorRGB[2])
			drawSharpText(dc, row.Data[j], float64(col.XPosition), y)
		}

		y += float64(g.style.RowHeight)
	}

	return encodePNG(dc)
}

// GenerateStatCard renders a player's headline numbers and guess distribution
func (g *ImageGenerator) GenerateStatCard(name string, stats models.PlayerStats) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			Debug("Stat card generation completed")
	}()

	width, height := g.style.Width, 300
	p := float64(g.style.Padding)

	dc := gg.NewContext(width, height)
	dc.SetFillRule(gg.FillRuleWinding)
	drawBackground(dc, width, height)

	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(g.faces["title"])
	drawSharpText(dc, common.TruncateName(name, 28), p, 30)

	avg, _ := stats.AverageAttempts()
	headline := []struct {
		label string
		value string
	}{
		{"Played", fmt.Sprintf("%d", stats.GamesPlayed)},
		{"Win %", common.FormatWinRate(stats.WinRate())},
		{"Avg", common.FormatAverage(avg)},
		{"Streak", fmt.Sprintf("%d", stats.CurrentStreak)},
		{"Max", fmt.Sprintf("%d", stats.MaxStreak)},
	}

	cell := (float64(width) - 2*p) / float64(len(headline))
	for i, h := range headline {
		cx := p + cell*float64(i) + cell/2
		dc.SetRGB(1, 1, 1)
		dc.SetFontFace(g.faces["title"])
		dc.DrawStringAnchored(h.value, cx, 68, 0.5, 0.5)
		dc.SetRGB(0.7, 0.7, 0.75)
		dc.SetFontFace(g.faces["small"])
		dc.DrawStringAnchored(h.label, cx, 88, 0.5, 0.5)
	}

	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(p, 104, float64(width)-p, 104)
	dc.Stroke()

	largest := 0
	for _, n := range stats.Distribution {
		if n > largest {
			largest = n
		}
	}

	lastRow := 0
	if last := stats.LastResult; last != nil && last.Solved {
		lastRow = last.Attempts
	}

	barLeft := p + 20
	barMax := float64(width) - barLeft - p
	dc.SetFontFace(g.faces["body"])
	for i, n := range stats.Distribution {
		y := 120 + float64(i)*28

		dc.SetRGB(0.85, 0.85, 0.9)
		drawSharpText(dc, fmt.Sprintf("%d", i+1), p, y+14)

		barWidth := 24.0
		if largest > 0 {
			barWidth = max(barWidth, barMax*float64(n)/float64(largest))
		}
		if i+1 == lastRow {
			dc.SetRGB(0.42, 0.67, 0.39) // correct-tile green
		} else {
			dc.SetRGB(0.47, 0.49, 0.49) // absent-tile grey
		}
		dc.DrawRectangle(barLeft, y, barWidth, 20)
		dc.Fill()

		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(fmt.Sprintf("%d", n), barLeft+barWidth-6, y+10, 1, 0.4)
	}

	return encodePNG(dc)
}

// drawBackground paints a vertical gradient with subtle texture
func drawBackground(dc *gg.Context, width, height int) {
	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		baseR := 0.02 + t*0.03
		baseG := 0.02 + t*0.05
		baseB := 0.05 + t*0.1

		for x := 0; x < width; x++ {
			noise := (float64((x*i)%7) - 3.5) / 255.0
			dc.SetRGB(baseR+noise, baseG+noise, baseB+noise)
			dc.SetPixel(x, i)
		}
	}
}

// drawMovement draws a small triangle or dot for rank movement
func drawMovement(dc *gg.Context, m models.Movement, x, y float64) {
	switch m {
	case models.MovementUp:
		dc.SetRGB(0.4, 1.0, 0.4)
		dc.MoveTo(x, y-5)
		dc.LineTo(x+5, y+3)
		dc.LineTo(x-5, y+3)
	case models.MovementDown:
		dc.SetRGB(1.0, 0.4, 0.4)
		dc.MoveTo(x, y+5)
		dc.LineTo(x+5, y-3)
		dc.LineTo(x-5, y-3)
	case models.MovementNew:
		dc.SetRGB(0.4, 0.7, 1.0)
		dc.DrawCircle(x, y, 3)
	default:
		return
	}
	dc.ClosePath()
	dc.Fill()
}

// drawSharpText draws text with a faint shadow, which reads sharper at small sizes
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}
