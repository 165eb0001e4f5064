package common

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"wordler/models"
)

// FormatCount formats a count with thousand separators
func FormatCount(n int) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	str := fmt.Sprintf("%d", n)

	length := len(str)
	if length <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatWinRate formats a 0..1 ratio as a percentage with one decimal
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

// FormatAverage formats average guesses per win; players without a win show a dash
func FormatAverage(avg float64) string {
	if math.IsInf(avg, 0) || math.IsNaN(avg) {
		return "-"
	}
	return fmt.Sprintf("%.2f", avg)
}

// TruncateName shortens a display name to max runes, ending with an ellipsis
func TruncateName(name string, max int) string {
	if max <= 0 || utf8.RuneCountInString(name) <= max {
		return name
	}
	runes := []rune(name)
	return string(runes[:max-1]) + "…"
}

// MovementIndicator returns the rank-change marker shown beside a leaderboard row
func MovementIndicator(m models.Movement) string {
	switch m {
	case models.MovementUp:
		return "⬆️"
	case models.MovementDown:
		return "⬇️"
	case models.MovementNew:
		return "🆕"
	default:
		return "➖"
	}
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
