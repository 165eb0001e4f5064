package wordle

import (
	"fmt"
	"strings"
	"time"

	"wordler/bot/common"
	"wordler/models"

	"github.com/bwmarrin/discordgo"
)

const (
	distributionBarWidth = 12
	leaderboardNameWidth = 14
)

// BuildStatsEmbed renders one player's aggregate
func BuildStatsEmbed(authorID string, stats models.PlayerStats) *discordgo.MessageEmbed {
	name := stats.DisplayName
	if name == "" {
		name = fmt.Sprintf("<@%s>", authorID)
	}

	avg, _ := stats.AverageAttempts()

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🟩 Wordle stats for %s", name),
		Color: common.ColorWordle,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Played", Value: common.FormatCount(stats.GamesPlayed), Inline: true},
			{Name: "Win %", Value: common.FormatWinRate(stats.WinRate()), Inline: true},
			{Name: "Avg guesses", Value: common.FormatAverage(avg), Inline: true},
			{Name: "Current streak", Value: common.FormatCount(stats.CurrentStreak), Inline: true},
			{Name: "Max streak", Value: common.FormatCount(stats.MaxStreak), Inline: true},
			{Name: "Losses", Value: common.FormatCount(stats.Losses()), Inline: true},
			{Name: "Guess distribution", Value: FormatDistribution(stats.Distribution)},
		},
	}

	if last := stats.LastResult; last != nil {
		score := "X"
		if last.Solved {
			score = fmt.Sprintf("%d", last.Attempts)
		}
		hard := ""
		if last.HardMode {
			hard = "*"
		}
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Last result: Wordle %d %s/%d%s", last.PuzzleID, score, models.MaxAttempts, hard),
		}
		if !last.RecordedAt.IsZero() {
			embed.Timestamp = last.RecordedAt.Format(time.RFC3339)
		}
	}

	return embed
}

// FormatDistribution draws the guess distribution as a monospace bar chart
// scaled to the largest bucket
func FormatDistribution(dist [models.MaxAttempts]int) string {
	largest := 0
	for _, n := range dist {
		if n > largest {
			largest = n
		}
	}

	var b strings.Builder
	b.WriteString("```\n")
	for i, n := range dist {
		width := 0
		if largest > 0 {
			width = n * distributionBarWidth / largest
		}
		if n > 0 && width == 0 {
			width = 1
		}
		fmt.Fprintf(&b, "%d │%s %d\n", i+1, strings.Repeat("█", width), n)
	}
	b.WriteString("```")
	return b.String()
}

// BuildLeaderboardEmbed renders ranked entries as a table with movement markers
func BuildLeaderboardEmbed(entries []models.LeaderboardEntry, title string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: common.ColorWordle,
	}

	if len(entries) == 0 {
		embed.Description = "No one has played yet. Share a Wordle result to get on the board!"
		return embed
	}

	embed.Description = FormatLeaderboardTable(entries)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: "Ranked by win rate, then average guesses, then games played",
	}
	return embed
}

// FormatLeaderboardTable renders entries as a monospace table
func FormatLeaderboardTable(entries []models.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%-3s %-*s %5s %4s %5s %6s\n", "#", leaderboardNameWidth, "Player", "Avg", "Wins", "Games", "Win%")

	for _, e := range entries {
		line := fmt.Sprintf("%-3d %-*s %5s %4d %5d %6s",
			e.Rank,
			leaderboardNameWidth, common.TruncateName(entryName(e), leaderboardNameWidth),
			common.FormatAverage(e.AverageAttempts),
			e.GamesWon,
			e.GamesPlayed,
			common.FormatWinRate(e.WinRate),
		)
		if b.Len()+len(line)+8 > common.MaxEmbedDescription {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("```")

	var arrows []string
	for _, e := range entries {
		if e.Movement == models.MovementNone {
			continue
		}
		arrows = append(arrows, fmt.Sprintf("%s %s", common.MovementIndicator(e.Movement), entryName(e)))
	}
	if len(arrows) > 0 {
		movement := "\n" + strings.Join(arrows, " · ")
		if b.Len()+len(movement) <= common.MaxEmbedDescription {
			b.WriteString(movement)
		}
	}

	return b.String()
}

func entryName(e models.LeaderboardEntry) string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.AuthorID
}
