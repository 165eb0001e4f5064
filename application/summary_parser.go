package application

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"wordler/models"

	log "github.com/sirupsen/logrus"
)

var (
	summaryLinePattern = regexp.MustCompile(`([1-6Xx])/6:\s*(.+)`)
	mentionPattern     = regexp.MustCompile(`<@!?(\d+)>`)
	handlePattern      = regexp.MustCompile(`@([A-Za-z0-9_.\-]+)`)
)

// summaryMarker heads every official group summary
const summaryMarker = "yesterday's results"

// SummaryEntry is one player line item from the official group summary
// ("👑 3/6: <@123> @Piplup"). Exactly one of UserID and Handle is set.
type SummaryEntry struct {
	UserID   string
	Handle   string
	Solved   bool
	Attempts int
}

// ResolvedUser is a guild member matched from a plain @handle
type ResolvedUser struct {
	UserID      string
	DisplayName string
}

// UserResolver resolves plain @handles in summary messages to members
type UserResolver interface {
	ResolveHandle(ctx context.Context, guildID, handle string) (*ResolvedUser, error)
}

// parseSummary extracts every player entry from a group summary message.
// A player listed twice keeps the first entry.
func parseSummary(content string) []SummaryEntry {
	var entries []SummaryEntry
	seen := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		match := summaryLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		solved := !strings.EqualFold(match[1], "x")
		attempts := models.FailedAttempts
		if solved {
			attempts, _ = strconv.Atoi(match[1])
		}
		body := match[2]

		for _, m := range mentionPattern.FindAllStringSubmatch(body, -1) {
			key := "id:" + m[1]
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, SummaryEntry{UserID: m[1], Solved: solved, Attempts: attempts})
		}

		stripped := mentionPattern.ReplaceAllString(body, " ")
		for _, m := range handlePattern.FindAllStringSubmatch(stripped, -1) {
			key := "handle:" + strings.ToLower(m[1])
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, SummaryEntry{Handle: m[1], Solved: solved, Attempts: attempts})
		}
	}

	return entries
}

// isSummaryMessage reports whether a message may carry a group summary:
// app-authored messages, or text quoting the summary heading. Player chatter
// such as "3/6: @bob beat me" is neither.
func isSummaryMessage(msg models.InboundMessage) bool {
	if msg.AuthorIsBot {
		return true
	}
	text := strings.ToLower(strings.ReplaceAll(msg.Text, "’", "'"))
	return strings.Contains(text, summaryMarker)
}

// summaryResults attributes summary entries to players. The summary reports
// yesterday's puzzle relative to the message timestamp.
func summaryResults(ctx context.Context, msg models.InboundMessage, resolver UserResolver) []models.PuzzleResult {
	if !isSummaryMessage(msg) {
		return nil
	}
	entries := parseSummary(msg.Text)
	if len(entries) == 0 {
		return nil
	}

	puzzleID := models.PuzzleIDForDate(msg.Timestamp.AddDate(0, 0, -1))

	var results []models.PuzzleResult
	for _, entry := range entries {
		userID, name := entry.UserID, ""
		if userID != "" {
			name = msg.Mentions[userID]
		} else {
			if resolver == nil {
				continue
			}
			user, err := resolver.ResolveHandle(ctx, msg.GuildID, entry.Handle)
			if err != nil || user == nil {
				log.WithFields(log.Fields{
					"handle":     entry.Handle,
					"guild_id":   msg.GuildID,
					"message_id": msg.MessageID,
				}).Debug("Skipping summary entry for unknown member")
				continue
			}
			userID, name = user.UserID, user.DisplayName
		}

		grid := models.ParsedGrid{
			PuzzleID: puzzleID,
			Solved:   entry.Solved,
			Attempts: entry.Attempts,
		}
		result, err := models.NewPuzzleResult(grid, models.ResultMeta{
			AuthorID:   userID,
			AuthorName: name,
			MessageID:  msg.MessageID,
			Timestamp:  msg.Timestamp,
			Source:     models.SourceSummary,
		})
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Debug("Skipping invalid summary entry")
			continue
		}
		results = append(results, result)
	}

	return results
}
