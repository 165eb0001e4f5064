package wordle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wordler/application"
	"wordler/bot/common"
	"wordler/models"
	"wordler/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	commandTimeout  = 30 * time.Second
	backfillTimeout = 14 * time.Minute // interaction tokens expire after 15 minutes
)

// handleStats shows a player's stat embed and card
func (f *Feature) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	target := i.User
	if i.Member != nil {
		target = i.Member.User
	}
	for _, opt := range options {
		if opt.Name == "user" {
			target = opt.UserValue(s)
		}
	}
	if target == nil {
		common.RespondWithError(s, i, "Unable to determine which player to show.")
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring stats response: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats, err := f.deps.Stats.Get(ctx, target.ID)
	if errors.Is(err, service.ErrPlayerNotFound) {
		common.HandleError(s, i, common.NewUserError(
			fmt.Sprintf("<@%s> hasn't shared any Wordle results yet.", target.ID),
			"Stats requested for unknown player",
		), true)
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to read player stats"), true)
		return
	}

	name := stats.DisplayName
	if name == "" {
		name = target.Username
		stats.DisplayName = name
	}

	embed := BuildStatsEmbed(target.ID, stats)
	var png []byte
	if f.images != nil {
		if png, err = f.images.GenerateStatCard(name, stats); err != nil {
			log.WithError(err).WithField("author_id", target.ID).Warn("Failed to render stat card")
			png = nil
		}
	}

	if _, err := common.FollowUpWithEmbed(s, i, embed, png, "wordle_stats.png", false); err != nil {
		log.WithError(err).Error("Error sending stats follow-up")
	}
}

// handleLeaderboard shows the current ranking without moving the publication baseline
func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring leaderboard response: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	entries, err := f.deps.Leaderboard.Leaderboard(ctx, f.settings.LeaderboardSize)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to rank leaderboard"), true)
		return
	}

	embed, png := f.renderLeaderboard(entries, "🏆 Wordle leaderboard")
	if _, err := common.FollowUpWithEmbed(s, i, embed, png, "wordle_leaderboard.png", false); err != nil {
		log.WithError(err).Error("Error sending leaderboard follow-up")
		return
	}
	if f.deps.Metrics != nil {
		f.deps.Metrics.RecordLeaderboardPublished("command")
	}
}

// handleBackfill scans the Wordle channel history in the background and
// reports the count when done
func (f *Feature) handleBackfill(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionManageServer == 0 {
		common.RespondWithError(s, i, "You need the Manage Server permission to run a backfill.")
		return
	}

	limit := application.DefaultBackfillLimit
	for _, opt := range options {
		if opt.Name == "limit" {
			limit = int(opt.IntValue())
		}
	}
	limit = application.ClampBackfillLimit(limit)

	if !f.backfillRunning.CompareAndSwap(false, true) {
		common.RespondWithError(s, i, "A backfill is already running.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		f.backfillRunning.Store(false)
		log.Errorf("Error deferring backfill response: %v", err)
		return
	}

	log.WithFields(log.Fields{
		"user_id":    common.InteractionUserID(i),
		"channel_id": f.settings.WordleChannelID,
		"limit":      limit,
	}).Info("Starting Wordle backfill")

	started := f.goBackground(func(ctx context.Context) {
		defer f.backfillRunning.Store(false)

		count, err := f.runBackfill(ctx, limit)
		if err != nil {
			log.WithError(err).WithField("recorded", count).Error("Wordle backfill ended early")
			common.FollowUpWithError(s, i, fmt.Sprintf("Backfill stopped early after recording %d results.", count))
			return
		}

		common.FollowUpWithSuccess(s, i, fmt.Sprintf("Backfill complete: recorded %s results.", common.FormatCount(count)), true)
	})
	if !started {
		f.backfillRunning.Store(false)
		common.FollowUpWithError(s, i, "The bot is shutting down. Please try again later.")
	}
}

// postLeaderboard sends the rendered board to the post channel
func (f *Feature) postLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) error {
	embed, png := f.renderLeaderboard(entries, "📊 Daily Wordle leaderboard")
	if _, err := common.SendEmbed(f.sender, f.settings.PostChannelID, embed, png, "wordle_leaderboard.png"); err != nil {
		return fmt.Errorf("failed to post leaderboard: %w", err)
	}
	return nil
}

// runBackfill scans the Wordle channel under ctx, bounded by backfillTimeout
func (f *Feature) runBackfill(ctx context.Context, limit int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, backfillTimeout)
	defer cancel()

	history := f.deps.NewHistory(f.settings.WordleChannelID)
	return f.deps.Backfiller.Backfill(ctx, history, limit)
}

// PostDailyLeaderboard publishes the ranking to the post channel. The
// movement baseline moves only once the post has been delivered. It is the
// daily worker's publish callback.
func (f *Feature) PostDailyLeaderboard(ctx context.Context) error {
	entries, err := f.deps.Leaderboard.Publish(ctx, f.settings.LeaderboardSize, f.postLeaderboard)
	if err != nil {
		return fmt.Errorf("failed to publish leaderboard: %w", err)
	}

	if f.deps.Events != nil {
		if err := f.deps.Events.PublishLeaderboardPublished(ctx, f.settings.PostChannelID, entries); err != nil {
			log.WithError(err).Warn("Failed to publish leaderboard event")
		}
	}
	if f.deps.Metrics != nil {
		f.deps.Metrics.RecordLeaderboardPublished("scheduled")
	}

	log.WithFields(log.Fields{
		"channel_id": f.settings.PostChannelID,
		"entries":    len(entries),
	}).Info("Posted daily Wordle leaderboard")
	return nil
}

func (f *Feature) renderLeaderboard(entries []models.LeaderboardEntry, title string) (*discordgo.MessageEmbed, []byte) {
	embed := BuildLeaderboardEmbed(entries, title)
	if f.images == nil || len(entries) == 0 {
		return embed, nil
	}

	png, err := f.images.GenerateLeaderboard(entries)
	if err != nil {
		log.WithError(err).Warn("Failed to render leaderboard image")
		return embed, nil
	}
	return embed, png
}
