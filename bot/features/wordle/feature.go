package wordle

import (
	"context"
	"sync/atomic"

	"wordler/application"
	"wordler/bot/common"
	"wordler/models"
	"wordler/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// StatsReader looks up one player's aggregate
type StatsReader interface {
	Get(ctx context.Context, authorID string) (models.PlayerStats, error)
}

// LeaderboardProvider ranks players for display and daily publication
type LeaderboardProvider interface {
	Leaderboard(ctx context.Context, size int) ([]models.LeaderboardEntry, error)
	Publish(ctx context.Context, size int, post service.PostFunc) ([]models.LeaderboardEntry, error)
}

// Backfiller replays channel history into the stats store
type Backfiller interface {
	Backfill(ctx context.Context, history application.MessageIterator, limit int) (int, error)
}

// HistoryFactory opens a newest-first iterator over a channel's history
type HistoryFactory func(channelID string) application.MessageIterator

// BackgroundRunner runs work that must finish before shutdown completes.
// Go reports false when the runner is already stopping.
type BackgroundRunner interface {
	Go(fn func(ctx context.Context)) bool
}

// PublicationRecorder counts leaderboard publications by trigger
type PublicationRecorder interface {
	RecordLeaderboardPublished(source string)
}

// Dependencies are the services the Wordle commands call into
type Dependencies struct {
	Stats       StatsReader
	Leaderboard LeaderboardProvider
	Backfiller  Backfiller
	NewHistory  HistoryFactory
	Background  BackgroundRunner
	Events      application.EventPublisher
	Metrics     PublicationRecorder
}

// Settings are the channel and sizing options for the feature
type Settings struct {
	WordleChannelID string
	PostChannelID   string
	LeaderboardSize int
}

// Feature handles the /wordle command and the scheduled leaderboard post
type Feature struct {
	session  *discordgo.Session
	sender   common.ChannelSender
	deps     Dependencies
	settings Settings
	images   *ImageGenerator

	backfillRunning atomic.Bool
}

// NewFeature creates a new Wordle feature instance. Rendering falls back to
// embeds only when fonts cannot be loaded.
func NewFeature(session *discordgo.Session, deps Dependencies, settings Settings) *Feature {
	images, err := NewImageGenerator()
	if err != nil {
		log.WithError(err).Warn("Image rendering disabled, falling back to embeds only")
	}
	if settings.PostChannelID == "" {
		settings.PostChannelID = settings.WordleChannelID
	}

	var sender common.ChannelSender
	if session != nil {
		sender = session
	}

	return &Feature{
		session:  session,
		sender:   sender,
		deps:     deps,
		settings: settings,
		images:   images,
	}
}

// HandleCommand routes /wordle subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Please specify a subcommand: stats, leaderboard or backfill")
		return
	}

	switch options[0].Name {
	case "stats":
		f.handleStats(s, i, options[0].Options)
	case "leaderboard":
		f.handleLeaderboard(s, i)
	case "backfill":
		f.handleBackfill(s, i, options[0].Options)
	default:
		common.RespondWithError(s, i, "Unknown subcommand")
	}
}

// goBackground hands fn to the background runner, or a plain goroutine when
// none is configured
func (f *Feature) goBackground(fn func(ctx context.Context)) bool {
	if f.deps.Background == nil {
		go fn(context.Background())
		return true
	}
	return f.deps.Background.Go(fn)
}
