package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wordler/application"
	"wordler/bot/common"
	"wordler/bot/features/wordle"
	"wordler/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const messageTimeout = 2 * time.Minute

// Config holds bot configuration
type Config struct {
	Token           string
	WordleChannelID string
	PostChannelID   string
	LeaderboardSize int
}

// MessageHandler processes one message from the Wordle channel
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage) (int, error)
}

// Dependencies wire the bot to the application layer. NewBackfiller receives
// the bot's own user ID, which is only known once the session is open.
type Dependencies struct {
	Handler       MessageHandler
	Stats         wordle.StatsReader
	Leaderboard   wordle.LeaderboardProvider
	NewBackfiller func(selfID string) wordle.Backfiller
	Events        application.EventPublisher
	Metrics       wordle.PublicationRecorder
}

// Bot is the Discord front end: it feeds Wordle channel messages to the
// handler and serves the /wordle command
type Bot struct {
	config    Config
	session   *discordgo.Session
	resolver  *UserResolver
	converter *messageConverter
	handler   MessageHandler
	wordle    atomic.Pointer[wordle.Feature]

	ctx        context.Context
	cancel     context.CancelFunc
	inflight   sync.WaitGroup
	background *taskGroup
}

// New creates the Discord session without connecting. The user resolver is
// usable immediately so the result router can be built before Open.
func New(config Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	ctx, cancel := context.WithCancel(context.Background())

	return &Bot{
		config:     config,
		session:    dg,
		resolver:   NewUserResolver(dg),
		converter:  &messageConverter{client: dg.Client},
		ctx:        ctx,
		cancel:     cancel,
		background: newTaskGroup(ctx),
	}, nil
}

// UserResolver returns the resolver for summary @handles
func (b *Bot) UserResolver() *UserResolver {
	return b.resolver
}

// Open connects to Discord, builds the command features and registers the
// slash commands
func (b *Bot) Open(deps Dependencies) error {
	b.handler = deps.Handler

	// Register handlers
	b.session.AddHandler(b.handleCommands)
	b.session.AddHandler(b.handleMessageCreate)
	b.session.AddHandler(b.handleGuildMemberUpdate)

	// Open websocket connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	selfID := b.session.State.User.ID
	b.wordle.Store(wordle.NewFeature(b.session, wordle.Dependencies{
		Stats:       deps.Stats,
		Leaderboard: deps.Leaderboard,
		Backfiller:  deps.NewBackfiller(selfID),
		NewHistory:  b.NewChannelHistory,
		Background:  b.background,
		Events:      deps.Events,
		Metrics:     deps.Metrics,
	}, wordle.Settings{
		WordleChannelID: b.config.WordleChannelID,
		PostChannelID:   b.config.PostChannelID,
		LeaderboardSize: b.config.LeaderboardSize,
	}))

	// Register slash commands with Discord
	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}

	log.WithFields(log.Fields{
		"user":       b.session.State.User.Username,
		"channel_id": b.config.WordleChannelID,
	}).Info("Discord bot connected")
	return nil
}

// PostDailyLeaderboard publishes the leaderboard to the post channel
func (b *Bot) PostDailyLeaderboard(ctx context.Context) error {
	f := b.wordle.Load()
	if f == nil {
		return fmt.Errorf("bot is not connected")
	}
	return f.PostDailyLeaderboard(ctx)
}

// NewChannelHistory opens a newest-first iterator over a channel. The
// guild comes from the state cache, falling back to a REST lookup.
func (b *Bot) NewChannelHistory(channelID string) application.MessageIterator {
	guildID := ""
	if ch, err := b.session.State.Channel(channelID); err == nil {
		guildID = ch.GuildID
	} else if ch, err := b.session.Channel(channelID); err == nil {
		guildID = ch.GuildID
	} else {
		log.WithError(err).WithField("channel_id", channelID).Warn("Unable to look up channel guild for history")
	}
	return newChannelHistory(b.session, b.converter, channelID, guildID)
}

// Close disconnects, cancels background backfills and waits for them and
// any in-flight messages to finish recording. The caller's final save runs
// after Close returns.
func (b *Bot) Close() error {
	err := b.session.Close()
	b.background.Stop()
	b.inflight.Wait()
	b.cancel()
	return err
}

// handleCommands routes slash commands to features
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "wordle":
		f := b.wordle.Load()
		if f == nil {
			common.RespondWithError(s, i, "The bot is still starting up. Please try again shortly.")
			return
		}
		f.HandleCommand(s, i)
	}
}

// handleMessageCreate feeds messages from the Wordle channel to the handler
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if m.ChannelID != b.config.WordleChannelID {
		return
	}
	if m.GuildID == "" {
		log.Debugf("Skipping message %s - not from a guild (possibly a DM)", m.ID)
		return
	}

	b.inflight.Add(1)
	defer b.inflight.Done()

	ctx, cancel := context.WithTimeout(b.ctx, messageTimeout)
	defer cancel()

	msg := b.converter.convert(m.Message, m.GuildID)
	recorded, err := b.handler.HandleMessage(ctx, msg)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id":   m.GuildID,
			"channel_id": m.ChannelID,
			"message_id": m.ID,
		}).Error("Failed to handle Wordle message")
		return
	}
	if recorded > 0 {
		log.WithFields(log.Fields{
			"message_id": m.ID,
			"author_id":  msg.AuthorID,
			"recorded":   recorded,
		}).Debug("Handled Wordle message")
	}
}

// handleGuildMemberUpdate drops cached names when a member renames
func (b *Bot) handleGuildMemberUpdate(_ *discordgo.Session, u *discordgo.GuildMemberUpdate) {
	if u.Member == nil {
		return
	}
	b.resolver.InvalidateCache(u.GuildID)
}
