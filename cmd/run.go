package cmd

import (
	"context"
	"fmt"
	"time"

	"wordler/application"
	"wordler/bot"
	"wordler/bot/features/wordle"
	"wordler/config"
	"wordler/events"
	"wordler/infrastructure"
	"wordler/infrastructure/observability"
	"wordler/infrastructure/recognition"
	"wordler/service"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run initializes and starts the application, blocking until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	log.Info("Starting wordler bot...")

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	// Initialize stats store
	log.Info("Opening stats store...")
	store, closeStore, err := OpenStore(ctx, cfg, metrics)
	if err != nil {
		return fmt.Errorf("failed to open stats store: %w", err)
	}
	defer closeStore()
	log.Info("Stats store opened successfully")

	// Initialize event publishing
	eventBus := events.NewBus()
	defer eventBus.Drain()

	var publisher application.EventPublisher = infrastructure.NewNoopEventPublisher()
	if cfg.NATSServers != "" {
		log.Info("Connecting to NATS...")
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() {
			// Forwarders still running need the connection
			eventBus.Drain()
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing NATS connection")
			}
		}()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureStream(infrastructure.EventStreamName, mapper.GetAllSubjects()); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		infrastructure.NewNATSEventPublisher(natsClient, mapper).Forward(eventBus)
		publisher = infrastructure.NewBusEventPublisher(eventBus)
		log.Info("Event publishing to NATS enabled")
	} else {
		log.Info("NATS_SERVERS not set, event publishing disabled")
	}

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:           cfg.DiscordToken,
		WordleChannelID: cfg.WordleChannelID,
		PostChannelID:   cfg.PostChannelID(),
		LeaderboardSize: cfg.LeaderboardSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	// Initialize application services
	parser := application.NewGridParser()
	extractor := application.NewImageGridExtractor(recognition.NewTileRecognizer(), parser)
	router := application.NewResultRouter(parser, extractor, discordBot.UserResolver(), metrics)
	handler := application.NewWordleHandler(router, store, publisher, metrics)
	leaderboard := service.NewLeaderboardService(store, cfg.LeaderboardMinGames)

	if err := discordBot.Open(bot.Dependencies{
		Handler:     handler,
		Stats:       store,
		Leaderboard: leaderboard,
		NewBackfiller: func(selfID string) wordle.Backfiller {
			return application.NewBackfillScanner(router, store, publisher, metrics, selfID)
		},
		Events:  publisher,
		Metrics: metrics,
	}); err != nil {
		return fmt.Errorf("failed to open Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.LeaderboardPostEnabled {
		worker := application.NewDailyLeaderboardWorker(
			cfg.LeaderboardPostHour,
			cfg.LeaderboardPostMinute,
			discordBot.PostDailyLeaderboard,
			application.SystemClock{},
		)
		g.Go(func() error {
			stop := worker.Start(gctx)
			<-gctx.Done()
			stop()
			return nil
		})
	} else {
		log.Info("LEADERBOARD_POST_TIME not set, daily leaderboard disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down bot...")
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Warn("Error closing Discord bot")
		}
		return nil
	})

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Background task failed")
	}

	// Final checkpoint once no more messages can arrive
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := store.Persist(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to write final stats checkpoint")
	}

	log.Info("Shutdown completed")
	return nil
}
