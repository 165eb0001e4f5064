package cmd

import (
	"context"
	"fmt"

	"wordler/config"
	"wordler/database"
	"wordler/repository"
	"wordler/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// OpenRepository connects the configured stats backend. The returned close
// func releases its connections. A non-nil recorder wraps the backend with
// checkpoint metrics.
func OpenRepository(ctx context.Context, cfg *config.Config, recorder repository.PersistRecorder) (service.StatsRepository, func(), error) {
	var repo service.StatsRepository
	closeFn := func() {}

	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		repo = repository.NewJSONFileRepository(cfg.DataPath)
		log.WithField("path", cfg.DataPath).Info("Using JSON file stats store")

	case config.StoreBackendPostgres:
		databaseURL := cfg.GetDatabaseURL()
		if err := database.MigrateUp(databaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Database connection established successfully")

		repo = repository.NewPostgresStatsRepository(db)
		closeFn = db.Close

	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		redisRepo, err := repository.NewRedisStatsRepository(ctx, &repository.RedisConfig{RedisClient: client})
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("Using Redis stats store")

		repo = redisRepo
		closeFn = func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warn("Error closing Redis client")
			}
		}

	default:
		return nil, nil, fmt.Errorf("%w: unknown STORE_BACKEND %q", config.ErrConfiguration, cfg.StoreBackend)
	}

	if recorder != nil {
		repo = repository.NewInstrumentedRepository(repo, cfg.StoreBackend, recorder)
	}
	return repo, closeFn, nil
}

// OpenStore opens the repository and starts a StatsStore loaded from it.
// The returned close func stops the store and releases the backend.
func OpenStore(ctx context.Context, cfg *config.Config, recorder repository.PersistRecorder) (*service.StatsStore, func(), error) {
	repo, closeRepo, err := OpenRepository(ctx, cfg, recorder)
	if err != nil {
		return nil, nil, err
	}

	store := service.NewStatsStore(repo)
	store.Start()

	if err := store.Load(ctx); err != nil {
		store.Stop()
		closeRepo()
		return nil, nil, err
	}

	return store, func() {
		store.Stop()
		closeRepo()
	}, nil
}
