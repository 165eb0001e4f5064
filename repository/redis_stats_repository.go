package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wordler/models"
	"wordler/service"

	"github.com/redis/go-redis/v9"
)

const (
	// Key names for Redis
	defaultKeyPrefix   = "wordler:"
	playersKeySuffix   = "stats"
	snapshotKeySuffix  = "leaderboard_snapshot"
	updatedAtKeySuffix = "updated_at"
)

// RedisConfig holds configuration for the Redis stats repository
type RedisConfig struct {
	RedisClient *redis.Client
	// KeyPrefix namespaces the keys, defaulting to "wordler:"
	KeyPrefix string
}

// RedisStatsRepository stores the document as a hash of per-player JSON, a
// list holding the leaderboard snapshot and a timestamp key. A save replaces
// all three inside one MULTI/EXEC.
type RedisStatsRepository struct {
	client    *redis.Client
	playerKey string
	snapKey   string
	timeKey   string
}

// NewRedisStatsRepository creates a new Redis-backed stats repository
func NewRedisStatsRepository(ctx context.Context, cfg *RedisConfig) (*RedisStatsRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &RedisStatsRepository{
		client:    cfg.RedisClient,
		playerKey: prefix + playersKeySuffix,
		snapKey:   prefix + snapshotKeySuffix,
		timeKey:   prefix + updatedAtKeySuffix,
	}, nil
}

// Load reads the stats document
func (r *RedisStatsRepository) Load(ctx context.Context) (*models.StatsDocument, error) {
	pipe := r.client.Pipeline()
	playersCmd := pipe.HGetAll(ctx, r.playerKey)
	snapshotCmd := pipe.LRange(ctx, r.snapKey, 0, -1)
	updatedCmd := pipe.Get(ctx, r.timeKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	updatedRaw, err := updatedCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, service.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stats timestamp: %w", err)
	}

	doc := models.NewStatsDocument()
	if doc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedRaw); err != nil {
		return nil, fmt.Errorf("%w: updated_at: %v", service.ErrStoreCorruption, err)
	}

	for authorID, raw := range playersCmd.Val() {
		var stats models.PlayerStats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			return nil, fmt.Errorf("%w: player %s: %v", service.ErrStoreCorruption, authorID, err)
		}
		doc.Users[authorID] = stats
	}
	doc.LeaderboardSnapshot = snapshotCmd.Val()

	return doc, nil
}

// Save replaces the stored document
func (r *RedisStatsRepository) Save(ctx context.Context, doc *models.StatsDocument) error {
	if doc == nil {
		return errors.New("stats document cannot be nil")
	}

	fields := make([]interface{}, 0, len(doc.Users)*2)
	for authorID, stats := range doc.Users {
		data, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("failed to marshal stats for %s: %w", authorID, err)
		}
		fields = append(fields, authorID, data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.playerKey, r.snapKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.playerKey, fields...)
		}
		if len(doc.LeaderboardSnapshot) > 0 {
			ids := make([]interface{}, len(doc.LeaderboardSnapshot))
			for i, id := range doc.LeaderboardSnapshot {
				ids[i] = id
			}
			pipe.RPush(ctx, r.snapKey, ids...)
		}
		pipe.Set(ctx, r.timeKey, doc.UpdatedAt.UTC().Format(time.RFC3339Nano), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	return nil
}
