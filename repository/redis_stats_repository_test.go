package repository

import (
	"context"
	"testing"

	"wordler/models"
	"wordler/repository/testutil"
	"wordler/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisStatsRepositoryTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   *RedisStatsRepository
	ctx    context.Context
}

func (s *RedisStatsRepositoryTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})
	s.ctx = context.Background()

	repo, err := NewRedisStatsRepository(s.ctx, &RedisConfig{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RedisStatsRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisStatsRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStatsRepositoryTestSuite))
}

func (s *RedisStatsRepositoryTestSuite) TestLoadEmptyIsNotFound() {
	doc, err := s.repo.Load(s.ctx)
	s.Nil(doc)
	s.ErrorIs(err, service.ErrStoreNotFound)
}

func (s *RedisStatsRepositoryTestSuite) TestSaveAndLoad() {
	doc := testutil.CreateTestStatsDocument()
	s.Require().NoError(s.repo.Save(s.ctx, doc))

	loaded, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(doc, loaded)

	s.True(s.mr.Exists("wordler:stats"))
	s.True(s.mr.Exists("wordler:leaderboard_snapshot"))
	s.True(s.mr.Exists("wordler:updated_at"))
}

func (s *RedisStatsRepositoryTestSuite) TestSaveReplacesPreviousDocument() {
	s.Require().NoError(s.repo.Save(s.ctx, testutil.CreateTestStatsDocument()))

	next := models.NewStatsDocument()
	next.Users["333"] = testutil.CreateTestPlayerStats("carol", [models.MaxAttempts]int{1, 0, 0, 0, 0, 0}, 0)
	next.UpdatedAt = testutil.CreateTestStatsDocument().UpdatedAt
	s.Require().NoError(s.repo.Save(s.ctx, next))

	loaded, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(loaded.Users, 1)
	s.Contains(loaded.Users, "333")
	s.Empty(loaded.LeaderboardSnapshot)
}

func (s *RedisStatsRepositoryTestSuite) TestCorruptPlayerEntry() {
	s.Require().NoError(s.repo.Save(s.ctx, testutil.CreateTestStatsDocument()))
	s.mr.HSet("wordler:stats", "111", "{broken")

	doc, err := s.repo.Load(s.ctx)
	s.Nil(doc)
	s.ErrorIs(err, service.ErrStoreCorruption)
}

func (s *RedisStatsRepositoryTestSuite) TestKeyPrefix() {
	repo, err := NewRedisStatsRepository(s.ctx, &RedisConfig{
		RedisClient: s.client,
		KeyPrefix:   "guild42:",
	})
	s.Require().NoError(err)

	s.Require().NoError(repo.Save(s.ctx, testutil.CreateTestStatsDocument()))
	s.True(s.mr.Exists("guild42:stats"))
	s.False(s.mr.Exists("wordler:stats"))
}

func (s *RedisStatsRepositoryTestSuite) TestNilConfig() {
	_, err := NewRedisStatsRepository(s.ctx, nil)
	s.Error(err)

	_, err = NewRedisStatsRepository(s.ctx, &RedisConfig{})
	s.Error(err)
}
