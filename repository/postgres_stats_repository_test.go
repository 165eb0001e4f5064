package repository

import (
	"context"
	"testing"

	"wordler/models"
	"wordler/repository/testutil"
	"wordler/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStatsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	t.Parallel()

	testDB := testutil.SetupTestDatabase(t)
	repo := NewPostgresStatsRepository(testDB.DB)
	ctx := context.Background()

	t.Run("empty database is not found", func(t *testing.T) {
		doc, err := repo.Load(ctx)
		assert.Nil(t, doc)
		assert.ErrorIs(t, err, service.ErrStoreNotFound)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		doc := testutil.CreateTestStatsDocument()
		require.NoError(t, repo.Save(ctx, doc))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, normalizeTimes(doc), normalizeTimes(loaded))
	})

	t.Run("save replaces previous rows", func(t *testing.T) {
		next := models.NewStatsDocument()
		next.Users["333"] = testutil.CreateTestPlayerStats("carol", [models.MaxAttempts]int{1, 0, 0, 0, 0, 0}, 2)
		require.NoError(t, repo.Save(ctx, next))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded.Users, 1)
		assert.Equal(t, 3, loaded.Users["333"].GamesPlayed)
		assert.Nil(t, loaded.Users["333"].LastResult)
		assert.Empty(t, loaded.LeaderboardSnapshot)
	})
}

// normalizeTimes puts every timestamp in UTC so documents read back from
// the database compare equal
func normalizeTimes(doc *models.StatsDocument) *models.StatsDocument {
	out := &models.StatsDocument{
		Users:               make(map[string]models.PlayerStats, len(doc.Users)),
		LeaderboardSnapshot: doc.LeaderboardSnapshot,
		UpdatedAt:           doc.UpdatedAt.UTC(),
	}
	for id, stats := range doc.Users {
		stats = stats.Clone()
		stats.UpdatedAt = stats.UpdatedAt.UTC()
		if stats.LastResult != nil {
			stats.LastResult.RecordedAt = stats.LastResult.RecordedAt.UTC()
		}
		out.Users[id] = stats
	}
	return out
}
