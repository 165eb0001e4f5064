package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wordler/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPersist struct {
	backend string
	failed  bool
}

type fakePersistRecorder struct {
	calls []recordedPersist
}

func (f *fakePersistRecorder) RecordPersist(backend string, duration time.Duration, err error) {
	f.calls = append(f.calls, recordedPersist{backend: backend, failed: err != nil})
}

func TestInstrumentedRepository(t *testing.T) {
	ctx := context.Background()
	recorder := &fakePersistRecorder{}
	inner := NewJSONFileRepository(filepath.Join(t.TempDir(), "wordle_stats.json"))
	repo := NewInstrumentedRepository(inner, "file", recorder)

	doc := testutil.CreateTestStatsDocument()
	require.NoError(t, repo.Save(ctx, doc))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	assert.Error(t, repo.Save(ctx, nil))

	assert.Equal(t, []recordedPersist{
		{backend: "file", failed: false},
		{backend: "file", failed: true},
	}, recorder.calls)
}
