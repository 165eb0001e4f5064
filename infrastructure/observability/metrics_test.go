package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"wordler/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestMetricsProvider_RecordsCounters(t *testing.T) {
	cfg := config.NewTestConfig()
	mp := NewMetricsProvider(cfg)
	reader := sdkmetric.NewManualReader()
	require.NoError(t, mp.InitializeWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	mp.RecordMessageRouted("text")
	mp.RecordMessageRouted("image")
	mp.RecordResultRecorded("text")
	mp.RecordParseFailure("row_shape")
	mp.RecordExtractionFailure("oracle_error")
	mp.RecordLeaderboardPublished("schedule")
	mp.RecordPersist("file", 10*time.Millisecond, nil)
	mp.RecordPersist("file", 20*time.Millisecond, errors.New("disk full"))

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums[MessagesRoutedTotal])
	assert.Equal(t, int64(1), sums[ResultsRecordedTotal])
	assert.Equal(t, int64(1), sums[ParseFailuresTotal])
	assert.Equal(t, int64(1), sums[ExtractionFailuresTotal])
	assert.Equal(t, int64(1), sums[LeaderboardPublishedTotal])
	assert.Equal(t, int64(1), sums[PersistFailuresTotal])
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	cfg := config.NewTestConfig()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))

	assert.NotPanics(t, func() {
		mp.RecordMessageRouted("text")
		mp.RecordResultRecorded("text")
		mp.RecordParseFailure("row_shape")
		mp.RecordExtractionFailure("oracle_error")
		mp.RecordLeaderboardPublished("command")
		mp.RecordPersist("file", time.Millisecond, errors.New("boom"))
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTELEnabled = true
	cfg.OTELExporterType = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	assert.ErrorContains(t, err, "unknown exporter type")
}
