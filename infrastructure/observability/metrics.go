package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wordler/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

const exportInterval = 30 * time.Second

// MetricsProvider manages OpenTelemetry metrics for the bot. It satisfies
// the application's MetricsRecorder; every method is a no-op until
// Initialize has installed a meter.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	messagesRoutedCounter       metric.Int64Counter
	resultsRecordedCounter      metric.Int64Counter
	parseFailuresCounter        metric.Int64Counter
	extractionFailuresCounter   metric.Int64Counter
	leaderboardPublishedCounter metric.Int64Counter
	persistFailuresCounter      metric.Int64Counter
	persistDurationHist         metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the exporter chosen by configuration
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTELEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTELExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTELExporterEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTELExporterEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTELExporterType)
	}

	return mp.InitializeWithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)))
}

// InitializeWithReader installs a meter provider around reader. Tests pass
// a manual reader to collect what was recorded.
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.enabled {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTELServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(MetricPrefix)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.messagesRoutedCounter, MessagesRoutedTotal, "Messages that carried a Wordle result"},
		{&mp.resultsRecordedCounter, ResultsRecordedTotal, "Puzzle results folded into player stats"},
		{&mp.parseFailuresCounter, ParseFailuresTotal, "Share texts rejected by the grid parser"},
		{&mp.extractionFailuresCounter, ExtractionFailuresTotal, "Screenshots rejected by the image extractor"},
		{&mp.leaderboardPublishedCounter, LeaderboardPublishedTotal, "Leaderboards posted to Discord"},
		{&mp.persistFailuresCounter, PersistFailuresTotal, "Failed stats checkpoints"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	mp.persistDurationHist, err = mp.meter.Float64Histogram(
		PersistDuration,
		metric.WithDescription("Duration of stats checkpoints in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create persist duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.enabled = false
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordMessageRouted counts a message that yielded a result
func (mp *MetricsProvider) RecordMessageRouted(source string) {
	mp.add(mp.messagesRoutedCounter, attribute.String(LabelSource, source))
}

// RecordResultRecorded counts a recorded result
func (mp *MetricsProvider) RecordResultRecorded(source string) {
	mp.add(mp.resultsRecordedCounter, attribute.String(LabelSource, source))
}

// RecordParseFailure counts a rejected share text
func (mp *MetricsProvider) RecordParseFailure(reason string) {
	mp.add(mp.parseFailuresCounter, attribute.String(LabelReason, reason))
}

// RecordExtractionFailure counts a rejected screenshot
func (mp *MetricsProvider) RecordExtractionFailure(reason string) {
	mp.add(mp.extractionFailuresCounter, attribute.String(LabelReason, reason))
}

// RecordLeaderboardPublished counts a leaderboard post
func (mp *MetricsProvider) RecordLeaderboardPublished(source string) {
	mp.add(mp.leaderboardPublishedCounter, attribute.String(LabelSource, source))
}

// RecordPersist records a checkpoint's duration and whether it failed
func (mp *MetricsProvider) RecordPersist(backend string, duration time.Duration, err error) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelBackend, backend))
	mp.persistDurationHist.Record(context.Background(), duration.Seconds(), attrs)
	if err != nil {
		mp.persistFailuresCounter.Add(context.Background(), 1, attrs)
	}
}

func (mp *MetricsProvider) add(counter metric.Int64Counter, attr attribute.KeyValue) {
	if !mp.isEnabled() {
		return
	}
	counter.Add(context.Background(), 1, metric.WithAttributes(attr))
}

// isEnabled checks if metrics are initialized
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}
