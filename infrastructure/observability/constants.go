package observability

// Metric name prefixes
const (
	MetricPrefix = "wordler"
)

// Metric names
const (
	// Pipeline metrics
	MessagesRoutedTotal     = MetricPrefix + ".messages.routed_total"
	ResultsRecordedTotal    = MetricPrefix + ".results.recorded_total"
	ParseFailuresTotal      = MetricPrefix + ".parse.failures_total"
	ExtractionFailuresTotal = MetricPrefix + ".extraction.failures_total"

	// Leaderboard metrics
	LeaderboardPublishedTotal = MetricPrefix + ".leaderboard.published_total"

	// Store metrics
	PersistFailuresTotal = MetricPrefix + ".store.persist_failures_total"
	PersistDuration      = MetricPrefix + ".store.persist_duration"
)

// Label keys
const (
	LabelSource  = "source"
	LabelReason  = "reason"
	LabelBackend = "backend"
)
