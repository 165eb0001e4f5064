package infrastructure

import (
	"fmt"

	"wordler/events"
)

const (
	// EventStreamName is the JetStream stream holding every published event
	EventStreamName = "wordler_events"

	subjectResultRecorded       = "wordler.results.recorded"
	subjectLeaderboardPublished = "wordler.leaderboard.published"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeResultRecorded:
		return subjectResultRecorded
	case events.EventTypeLeaderboardPublished:
		return subjectLeaderboardPublished
	default:
		return fmt.Sprintf("wordler.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		subjectResultRecorded,
		subjectLeaderboardPublished,
	}
}
