package repository

import (
	"context"
	"time"

	"wordler/models"
	"wordler/service"

	log "github.com/sirupsen/logrus"
)

// PersistRecorder receives checkpoint timings
type PersistRecorder interface {
	RecordPersist(backend string, duration time.Duration, err error)
}

// InstrumentedRepository times every save of the wrapped repository
type InstrumentedRepository struct {
	inner    service.StatsRepository
	backend  string
	recorder PersistRecorder
}

// NewInstrumentedRepository wraps inner, labelling measurements with backend
func NewInstrumentedRepository(inner service.StatsRepository, backend string, recorder PersistRecorder) *InstrumentedRepository {
	return &InstrumentedRepository{
		inner:    inner,
		backend:  backend,
		recorder: recorder,
	}
}

// Load delegates to the wrapped repository
func (r *InstrumentedRepository) Load(ctx context.Context) (*models.StatsDocument, error) {
	return r.inner.Load(ctx)
}

// Save delegates to the wrapped repository and records the outcome
func (r *InstrumentedRepository) Save(ctx context.Context, doc *models.StatsDocument) error {
	start := time.Now()
	err := r.inner.Save(ctx, doc)
	duration := time.Since(start)

	r.recorder.RecordPersist(r.backend, duration, err)

	fields := log.Fields{
		"backend":  r.backend,
		"duration": duration,
	}
	if doc != nil {
		fields["players"] = len(doc.Users)
	}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Stats checkpoint failed")
		return err
	}
	log.WithFields(fields).Debug("Stats checkpoint written")
	return nil
}
