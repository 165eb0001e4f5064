package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// WorkerState is the daily worker's position in its IDLE/FIRING cycle
type WorkerState int32

const (
	StateIdle WorkerState = iota
	StateFiring
)

func (s WorkerState) String() string {
	if s == StateFiring {
		return "firing"
	}
	return "idle"
}

// PublishFunc posts the leaderboard; it is called at most once per UTC day
type PublishFunc func(ctx context.Context) error

// DailyLeaderboardWorker publishes the leaderboard once per UTC day at a
// fixed wall-clock time
type DailyLeaderboardWorker struct {
	hour    int
	minute  int
	publish PublishFunc
	clock   Clock

	state     atomic.Int32
	mu        sync.Mutex
	lastFired string
}

// NewDailyLeaderboardWorker creates a worker firing at hour:minute UTC
func NewDailyLeaderboardWorker(hour, minute int, publish PublishFunc, clock Clock) *DailyLeaderboardWorker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DailyLeaderboardWorker{
		hour:    hour,
		minute:  minute,
		publish: publish,
		clock:   clock,
	}
}

// NextRun returns the first hour:minute UTC instant strictly after now
func NextRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// State reports whether a publication is in progress
func (w *DailyLeaderboardWorker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Start begins the worker goroutine and returns a cleanup function that
// stops it and waits for it to exit
func (w *DailyLeaderboardWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.Infof("Daily leaderboard worker started, posting at %02d:%02d UTC", w.hour, w.minute)

		for {
			// Recompute from the wall clock every cycle so waits never accumulate drift
			now := w.clock.Now().UTC()
			next := NextRun(now, w.hour, w.minute)
			log.Debugf("Daily leaderboard worker waiting %v until next run", next.Sub(now))

			select {
			case <-ctx.Done():
				log.Info("Daily leaderboard worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Daily leaderboard worker shutting down (stop requested)...")
				return
			case <-w.clock.After(next.Sub(now)):
				w.fire(ctx, next)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopChan) })
		<-done
	}
}

// fire runs one publication for the scheduled instant unless that UTC day
// already fired or the wake-up came too late to belong to it
func (w *DailyLeaderboardWorker) fire(ctx context.Context, scheduled time.Time) bool {
	now := w.clock.Now().UTC()
	day := scheduled.Format(time.DateOnly)

	if now.Format(time.DateOnly) != day {
		log.WithFields(log.Fields{
			"scheduled": scheduled,
			"woke_at":   now,
		}).Warn("Skipping missed daily leaderboard post")
		return false
	}

	w.mu.Lock()
	if w.lastFired == day {
		w.mu.Unlock()
		return false
	}
	w.lastFired = day
	w.mu.Unlock()

	w.state.Store(int32(StateFiring))
	defer w.state.Store(int32(StateIdle))

	start := w.clock.Now()
	if err := w.publish(ctx); err != nil {
		log.WithError(err).WithField("day", day).Error("Error posting daily leaderboard")
		return true
	}

	log.WithFields(log.Fields{
		"day":             day,
		"processing_time": w.clock.Now().Sub(start),
	}).Info("Daily leaderboard posted")
	return true
}
