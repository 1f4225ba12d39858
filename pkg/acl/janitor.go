package acl

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pagemark/access/pkg/observability"
)

// Janitor periodically purges expired grants. Expired rows are already
// invisible to lookups, so the sweep is pure housekeeping and can run on a
// relaxed schedule.
type Janitor struct {
	store        *GrantStore
	cron         *cron.Cron
	log          *observability.Logger
	metrics      *Metrics
	sweepTimeout time.Duration
}

// NewJanitor schedules the sweep with a standard cron expression
// (for example "*/30 * * * *" for every half hour). log and metrics may be
// nil.
func NewJanitor(store *GrantStore, schedule string, log *observability.Logger, metrics *Metrics) (*Janitor, error) {
	if log == nil {
		log = observability.NopLogger()
	}

	j := &Janitor{
		store:        store,
		cron:         cron.New(),
		log:          log,
		metrics:      metrics,
		sweepTimeout: 30 * time.Second,
	}

	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, &BadRequestError{Field: "schedule", Value: schedule, Reason: err.Error()}
	}
	return j, nil
}

// Start begins the schedule in its own goroutine.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.sweepTimeout)
	defer cancel()

	purged, err := j.store.PurgeExpired(ctx)
	if err != nil {
		j.log.WithError(err).Warn("expired-grant sweep failed")
		return
	}
	j.metrics.observePurged(purged)
	if purged > 0 {
		j.log.WithField("purged", purged).Info("purged expired grants")
	}
}
