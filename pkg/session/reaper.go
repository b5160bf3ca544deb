package session

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultReapSchedule runs the reaper every five minutes
const DefaultReapSchedule = "@every 5m"

// Purger drops stored sessions past their ttl
type Purger interface {
	Purge(now time.Time) int
}

// Reaper purges a memory store on a cron schedule. Redis expires keys itself.
type Reaper struct {
	purger  Purger
	cron    *cron.Cron
	logger  logrus.FieldLogger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewReaper schedules purger on schedule (standard cron or @every syntax)
func NewReaper(purger Purger, schedule string, logger logrus.FieldLogger, metrics *observability.Metrics) (*Reaper, error) {
	if schedule == "" {
		schedule = DefaultReapSchedule
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Reaper{
		purger:  purger,
		cron:    cron.New(),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce() }); err != nil {
		return nil, fmt.Errorf("failed to schedule session reaper: %w", err)
	}
	return r, nil
}

// Start begins the schedule in the background
func (r *Reaper) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running purge
func (r *Reaper) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce purges immediately and returns the number of removed sessions
func (r *Reaper) RunOnce() int {
	removed := r.purger.Purge(r.now())
	if removed > 0 {
		r.logger.WithField("removed", removed).Info("Reaped expired sessions")
	}
	r.metrics.RecordSessionsReaped(removed)
	return removed
}
