package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/logger"
)

// DefaultPollInterval is how often the scheduler compares the clock against
// the next trigger while waiting.
const DefaultPollInterval = 60 * time.Second

const scheduleTimeLayout = "15:04"

// RunFunc is one full pipeline invocation.
type RunFunc func(ctx context.Context) (Summary, error)

// Scheduler is a two-state supervisor around the pipeline: it idles until
// the configured time of day, invokes exactly one synchronous run, and
// reschedules for the next day. Because the run is synchronous, no two runs
// can overlap; a trigger that would fire while a run is still active is
// simply missed, never queued.
type Scheduler struct {
	at           string
	pollInterval time.Duration
	run          RunFunc
	log          *logger.Logger
	now          func() time.Time
}

// NewScheduler creates a daily scheduler firing at the given HH:MM local
// time.
func NewScheduler(at string, run RunFunc, log *logger.Logger) *Scheduler {
	return &Scheduler{
		at:           at,
		pollInterval: DefaultPollInterval,
		run:          run,
		log:          log,
		now:          time.Now,
	}
}

// Start blocks, alternating between waiting for the next trigger and running
// the pipeline, until the context is cancelled. A failed run is logged and
// the daemon keeps waiting for the next trigger; the pipeline itself stays
// stateless between invocations.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		next, err := NextTrigger(s.now(), s.at)
		if err != nil {
			return err
		}

		s.log.Info("Next run scheduled for %s", next.Format(time.RFC1123))

		err = s.waitUntil(ctx, next)
		if err != nil {
			return err
		}

		summary, runErr := s.run(ctx)
		if runErr != nil {
			s.log.Error("Scheduled run failed: %v", runErr)

			continue
		}

		s.log.Info("Scheduled run %s completed with %d failures", summary.RunID, summary.Failures)
	}
}

// waitUntil polls the clock at the configured interval until the deadline
// passes or the context is cancelled.
func (s *Scheduler) waitUntil(ctx context.Context, deadline time.Time) error {
	for {
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return nil
		}

		wait := s.pollInterval
		if remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return fmt.Errorf("scheduler stopped: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// NextTrigger returns the next occurrence of the HH:MM wall-clock time
// strictly after now, in now's location. A trigger time already passed today
// resolves to tomorrow.
func NextTrigger(now time.Time, at string) (time.Time, error) {
	parsed, err := time.Parse(scheduleTimeLayout, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", at, err)
	}

	candidate := time.Date(
		now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0,
		now.Location(),
	)

	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return candidate, nil
}
