package in

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	syncin "sacredsound/internal/modules/sync/port/in"
	"sacredsound/internal/platform/logger"
)

// Scheduler keeps the queue moving in long-running processes: it probes
// the backend while it is unreachable and drains while entries are pending.
type Scheduler struct {
	log   *logger.Logger
	sched gocron.Scheduler
}

func NewScheduler(log *logger.Logger, usecase syncin.Usecase, probeEvery, drainEvery time.Duration) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if probeEvery <= 0 || drainEvery <= 0 {
		return nil, fmt.Errorf("scheduler intervals must be positive")
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{log: log.With("component", "SyncScheduler"), sched: sched}

	_, err = sched.NewJob(
		gocron.DurationJob(probeEvery),
		gocron.NewTask(func() {
			ctx := context.Background()
			status := usecase.Status(ctx)
			if !status.Online || status.BackendAvailable {
				return
			}
			if usecase.Probe(ctx).BackendAvailable {
				s.log.Info("backend reachable again")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule probe job: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(drainEvery),
		gocron.NewTask(func() {
			ctx := context.Background()
			status := usecase.Status(ctx)
			if status.Pending == 0 || !status.BackendAvailable {
				return
			}
			out, err := usecase.Flush(ctx)
			if err != nil {
				s.log.Error("scheduled drain failed", "error", err)
				return
			}
			s.log.Debug("scheduled drain", "applied", out.Applied, "remaining", out.Remaining)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule drain job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
