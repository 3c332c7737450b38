// Package scheduler runs the digest job on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpec = "@every 6h"

// Job is one scheduled run. Its error is logged; the schedule goes on.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *zap.Logger

	// running serializes ticks so a slow run is never overlapped by the next one.
	running sync.Mutex
	wg      sync.WaitGroup
}

func New(spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	if spec == "" {
		spec = DefaultSpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}

	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		job:    job,
		logger: logger.Named("scheduler"),
	}, nil
}

// Start registers the job and starts the cron loop. With runNow the job also
// fires once immediately, in the background.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("schedule started", zap.String("spec", s.spec))

	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick(ctx)
		}()
	}
	return nil
}

// Stop stops scheduling and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("schedule stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	s.logger.Info("scheduled run started")
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled run finished")
}
