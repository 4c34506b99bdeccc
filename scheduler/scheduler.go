// Package scheduler drives the relisting workflow on a recurring interval
// using a single-threaded polling loop. Ordering is a correctness
// requirement here: a run always completes before the schedule is
// re-evaluated, so runs can never overlap.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"gumtree-relister/config"
	"gumtree-relister/models"
)

const defaultPollInterval = time.Minute

// Runner executes one relist cycle. *relister.Relister satisfies it.
type Runner interface {
	RunOnce() models.RunOutcome
}

// Scheduler fires the runner immediately on start and then once per
// configured interval. A uniform-random jitter is drawn before every firing,
// including the first, so the automation never runs at a predictable time.
type Scheduler struct {
	runner    Runner
	interval  time.Duration
	jitterMin time.Duration
	jitterMax time.Duration
	pollEvery time.Duration
	log       *slog.Logger

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) bool
	jitter func() time.Duration
}

func New(runner Runner, cfg *config.Config, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		runner:    runner,
		interval:  cfg.RelistInterval,
		jitterMin: cfg.RandomDelayMin,
		jitterMax: cfg.RandomDelayMax,
		pollEvery: defaultPollInterval,
		log:       log,
		now:       time.Now,
		sleep:     sleepCtx,
	}
	s.jitter = s.drawJitter
	return s
}

// Start blocks until ctx is cancelled. Cancellation is honoured between
// sleep/poll segments only; a run in progress always completes first.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started",
		slog.Duration("interval", s.interval),
		slog.Duration("jitter_min", s.jitterMin),
		slog.Duration("jitter_max", s.jitterMax))

	nextDue := s.now()
	for {
		if ctx.Err() != nil {
			s.log.Info("scheduler stopped")
			return
		}

		if !s.now().Before(nextDue) {
			s.fire(ctx)
			nextDue = s.now().Add(s.interval)
			s.log.Info("next run scheduled", slog.Time("next_due", nextDue))
			continue
		}

		if !s.sleep(ctx, s.pollEvery) {
			s.log.Info("scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if delay := s.jitter(); delay > 0 {
		s.log.Info("applying random pre-run delay", slog.Duration("delay", delay))
		if !s.sleep(ctx, delay) {
			// Cancelled before the run started; nothing is in progress.
			return
		}
	}

	outcome := s.runner.RunOnce()
	if outcome.Succeeded {
		s.log.Info("scheduled run succeeded",
			slog.String("run_id", outcome.RunID),
			slog.Int("creation_attempts", outcome.CreationAttempts))
	} else {
		s.log.Error("scheduled run failed",
			slog.String("run_id", outcome.RunID),
			slog.String("failed_step", string(outcome.FailedStep)))
	}
}

// drawJitter returns a uniform-random duration in [jitterMin, jitterMax].
// Fixed firing times are a detectable automation signature; random ones
// look like a person.
func (s *Scheduler) drawJitter() time.Duration {
	diff := s.jitterMax - s.jitterMin
	if diff <= 0 {
		return s.jitterMin
	}
	return s.jitterMin + time.Duration(rand.Int63n(int64(diff)))
}

// sleepCtx sleeps for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
