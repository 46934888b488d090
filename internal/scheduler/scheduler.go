// Package scheduler drives recurring payment posting runs.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"budgetify/internal/ledger"
)

// ErrRunInProgress is returned by Tick when another run holds the lock.
var ErrRunInProgress = errors.New("scheduler: posting run already in progress")

// Poster runs one posting pass for the day containing now.
type Poster interface {
	PostDueDefinitions(ctx context.Context, now time.Time) ([]ledger.PostResult, error)
}

// Summary describes one completed posting run.
type Summary struct {
	RunAt    time.Time           `json:"run_at"`
	Posted   int                 `json:"posted"`
	Failed   int                 `json:"failed"`
	Skipped  int                 `json:"skipped"`
	Duration time.Duration       `json:"duration"`
	Results  []ledger.PostResult `json:"-"`
}

// Scheduler triggers posting runs, one at a time.
type Scheduler struct {
	poster Poster
	locker Locker
	clock  func() time.Time
	log    *zap.SugaredLogger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock used by Start.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithLocker replaces the default process-local run lock.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// New creates a Scheduler for poster.
func New(poster Poster, log *zap.SugaredLogger, opts ...Option) *Scheduler {
	s := &Scheduler{
		poster: poster,
		locker: NewMemoryLocker(),
		clock:  time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock()
}

// Tick runs one posting pass for the day containing now.
//
// The returned summary is non-nil whenever the poster ran, including runs
// aborted because the store became unavailable.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (*Summary, error) {
	unlock, err := s.locker.TryLock(ctx)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			return nil, ErrRunInProgress
		}
		return nil, err
	}
	defer unlock()

	start := time.Now()
	results, err := s.poster.PostDueDefinitions(ctx, now)
	summary := summarize(now, results)
	summary.Duration = time.Since(start)

	if err != nil {
		s.log.Errorw("posting run aborted",
			"run_at", now,
			"posted", summary.Posted,
			"failed", summary.Failed,
			"error", err,
		)
		return summary, err
	}

	s.log.Infow("posting run completed",
		"run_at", now,
		"posted", summary.Posted,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration.String(),
	)
	return summary, nil
}

// Start runs Tick immediately and then every interval until ctx is done.
// Failed or skipped ticks are logged and the loop keeps going.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Infow("scheduler started", "interval", interval.String())
	s.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	if _, err := s.Tick(ctx, s.clock()); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.log.Info("posting run skipped, another run holds the lock")
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.log.Errorw("posting run failed", "error", err)
	}
}

func summarize(now time.Time, results []ledger.PostResult) *Summary {
	summary := &Summary{RunAt: now, Results: results}
	for _, r := range results {
		switch r.Status {
		case ledger.PostStatusPosted:
			summary.Posted++
		case ledger.PostStatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	return summary
}
