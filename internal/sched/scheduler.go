package sched

import (
	"context"
	"sync"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"go.uber.org/zap"
)

// Sweeper is one timer-driven job. Fast sweepers run on the turn cadence
// (seconds), slow sweepers on the staleness cadence (a minute or more).
// Implementations must be idempotent against sessions a concurrent path
// already deleted.
type Sweeper func(ctx context.Context)

// Scheduler drives the wall-clock transitions: turn warnings and
// eliminations, duel round timeouts, vote closes, staleness cleanup.
type Scheduler struct {
	fastEvery time.Duration
	slowEvery time.Duration

	fast []Sweeper
	slow []Sweeper

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(fastEvery, slowEvery time.Duration) *Scheduler {
	if fastEvery <= 0 {
		fastEvery = 2 * time.Second
	}
	if slowEvery <= 0 {
		slowEvery = time.Minute
	}
	return &Scheduler{
		fastEvery: fastEvery,
		slowEvery: slowEvery,
		stopCh:    make(chan struct{}),
	}
}

func (s *Scheduler) OnFast(fn Sweeper) { s.fast = append(s.fast, fn) }
func (s *Scheduler) OnSlow(fn Sweeper) { s.slow = append(s.slow, fn) }

// Start launches both loops. Register sweepers before calling.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.loop(ctx, s.fastEvery, s.fast, "fast")
	go s.loop(ctx, s.slowEvery, s.slow, "slow")
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, jobs []Sweeper, name string) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			for _, job := range jobs {
				s.runJob(ctx, job, name)
			}
		}
	}
}

// runJob isolates one sweep; a panicking job must not take the loop down.
func (s *Scheduler) runJob(ctx context.Context, job Sweeper, name string) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L().Error("sched_job_panic", zap.String("loop", name), zap.Any("panic", r))
		}
	}()
	job(ctx)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}
