package sched

import (
	"context"
	"testing"
	"time"
)

func TestFastSweeperRuns(t *testing.T) {
	s := New(10*time.Millisecond, time.Hour)
	ran := make(chan struct{}, 1)
	s.OnFast(func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("fast sweeper never ran")
	}
}

func TestPanickingJobDoesNotKillLoop(t *testing.T) {
	s := New(10*time.Millisecond, time.Hour)
	s.OnFast(func(ctx context.Context) { panic("boom") })
	ran := make(chan struct{}, 1)
	s.OnFast(func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop died after a panicking job")
	}
}

func TestStopTerminatesLoops(t *testing.T) {
	s := New(5*time.Millisecond, time.Hour)
	s.OnFast(func(ctx context.Context) {})
	s.Start(context.Background())
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return")
	}
}
