package store

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStoreWithClient(rdb)
}

func TestWelcomeModeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if got := s.WelcomeMode(ctx, "r1"); got != WelcomeOff {
		t.Fatalf("default mode should be off, got %q", got)
	}
	if err := s.SetWelcomeMode(ctx, "r1", WelcomeDP); err != nil {
		t.Fatalf("SetWelcomeMode: %v", err)
	}
	if got := s.WelcomeMode(ctx, "r1"); got != WelcomeDP {
		t.Fatalf("mode not persisted, got %q", got)
	}
	if err := s.SetWelcomeMode(ctx, "r1", "loud"); err == nil {
		t.Fatalf("invalid mode accepted")
	}
}

func TestGreetingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok := s.Greeting(ctx, "alice"); ok {
		t.Fatalf("greeting should be absent")
	}
	if err := s.SetGreeting(ctx, "Alice", "yo yo"); err != nil {
		t.Fatalf("SetGreeting: %v", err)
	}
	got, ok := s.Greeting(ctx, "ALICE")
	if !ok || got != "yo yo" {
		t.Fatalf("greeting mismatch: %q ok=%v", got, ok)
	}
}

func TestStatsBump(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RecordDuelWin(ctx, "alice"); err != nil {
		t.Fatalf("RecordDuelWin: %v", err)
	}
	if err := s.RecordDuelWin(ctx, "alice"); err != nil {
		t.Fatalf("RecordDuelWin: %v", err)
	}
	if err := s.RecordBoardWin(ctx, "Alice"); err != nil {
		t.Fatalf("RecordBoardWin: %v", err)
	}
	st, err := s.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.DuelWins != 2 || st.BoardWins != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.UpdatedAt.IsZero() {
		t.Fatalf("UpdatedAt not stamped")
	}
}

func TestDisabledStoreDegrades(t *testing.T) {
	s, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()
	if got := s.WelcomeMode(ctx, "r1"); got != WelcomeOff {
		t.Fatalf("disabled store should read defaults, got %q", got)
	}
	if err := s.RecordDuelWin(ctx, "alice"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, err := s.Stats(ctx, "alice"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
