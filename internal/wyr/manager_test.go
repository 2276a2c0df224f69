package wyr

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	m := NewManager(time.Minute)
	now := time.Unix(1700000000, 0)
	m.clock = func() time.Time { return now }
	m.intn = func(n int) int { return 0 }
	return m, &now
}

func TestOpenOncePerRoom(t *testing.T) {
	m, _ := newTestManager(t)
	g, err := m.Open("r1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if g.OptionA == "" || g.OptionB == "" {
		t.Fatalf("empty question: %+v", g)
	}
	if _, err := m.Open("r1"); err != ErrVoteRunning {
		t.Fatalf("expected ErrVoteRunning, got %v", err)
	}
	if _, err := m.Open("r2"); err != nil {
		t.Fatalf("second room blocked: %v", err)
	}
}

func TestVotesAreChangeable(t *testing.T) {
	m, now := newTestManager(t)
	if _, err := m.Open("r1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !m.Vote("r1", "Alice", "a") {
		t.Fatalf("lowercase vote rejected")
	}
	if m.Vote("r1", "Alice", "maybe B?") {
		t.Fatalf("chatter counted as a vote")
	}
	if !m.Vote("r1", "alice", "B") {
		t.Fatalf("vote change rejected")
	}
	m.Vote("r1", "Bob", "B")

	*now = now.Add(61 * time.Second)
	results := m.Tick()
	if len(results) != 1 {
		t.Fatalf("expected one result, got %+v", results)
	}
	if results[0].CountA != 0 || results[0].CountB != 2 {
		t.Fatalf("change not applied: %+v", results[0])
	}
	// the result fires exactly once
	if results = m.Tick(); len(results) != 0 {
		t.Fatalf("result repeated: %+v", results)
	}
	if m.Vote("r1", "Alice", "A") {
		t.Fatalf("closed vote accepted a ballot")
	}
}

func TestVoteWindowHolds(t *testing.T) {
	m, now := newTestManager(t)
	if _, err := m.Open("r1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	*now = now.Add(30 * time.Second)
	if results := m.Tick(); len(results) != 0 {
		t.Fatalf("vote closed early: %+v", results)
	}
}
