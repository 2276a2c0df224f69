package session

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s := NewStore(3, 10*time.Minute)
	now := time.Unix(1700000000, 0)
	s.clock = func() time.Time { return now }
	return s, &now
}

func TestSearchCursorPaging(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetSearch("Alice", "cats", []string{"u1", "u2"})

	url, cur, ok, exhausted := s.NextSearch("alice")
	if !ok || exhausted || url != "u1" || cur.Index != 1 {
		t.Fatalf("first page wrong: url=%q cur=%+v", url, cur)
	}
	url, _, ok, exhausted = s.NextSearch("alice")
	if !ok || exhausted || url != "u2" {
		t.Fatalf("second page wrong: url=%q", url)
	}
	_, cur, ok, exhausted = s.NextSearch("alice")
	if !ok || !exhausted || cur.Query != "cats" {
		t.Fatalf("expected exhaustion, got ok=%v exhausted=%v", ok, exhausted)
	}
	// exhausted cursor is gone
	if _, _, ok, _ = s.NextSearch("alice"); ok {
		t.Fatalf("cursor survived exhaustion")
	}
}

func TestShipSessionCompletes(t *testing.T) {
	s, _ := newTestStore(t)
	sh := s.NewShip("r1", "carol", "Alice", "Bob")

	if _, found, complete := s.ApplyShipAvatar(sh.ID, "alice", "http://a"); !found || complete {
		t.Fatalf("one avatar should not complete the ship")
	}
	got, found, complete := s.ApplyShipAvatar(sh.ID, "bob", "http://b")
	if !found || !complete {
		t.Fatalf("two avatars should complete the ship")
	}
	if got.AvatarA != "http://a" || got.AvatarB != "http://b" {
		t.Fatalf("avatars misplaced: %+v", got)
	}
	if _, found, _ := s.ApplyShipAvatar(sh.ID, "alice", "x"); found {
		t.Fatalf("completed ship still present")
	}
}

func TestMemoryWindow(t *testing.T) {
	s, now := newTestStore(t)
	for _, msg := range []string{"one", "two", "three", "four"} {
		s.Remember("alice", msg)
	}
	got := s.Recall("alice")
	if len(got) != 3 || got[0] != "two" || got[2] != "four" {
		t.Fatalf("limit not enforced: %v", got)
	}
	*now = now.Add(11 * time.Minute)
	if got = s.Recall("alice"); len(got) != 0 {
		t.Fatalf("stale memory survived: %v", got)
	}
}

func TestCooldownStampsOnSuccess(t *testing.T) {
	s, now := newTestStore(t)
	if !s.CooldownOK("alice", 5*time.Second) {
		t.Fatalf("first call should pass")
	}
	if s.CooldownOK("alice", 5*time.Second) {
		t.Fatalf("second immediate call should be blocked")
	}
	if !s.CooldownOK("bob", 5*time.Second) {
		t.Fatalf("cooldowns must be per user")
	}
	*now = now.Add(6 * time.Second)
	if !s.CooldownOK("alice", 5*time.Second) {
		t.Fatalf("cooldown should have elapsed")
	}
}

func TestSweepDropsStaleState(t *testing.T) {
	s, now := newTestStore(t)
	s.SetSearch("alice", "cats", []string{"u1"})
	s.NewShip("r1", "carol", "a", "b")
	s.Remember("dave", "hello")

	*now = now.Add(30 * time.Minute)
	s.Sweep(5*time.Minute, 10*time.Minute)

	if _, _, ok, _ := s.NextSearch("alice"); ok {
		t.Fatalf("stale search cursor survived")
	}
	if len(s.ships) != 0 {
		t.Fatalf("stale ship session survived")
	}
	if got := s.Recall("dave"); len(got) != 0 {
		t.Fatalf("stale memory survived: %v", got)
	}
}
