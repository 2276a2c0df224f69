package correlate

import (
	"errors"
	"testing"
	"time"
)

func newTestCorrelator(t *testing.T) (*Correlator, *time.Time) {
	t.Helper()
	c := New()
	now := time.Unix(1700000000, 0)
	c.clock = func() time.Time { return now }
	return c, &now
}

func TestIssueAndResolve(t *testing.T) {
	c, _ := newTestCorrelator(t)
	tk, err := c.Issue(KindLobbyJoin, "Bot", "Alice", "r1", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tk.Target != "alice" || tk.ID == "" {
		t.Fatalf("unexpected ticket: %+v", tk)
	}
	got, ok := c.Resolve("ALICE")
	if !ok || got.ID != tk.ID {
		t.Fatalf("Resolve mismatch: %+v ok=%v", got, ok)
	}
	if _, ok := c.Resolve("alice"); ok {
		t.Fatalf("ticket resolved twice")
	}
}

func TestDuplicatePendingRejected(t *testing.T) {
	c, _ := newTestCorrelator(t)
	if _, err := c.Issue(KindVizCard, "bot", "alice", "r1", ""); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Issue(KindAvatarOnly, "bot", "alice", "r1", ""); !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}
	// a different requester may wait on the same target
	if _, err := c.Issue(KindAvatarOnly, "carol", "alice", "r1", ""); err != nil {
		t.Fatalf("second requester rejected: %v", err)
	}
}

func TestResolveOldestFirst(t *testing.T) {
	c, now := newTestCorrelator(t)
	first, _ := c.Issue(KindShipCard, "bob", "alice", "r1", "s1")
	*now = now.Add(time.Second)
	if _, err := c.Issue(KindShipCard, "carol", "alice", "r1", "s2"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, ok := c.Resolve("alice")
	if !ok || got.ID != first.ID {
		t.Fatalf("expected the oldest ticket, got %+v", got)
	}
}

func TestSweepExpiresOldTickets(t *testing.T) {
	c, now := newTestCorrelator(t)
	if _, err := c.Issue(KindLobbyJoin, "bot", "alice", "r1", ""); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	*now = now.Add(2 * time.Minute)
	if _, err := c.Issue(KindLobbyJoin, "bot", "bob", "r1", ""); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired := c.Sweep(time.Minute)
	if len(expired) != 1 || expired[0].Target != "alice" {
		t.Fatalf("unexpected sweep: %+v", expired)
	}
	if c.PendingCount() != 1 {
		t.Fatalf("fresh ticket swept too")
	}
}
