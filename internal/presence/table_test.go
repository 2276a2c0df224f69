package presence

import (
	"testing"
	"time"
)

func newTestTable(t *testing.T) (*Table, *time.Time) {
	t.Helper()
	tb := NewTable()
	now := time.Unix(1700000000, 0)
	tb.clock = func() time.Time { return now }
	return tb, &now
}

func TestReplaceRoomPreservesJoinTimes(t *testing.T) {
	tb, now := newTestTable(t)
	tb.Join("r1", "Lounge", "Alice", "u1")
	joined := *now

	*now = now.Add(time.Hour)
	tb.ReplaceRoom("r1", "Lounge", []Member{
		{Username: "Alice", UserID: "u1"},
		{Username: "Bob", UserID: "u2"},
	})

	a, ok := tb.Get("r1", "alice")
	if !ok || !a.JoinTime.Equal(joined) {
		t.Fatalf("existing join time lost: %+v", a)
	}
	b, ok := tb.Get("r1", "bob")
	if !ok || !b.JoinTime.Equal(*now) {
		t.Fatalf("new member join time wrong: %+v", b)
	}

	// members absent from the snapshot are dropped
	tb.ReplaceRoom("r1", "Lounge", []Member{{Username: "Bob", UserID: "u2"}})
	if _, ok := tb.Get("r1", "alice"); ok {
		t.Fatalf("departed member survived roster replace")
	}
}

func TestTouchInsertsUnknownUsers(t *testing.T) {
	tb, now := newTestTable(t)
	tb.Touch("r1", "Ghost", "u9", "hello")
	e, ok := tb.Get("r1", "ghost")
	if !ok {
		t.Fatalf("touched user missing")
	}
	if e.LastMessage != "hello" || !e.LastMessageTime.Equal(*now) {
		t.Fatalf("message not recorded: %+v", e)
	}
}

func TestLeaveAndRoomScoping(t *testing.T) {
	tb, _ := newTestTable(t)
	tb.Join("r1", "Lounge", "Alice", "u1")
	tb.Join("r2", "Arcade", "Alice", "u1")
	tb.Leave("r1", "alice")
	if _, ok := tb.Get("r1", "alice"); ok {
		t.Fatalf("leave did not remove entry")
	}
	if _, ok := tb.Get("r2", "alice"); !ok {
		t.Fatalf("leave bled into another room")
	}
}

func TestRoomMembersSorted(t *testing.T) {
	tb, _ := newTestTable(t)
	tb.Join("r1", "Lounge", "zed", "u3")
	tb.Join("r1", "Lounge", "Amy", "u1")
	tb.Join("r1", "Lounge", "mia", "u2")
	got := tb.RoomMembers("r1")
	if len(got) != 3 || got[0].Username != "Amy" || got[2].Username != "zed" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
