package duel

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// newTestManager pins intn to zero so the target is always the first
// alphabet emoji and streams are minimal.
func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	m := NewManager(DefaultConfig())
	fc := &fakeClock{now: time.Unix(1700000000, 0)}
	m.clock = fc.Now
	m.intn = func(n int) int { return 0 }
	return m, fc
}

func startDuel(t *testing.T, m *Manager, room string) {
	t.Helper()
	if err := m.Challenge(room, "Alice", "u1", "Bob"); err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if _, err := m.Accept(room, "Bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
}

// playRound runs prepare+reveal and has the named player catch the target.
func playRound(t *testing.T, m *Manager, room, catcher string) *CatchResult {
	t.Helper()
	plan, err := m.PrepareRound(room)
	if err != nil {
		t.Fatalf("PrepareRound: %v", err)
	}
	if _, ok := m.Reveal(room, plan.Round); !ok {
		t.Fatalf("Reveal rejected round %d", plan.Round)
	}
	res, ok := m.Catch(room, catcher, plan.Target)
	if !ok {
		t.Fatalf("Catch rejected for %s", catcher)
	}
	return res
}

func TestChallengeRules(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Challenge("r1", "Alice", "u1", "alice"); !errors.Is(err, ErrSelfDuel) {
		t.Fatalf("expected ErrSelfDuel, got %v", err)
	}
	if err := m.Challenge("r1", "Alice", "u1", "Bob"); err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if err := m.Challenge("r1", "Carol", "u3", "Dave"); !errors.Is(err, ErrDuelExists) {
		t.Fatalf("expected ErrDuelExists, got %v", err)
	}
	if _, err := m.Accept("r1", "Carol"); !errors.Is(err, ErrNotChallenged) {
		t.Fatalf("expected ErrNotChallenged, got %v", err)
	}
	if _, err := m.Accept("r1", "Alice"); !errors.Is(err, ErrNotChallenged) {
		t.Fatalf("challenger must not self-accept, got %v", err)
	}
}

func TestRoundCatchScores(t *testing.T) {
	m, _ := newTestManager(t)
	startDuel(t, m, "r1")

	plan, err := m.PrepareRound("r1")
	if err != nil {
		t.Fatalf("PrepareRound: %v", err)
	}
	if !strings.Contains(plan.Stream, plan.Target) {
		t.Fatalf("stream must contain the target: %q", plan.Stream)
	}
	// catches before the reveal are plain chatter
	if _, ok := m.Catch("r1", "Alice", plan.Target); ok {
		t.Fatalf("catch accepted before reveal")
	}
	if _, ok := m.Reveal("r1", plan.Round); !ok {
		t.Fatalf("Reveal failed")
	}
	// a stale reveal (goroutine raced a restart) is refused
	if _, ok := m.Reveal("r1", plan.Round); ok {
		t.Fatalf("second reveal of the same round accepted")
	}

	res, ok := m.Catch("r1", "Bob", plan.Target)
	if !ok {
		t.Fatalf("Catch: rejected")
	}
	if res.Caught.Score != 1 || res.S2 != 1 || res.Finished != nil {
		t.Fatalf("unexpected catch result: %+v", res)
	}
	// the round is closed, a second catch is chatter again
	if _, ok := m.Catch("r1", "Alice", plan.Target); ok {
		t.Fatalf("catch accepted after round closed")
	}
}

func TestOutsiderCannotCatch(t *testing.T) {
	m, _ := newTestManager(t)
	startDuel(t, m, "r1")
	plan, _ := m.PrepareRound("r1")
	m.Reveal("r1", plan.Round)
	if _, ok := m.Catch("r1", "Mallory", plan.Target); ok {
		t.Fatalf("outsider catch accepted")
	}
}

func TestFirstToTargetWins(t *testing.T) {
	m, _ := newTestManager(t)
	startDuel(t, m, "r1")
	var res *CatchResult
	for i := 0; i < 3; i++ {
		res = playRound(t, m, "r1", "Alice")
	}
	if res.Finished == nil || res.Finished.Winner.Key != "alice" || res.Finished.Reason != EndByScore {
		t.Fatalf("expected alice win by score, got %+v", res.Finished)
	}
	if m.Active("r1") {
		t.Fatalf("finished duel still present")
	}
}

func TestDecoyLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	startDuel(t, m, "r1")
	playRound(t, m, "r1", "Alice")

	if err := m.PlantFake("r1", "Bob"); !errors.Is(err, ErrNotFaker) {
		t.Fatalf("loser planted a decoy: %v", err)
	}
	if err := m.PlantFake("r1", "Alice"); err != nil {
		t.Fatalf("PlantFake: %v", err)
	}
	// the right is consumed on use
	if err := m.PlantFake("r1", "Alice"); !errors.Is(err, ErrNotFaker) {
		t.Fatalf("expected consumed right, got %v", err)
	}

	plan, err := m.PrepareRound("r1")
	if err != nil {
		t.Fatalf("PrepareRound: %v", err)
	}
	if !strings.Contains(plan.Stream, DecoyEmoji) {
		t.Fatalf("armed decoy missing from stream: %q", plan.Stream)
	}
	m.Reveal("r1", plan.Round)

	res, ok := m.Catch("r1", "Bob", DecoyEmoji)
	if !ok || !res.FakeCaught {
		t.Fatalf("decoy catch not recognized: %+v", res)
	}
	if res.S1 != 1 || res.S2 != 0 {
		t.Fatalf("decoy catch must not score: %+v", res)
	}
}

func TestTieAtMaxRounds(t *testing.T) {
	m, fc := newTestManager(t)
	startDuel(t, m, "r1")

	var finished *Result
	for i := 0; i < 5; i++ {
		plan, err := m.PrepareRound("r1")
		if err != nil {
			t.Fatalf("PrepareRound %d: %v", i+1, err)
		}
		m.Reveal("r1", plan.Round)
		fc.Advance(9 * time.Second)
		events := m.Tick()
		if len(events) != 1 || events[0].Kind != TickRoundTimeout {
			t.Fatalf("expected round timeout, got %+v", events)
		}
		finished = events[0].Finished
	}
	if finished == nil || !finished.Tie {
		t.Fatalf("expected tie after max rounds, got %+v", finished)
	}
}

func TestCancelNeedsBothSides(t *testing.T) {
	m, _ := newTestManager(t)
	startDuel(t, m, "r1")
	both, err := m.RequestCancel("r1", "Alice")
	if err != nil || both {
		t.Fatalf("first cancel should not end the duel: both=%v err=%v", both, err)
	}
	both, err = m.RequestCancel("r1", "Bob")
	if err != nil || !both {
		t.Fatalf("second cancel should end the duel: both=%v err=%v", both, err)
	}
	if m.Active("r1") {
		t.Fatalf("cancelled duel still present")
	}
}

func TestForfeitOnLeave(t *testing.T) {
	m, _ := newTestManager(t)
	startDuel(t, m, "r1")
	res, gone := m.PlayerLeft("r1", "Alice")
	if !gone || res == nil {
		t.Fatalf("expected forfeit result")
	}
	if res.Winner.Key != "bob" || res.Reason != EndByForfeit {
		t.Fatalf("unexpected forfeit: %+v", res)
	}
}

func TestIdleDuelCancelledOnce(t *testing.T) {
	m, fc := newTestManager(t)
	startDuel(t, m, "r1")
	fc.Advance(6 * time.Minute)
	events := m.Tick()
	if len(events) != 1 || events[0].Kind != TickIdleCancel {
		t.Fatalf("expected one idle cancel, got %+v", events)
	}
	if events[0].P1.Key != "alice" || events[0].P2.Key != "bob" {
		t.Fatalf("idle cancel must name both parties: %+v", events[0])
	}
	if m.Active("r1") {
		t.Fatalf("idle duel still present")
	}
	if events := m.Tick(); len(events) != 0 {
		t.Fatalf("second sweep produced events: %+v", events)
	}
}

func TestPendingChallengeExpires(t *testing.T) {
	m, fc := newTestManager(t)
	if err := m.Challenge("r1", "Alice", "u1", "Bob"); err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	fc.Advance(6 * time.Minute)
	events := m.Tick()
	if len(events) != 1 || events[0].Kind != TickPendingExpired {
		t.Fatalf("expected pending expiry, got %+v", events)
	}
	if m.Active("r1") {
		t.Fatalf("expired challenge still present")
	}
}
