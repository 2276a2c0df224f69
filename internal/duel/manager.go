package duel

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"go.uber.org/zap"
)

// emojiAlphabet are the catchable targets. The decoy is reserved and never
// picked as a target.
var emojiAlphabet = []string{"🎯", "🚀", "🌟", "💡", "⚡️", "🤖", "👻", "👾", "🔥", "❤️", "😂", "👍", "💯"}

const DecoyEmoji = "💣"

type Config struct {
	TargetScore int
	MaxRounds   int
	CatchWindow time.Duration
	RevealMin   time.Duration
	RevealMax   time.Duration
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TargetScore: 3,
		MaxRounds:   5,
		CatchWindow: 8 * time.Second,
		RevealMin:   2500 * time.Millisecond,
		RevealMax:   4 * time.Second,
		IdleTimeout: 5 * time.Minute,
	}
}

// Manager owns every duel. The lock is never held across the reveal delay
// or the catch window; those are wall-clock deadlines checked under the
// lock when something happens.
type Manager struct {
	mu    sync.Mutex
	games map[string]*Game
	cfg   Config

	clock func() time.Time
	intn  func(n int) int
}

func NewManager(cfg Config) *Manager {
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = 3
	}
	if cfg.MaxRounds < cfg.TargetScore {
		cfg.MaxRounds = cfg.TargetScore*2 - 1
	}
	return &Manager{
		games: make(map[string]*Game),
		cfg:   cfg,
		clock: time.Now,
		intn:  rand.Intn,
	}
}

func partyKey(u string) string { return strings.ToLower(strings.TrimSpace(u)) }

// Challenge opens a pending duel awaiting the target's accept.
func (m *Manager) Challenge(roomID, challenger, challengerID, target string) error {
	ck, tk := partyKey(challenger), partyKey(target)
	if roomID == "" || ck == "" || tk == "" {
		return ErrInvalidArgs
	}
	if ck == tk {
		return ErrSelfDuel
	}
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[roomID]; exists {
		return ErrDuelExists
	}
	m.games[roomID] = &Game{
		RoomID:         roomID,
		Status:         StatusPending,
		P1:             PlayerScore{Name: challenger, Key: ck, UserID: challengerID},
		P2:             PlayerScore{Name: target, Key: tk},
		CancelRequests: make(map[string]bool),
		CreatedAt:      now,
		LastActivity:   now,
	}
	obslog.L().Info("duel_challenge", zap.String("room", roomID), zap.String("p1", ck), zap.String("p2", tk))
	return nil
}

// ApplyAvatar attaches a resolved profile to whichever side it belongs to.
// Silent no-op when the duel is gone.
func (m *Manager) ApplyAvatar(roomID, username, userID, avatarURL string) {
	k := partyKey(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return
	}
	switch k {
	case g.P1.Key:
		g.P1.UserID, g.P1.AvatarURL = userID, avatarURL
	case g.P2.Key:
		g.P2.UserID, g.P2.AvatarURL = userID, avatarURL
	}
}

// Accept activates a pending duel. Only the challenged side may accept.
func (m *Manager) Accept(roomID, username string) (*AcceptResult, error) {
	k := partyKey(username)
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, ErrNoDuel
	}
	if g.Status != StatusPending {
		return nil, ErrNotPending
	}
	if k != g.P2.Key {
		return nil, ErrNotChallenged
	}
	g.Status = StatusActive
	g.LastActivity = now
	obslog.L().Info("duel_accept", zap.String("room", roomID))
	return &AcceptResult{P1: g.P1, P2: g.P2}, nil
}

// PrepareRound fixes the next round's target and stream. The driving
// goroutine announces, sleeps the reveal delay, then calls Reveal.
func (m *Manager) PrepareRound(roomID string) (*RoundPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, ErrNoDuel
	}
	if g.Status != StatusActive {
		return nil, ErrNotActive
	}
	if g.Phase != phaseIdle {
		return nil, ErrRoundRunning
	}
	g.Round++
	g.Target = emojiAlphabet[m.intn(len(emojiAlphabet))]
	g.Stream = m.buildStream(g.Target, g.FakeArmed)
	g.FakeArmed = false
	g.Phase = phasePrepared

	spread := int(m.cfg.RevealMax - m.cfg.RevealMin)
	delay := m.cfg.RevealMin
	if spread > 0 {
		delay += time.Duration(m.intn(spread))
	}
	return &RoundPlan{Round: g.Round, Target: g.Target, Stream: g.Stream, RevealDelay: delay}, nil
}

// Reveal opens the catch window for the given round. Returns false when
// the duel ended or restarted while the goroutine was sleeping.
func (m *Manager) Reveal(roomID string, round int) (string, bool) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok || g.Status != StatusActive || g.Phase != phasePrepared || g.Round != round {
		return "", false
	}
	g.Phase = phaseRevealed
	g.Deadline = now.Add(m.cfg.CatchWindow)
	g.LastActivity = now
	return g.Stream, true
}

// Catch processes one message as a catch attempt. Anything that does not
// qualify returns (nil, false) so the router can ignore plain chatter.
func (m *Manager) Catch(roomID, username, text string) (*CatchResult, bool) {
	k := partyKey(username)
	body := strings.TrimSpace(text)
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok || g.Status != StatusActive || g.Phase != phaseRevealed {
		return nil, false
	}
	if k != g.P1.Key && k != g.P2.Key {
		return nil, false
	}

	var catcher *PlayerScore
	if k == g.P1.Key {
		catcher = &g.P1
	} else {
		catcher = &g.P2
	}

	if g.HasFake() && body == DecoyEmoji {
		g.Phase = phaseIdle
		g.FakeRightTo = ""
		g.LastActivity = now
		res := &CatchResult{Caught: *catcher, Emoji: DecoyEmoji, FakeCaught: true, S1: g.P1.Score, S2: g.P2.Score}
		res.Finished = m.maybeFinishLocked(g)
		return res, true
	}

	if body != g.Target {
		return nil, false
	}

	catcher.Score++
	g.Phase = phaseIdle
	g.FakeRightTo = catcher.Key
	g.LastActivity = now
	obslog.L().Info("duel_round_win",
		zap.String("room", roomID),
		zap.String("winner", catcher.Key),
		zap.Int("round", g.Round))

	res := &CatchResult{Caught: *catcher, Emoji: g.Target, S1: g.P1.Score, S2: g.P2.Score}
	res.Finished = m.maybeFinishLocked(g)
	return res, true
}

// PlantFake arms the decoy for the next round. Only the previous round's
// winner holds the right, and it is consumed on use.
func (m *Manager) PlantFake(roomID, username string) error {
	k := partyKey(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return ErrNoDuel
	}
	if g.Status != StatusActive {
		return ErrNotActive
	}
	if g.Phase != phaseIdle {
		return ErrRoundRunning
	}
	if g.FakeRightTo == "" || g.FakeRightTo != k {
		return ErrNotFaker
	}
	if g.FakeArmed {
		return ErrFakeUsed
	}
	g.FakeArmed = true
	g.FakeRightTo = ""
	g.LastActivity = m.clock()
	return nil
}

// RequestCancel records one side's cancel vote. The duel dies only when
// both sides agree.
func (m *Manager) RequestCancel(roomID, username string) (bothAgreed bool, err error) {
	k := partyKey(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return false, ErrNoDuel
	}
	if k != g.P1.Key && k != g.P2.Key {
		return false, ErrNotParty
	}
	g.CancelRequests[k] = true
	g.LastActivity = m.clock()
	if g.CancelRequests[g.P1.Key] && g.CancelRequests[g.P2.Key] {
		delete(m.games, roomID)
		obslog.L().Info("duel_cancel", zap.String("room", roomID))
		return true, nil
	}
	return false, nil
}

// PlayerLeft forfeits the leaver. Pending duels simply evaporate.
func (m *Manager) PlayerLeft(roomID, username string) (*Result, bool) {
	k := partyKey(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, false
	}
	if k != g.P1.Key && k != g.P2.Key {
		return nil, false
	}
	delete(m.games, roomID)
	if g.Status != StatusActive {
		return nil, true
	}
	winner, loser := g.P2, g.P1
	if k == g.P2.Key {
		winner, loser = g.P1, g.P2
	}
	obslog.L().Info("duel_forfeit", zap.String("room", roomID), zap.String("leaver", k))
	return &Result{RoomID: roomID, Reason: EndByForfeit, Winner: winner, Loser: loser, P1: g.P1, P2: g.P2}, true
}

// Tick fires pending expiry, idle cancellation and round timeouts.
func (m *Manager) Tick() []TickEvent {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []TickEvent
	for roomID, g := range m.games {
		switch {
		case g.Status == StatusPending && now.Sub(g.CreatedAt) > m.cfg.IdleTimeout:
			delete(m.games, roomID)
			events = append(events, TickEvent{RoomID: roomID, Kind: TickPendingExpired, P1: g.P1, P2: g.P2})
		case g.Status == StatusActive && now.Sub(g.LastActivity) > m.cfg.IdleTimeout:
			delete(m.games, roomID)
			events = append(events, TickEvent{RoomID: roomID, Kind: TickIdleCancel, P1: g.P1, P2: g.P2})
			obslog.L().Info("duel_idle_cancel", zap.String("room", roomID))
		case g.Status == StatusActive && g.Phase == phaseRevealed && now.After(g.Deadline):
			g.Phase = phaseIdle
			g.FakeRightTo = ""
			g.LastActivity = now
			ev := TickEvent{RoomID: roomID, Kind: TickRoundTimeout, Emoji: g.Target, P1: g.P1, P2: g.P2}
			ev.Finished = m.maybeFinishLocked(g)
			events = append(events, ev)
		}
	}
	return events
}

// Active reports whether the room has a live duel (any status).
func (m *Manager) Active(roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.games[roomID]
	return ok
}

// maybeFinishLocked checks the termination rules after a round closed.
// A full-distance score tie is announced as a tie, not a winner.
func (m *Manager) maybeFinishLocked(g *Game) *Result {
	reachedScore := g.P1.Score >= m.cfg.TargetScore || g.P2.Score >= m.cfg.TargetScore
	if !reachedScore && g.Round < m.cfg.MaxRounds {
		return nil
	}
	res := &Result{RoomID: g.RoomID, P1: g.P1, P2: g.P2}
	switch {
	case g.P1.Score == g.P2.Score:
		res.Tie = true
		res.Reason = EndByRounds
	case g.P1.Score > g.P2.Score:
		res.Winner, res.Loser = g.P1, g.P2
		res.Reason = EndByRounds
	default:
		res.Winner, res.Loser = g.P2, g.P1
		res.Reason = EndByRounds
	}
	if reachedScore {
		res.Reason = EndByScore
	}
	delete(m.games, g.RoomID)
	obslog.L().Info("duel_over",
		zap.String("room", g.RoomID),
		zap.Int("s1", g.P1.Score),
		zap.Int("s2", g.P2.Score),
		zap.Bool("tie", res.Tie))
	return res
}

// buildStream interleaves 10-15 distractors with the target (and decoy
// when armed) at random interior positions.
func (m *Manager) buildStream(target string, withFake bool) string {
	pool := make([]string, 0, len(emojiAlphabet)-1)
	for _, e := range emojiAlphabet {
		if e != target {
			pool = append(pool, e)
		}
	}
	n := 10 + m.intn(6)
	out := make([]string, 0, n+2)
	for i := 0; i < n; i++ {
		out = append(out, pool[m.intn(len(pool))])
	}
	out = insertInterior(out, target, m.intn)
	if withFake {
		out = insertInterior(out, DecoyEmoji, m.intn)
	}
	return strings.Join(out, " ")
}

func insertInterior(s []string, v string, intn func(int) int) []string {
	pos := 1
	if len(s) > 2 {
		pos = 1 + intn(len(s)-2)
	}
	s = append(s, "")
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

// HasFake reports whether the current stream carries the decoy.
func (g *Game) HasFake() bool { return strings.Contains(g.Stream, DecoyEmoji) }
