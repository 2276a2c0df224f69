package snakeladder

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"go.uber.org/zap"
)

type Config struct {
	TurnDuration time.Duration
	Warn1After   time.Duration
	Warn2After   time.Duration
	MinPlayers   int
	MaxPlayers   int
	IdleTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		TurnDuration: 45 * time.Second,
		Warn1After:   15 * time.Second,
		Warn2After:   30 * time.Second,
		MinPlayers:   2,
		MaxPlayers:   10,
		IdleTimeout:  30 * time.Minute,
	}
}

// Manager owns every Snake & Ladder session. One lock guards the table;
// all blocking work (profile lookups, rendering) happens outside of it.
type Manager struct {
	mu    sync.Mutex
	games map[string]*Game
	cfg   Config

	clock func() time.Time
	dice  func() int
	perm  func(n int) []int
}

func NewManager(cfg Config) *Manager {
	if cfg.MinPlayers < 2 {
		cfg.MinPlayers = 2
	}
	if cfg.MaxPlayers < cfg.MinPlayers {
		cfg.MaxPlayers = cfg.MinPlayers
	}
	return &Manager{
		games: make(map[string]*Game),
		cfg:   cfg,
		clock: time.Now,
		dice:  func() int { return rand.Intn(DieSides) + 1 },
		perm:  rand.Perm,
	}
}

func playerKey(u string) string { return strings.ToLower(strings.TrimSpace(u)) }

// OpenLobby creates a lobby with the host pre-seated (unresolved until the
// host's own profile arrives).
func (m *Manager) OpenLobby(roomID, host string) error {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[roomID]; exists {
		return ErrGameExists
	}
	hk := playerKey(host)
	g := &Game{
		RoomID:       roomID,
		Status:       StatusLobby,
		Host:         hk,
		Players:      map[string]*PlayerState{},
		NextRank:     1,
		LastActivity: now,
	}
	g.Players[hk] = &PlayerState{Username: host, Position: 1, Status: PlayerPlaying}
	m.games[roomID] = g
	obslog.L().Info("sl_game_open", zap.String("room", roomID), zap.String("host", hk))
	return nil
}

// ReserveSeat validates a join and inserts an unresolved player. The caller
// then issues the profile lookup; CompleteJoin or AbortJoin follows.
func (m *Manager) ReserveSeat(roomID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return ErrNoGame
	}
	if g.Status != StatusLobby {
		return ErrNotLobby
	}
	k := playerKey(username)
	if _, joined := g.Players[k]; joined {
		return ErrAlreadyJoined
	}
	if len(g.Players) >= m.cfg.MaxPlayers {
		return ErrLobbyFull
	}
	g.Players[k] = &PlayerState{Username: username, Position: 1, Status: PlayerPlaying}
	g.LastActivity = m.clock()
	return nil
}

// CompleteJoin applies a resolved profile to a reserved seat and returns
// the lobby head count. A vanished game or seat is a silent no-op.
func (m *Manager) CompleteJoin(roomID, username, userID, avatarURL string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return 0, false
	}
	p, ok := g.Players[playerKey(username)]
	if !ok {
		return 0, false
	}
	p.UserID = userID
	p.AvatarURL = avatarURL
	p.Resolved = true
	g.LastActivity = m.clock()
	return len(g.Players), true
}

// AbortJoin rolls back a reserved seat whose lookup failed. A half
// initialized player must never reach an active game.
func (m *Manager) AbortJoin(roomID, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok || g.Status != StatusLobby {
		return
	}
	delete(g.Players, playerKey(username))
}

// Start shuffles the turn order and activates the game.
func (m *Manager) Start(roomID, requester string) (*StartResult, error) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, ErrNoGame
	}
	if g.Status != StatusLobby {
		return nil, ErrNotLobby
	}
	if playerKey(requester) != g.Host {
		return nil, ErrNotHost
	}
	resolved := make([]string, 0, len(g.Players))
	for k, p := range g.Players {
		if p.Resolved {
			resolved = append(resolved, k)
		}
	}
	if len(resolved) < m.cfg.MinPlayers {
		if len(g.Players) >= m.cfg.MinPlayers {
			return nil, ErrStillResolving
		}
		return nil, ErrNotEnoughPlayers
	}
	sort.Strings(resolved)
	order := make([]string, len(resolved))
	for i, j := range m.perm(len(resolved)) {
		order[i] = resolved[j]
	}
	// unresolved stragglers are dropped at start and reported back
	var dropped []string
	for k, p := range g.Players {
		if !p.Resolved {
			dropped = append(dropped, p.Username)
			delete(g.Players, k)
		}
	}
	sort.Strings(dropped)
	g.TurnOrder = order
	g.CurrentTurn = 0
	g.Status = StatusActive
	g.OriginalCount = len(order)
	g.TurnStartedAt = now
	g.Warned1, g.Warned2 = false, false
	g.LastActivity = now
	obslog.L().Info("sl_game_start", zap.String("room", roomID), zap.Int("players", len(order)))

	names := make([]string, len(order))
	for i, k := range order {
		names[i] = g.Players[k].Username
	}
	return &StartResult{Order: names, FirstPlayer: g.Players[order[0]].Username, Dropped: dropped}, nil
}

// Roll performs the current player's move.
func (m *Manager) Roll(roomID, username string) (*RollResult, error) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, ErrNoGame
	}
	if g.Status != StatusActive {
		return nil, ErrNotActive
	}
	k := playerKey(username)
	if len(g.TurnOrder) == 0 || g.TurnOrder[g.CurrentTurn] != k {
		return nil, ErrNotYourTurn
	}
	p := g.Players[k]

	die := m.dice()
	from := p.Position
	final, remap := resolveLanding(p.Position, die)
	p.Position = final

	res := &RollResult{
		Username: p.Username,
		Die:      die,
		From:     from,
		To:       final,
		Remap:    remap,
	}

	if final == BoardFinish {
		p.Status = PlayerFinished
		p.Rank = g.NextRank
		g.NextRank++
		res.Finished = true
		res.Rank = p.Rank
		m.removeFromOrder(g, k)
	} else {
		g.CurrentTurn = (g.CurrentTurn + 1) % len(g.TurnOrder)
	}

	if len(g.TurnOrder) <= 1 {
		res.GameOver = true
		res.Standings = m.finishGame(g)
		delete(m.games, roomID)
		obslog.L().Info("sl_game_over", zap.String("room", roomID))
		return res, nil
	}

	g.TurnStartedAt = now
	g.Warned1, g.Warned2 = false, false
	g.LastActivity = now
	res.NextPlayer = g.Players[g.TurnOrder[g.CurrentTurn]].Username
	return res, nil
}

// Remove takes a player out (quit or kick). Active games with fewer than
// two players left are cancelled.
func (m *Manager) Remove(roomID, username string) (*QuitResult, error) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, ErrNoGame
	}
	k := playerKey(username)
	p, ok := g.Players[k]
	if !ok {
		return nil, ErrNotInGame
	}
	res := &QuitResult{Username: p.Username}

	if g.Status == StatusLobby {
		delete(g.Players, k)
		if k == g.Host || len(g.Players) == 0 {
			delete(m.games, roomID)
			res.Cancelled = true
		}
		return res, nil
	}

	res.WasCurrent = len(g.TurnOrder) > 0 && g.TurnOrder[g.CurrentTurn] == k
	delete(g.Players, k)
	m.removeFromOrder(g, k)

	if len(g.TurnOrder) < 2 {
		delete(m.games, roomID)
		res.Cancelled = true
		obslog.L().Info("sl_game_cancel", zap.String("room", roomID), zap.String("cause", "player_left"))
		return res, nil
	}

	if res.WasCurrent {
		g.TurnStartedAt = now
		g.Warned1, g.Warned2 = false, false
	}
	g.LastActivity = now
	res.NextPlayer = g.Players[g.TurnOrder[g.CurrentTurn]].Username
	return res, nil
}

// Cancel deletes the game outright.
func (m *Manager) Cancel(roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[roomID]; !ok {
		return false
	}
	delete(m.games, roomID)
	return true
}

// Host reports the lobby host for permission checks.
func (m *Manager) Host(roomID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return "", false
	}
	return g.Host, true
}

// Snapshot copies the game for rendering outside the lock.
func (m *Manager) Snapshot(roomID string) (GameView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return GameView{}, false
	}
	v := GameView{
		RoomID:    g.RoomID,
		Status:    g.Status,
		Host:      g.Host,
		TurnOrder: append([]string(nil), g.TurnOrder...),
	}
	for _, p := range g.Players {
		v.Players = append(v.Players, *p)
	}
	sort.Slice(v.Players, func(i, j int) bool { return v.Players[i].Username < v.Players[j].Username })
	if g.Status == StatusActive && len(g.TurnOrder) > 0 {
		v.CurrentPlayer = g.Players[g.TurnOrder[g.CurrentTurn]].Username
	}
	return v, true
}

// Tick enforces turn clocks and inactivity windows. Called on the
// scheduler cadence; every transition here must tolerate the game having
// been deleted by a concurrent command.
func (m *Manager) Tick() []TickEvent {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []TickEvent
	for roomID, g := range m.games {
		if now.Sub(g.LastActivity) > m.cfg.IdleTimeout {
			delete(m.games, roomID)
			events = append(events, TickEvent{RoomID: roomID, Kind: TickIdleCancel})
			obslog.L().Info("sl_game_idle_cancel", zap.String("room", roomID))
			continue
		}
		if g.Status != StatusActive || len(g.TurnOrder) == 0 {
			continue
		}
		cur := g.Players[g.TurnOrder[g.CurrentTurn]]
		elapsed := now.Sub(g.TurnStartedAt)
		switch {
		case elapsed >= m.cfg.TurnDuration:
			events = append(events, m.eliminateCurrent(g, cur)...)
			if _, alive := m.games[roomID]; !alive {
				continue
			}
			g.TurnStartedAt = now
			g.Warned1, g.Warned2 = false, false
		case elapsed >= m.cfg.Warn2After && !g.Warned2:
			g.Warned2 = true
			events = append(events, TickEvent{RoomID: roomID, Kind: TickWarn2, Username: cur.Username})
		case elapsed >= m.cfg.Warn1After && !g.Warned1:
			g.Warned1 = true
			events = append(events, TickEvent{RoomID: roomID, Kind: TickWarn1, Username: cur.Username})
		}
	}
	return events
}

// eliminateCurrent force-removes the player on the clock. Caller holds the
// lock.
func (m *Manager) eliminateCurrent(g *Game, cur *PlayerState) []TickEvent {
	k := playerKey(cur.Username)
	events := []TickEvent{{RoomID: g.RoomID, Kind: TickEliminate, Username: cur.Username, UserID: cur.UserID}}
	delete(g.Players, k)
	m.removeFromOrder(g, k)
	obslog.L().Info("sl_turn_timeout", zap.String("room", g.RoomID), zap.String("player", k))

	if len(g.TurnOrder) == 1 {
		last := g.Players[g.TurnOrder[0]]
		last.Status = PlayerFinished
		last.Rank = g.NextRank
		g.NextRank++
		events = append(events, TickEvent{RoomID: g.RoomID, Kind: TickDefaultWinner, Username: last.Username})
		events = append(events, TickEvent{RoomID: g.RoomID, Kind: TickGameOver, Standings: m.finishGame(g)})
		delete(m.games, g.RoomID)
		return events
	}
	if len(g.TurnOrder) == 0 {
		events = append(events, TickEvent{RoomID: g.RoomID, Kind: TickGameOver, Standings: m.finishGame(g)})
		delete(m.games, g.RoomID)
		return events
	}
	events = append(events, TickEvent{
		RoomID:   g.RoomID,
		Kind:     TickTurnNext,
		Username: g.Players[g.TurnOrder[g.CurrentTurn]].Username,
	})
	return events
}

// removeFromOrder drops a player from the turn order, keeping CurrentTurn
// aimed at the player who should act next.
func (m *Manager) removeFromOrder(g *Game, key string) {
	for i, u := range g.TurnOrder {
		if u != key {
			continue
		}
		g.TurnOrder = append(g.TurnOrder[:i], g.TurnOrder[i+1:]...)
		if i < g.CurrentTurn {
			g.CurrentTurn--
		}
		break
	}
	if len(g.TurnOrder) == 0 {
		g.CurrentTurn = 0
		return
	}
	if g.CurrentTurn >= len(g.TurnOrder) {
		g.CurrentTurn = 0
	}
}

// finishGame assigns remaining ranks and returns the standings. Caller
// holds the lock; the game is deleted right after.
func (m *Manager) finishGame(g *Game) []Standing {
	rest := make([]string, 0, len(g.TurnOrder))
	rest = append(rest, g.TurnOrder...)
	for _, k := range rest {
		p := g.Players[k]
		if p.Status == PlayerPlaying {
			p.Status = PlayerFinished
			p.Rank = g.NextRank
			g.NextRank++
		}
	}
	var standings []Standing
	for _, p := range g.Players {
		if p.Rank > 0 {
			standings = append(standings, Standing{Username: p.Username, Rank: p.Rank})
		}
	}
	sort.Slice(standings, func(i, j int) bool { return standings[i].Rank < standings[j].Rank })
	return standings
}
