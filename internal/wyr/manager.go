package wyr

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var (
	ErrVoteRunning = errors.New("a vote is already running in this room")
	ErrNoVote      = errors.New("no vote running in this room")
)

type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

// Game is one open vote, keyed by room.
type Game struct {
	RoomID  string
	OptionA string
	OptionB string
	Votes   map[string]Choice // lowercase username
	EndTime time.Time
}

// Question is one would-you-rather prompt.
type Question struct {
	OptionA string
	OptionB string
}

var builtinQuestions = []Question{
	{"be able to fly", "be able to read minds"},
	{"never use the internet again", "never watch a movie again"},
	{"always be 10 minutes late", "always be 2 hours early"},
	{"have unlimited money", "have unlimited free time"},
	{"live without music", "live without games"},
	{"fight one horse-sized duck", "fight a hundred duck-sized horses"},
	{"only whisper forever", "only shout forever"},
	{"know how you die", "know when you die"},
	{"be famous but poor", "be unknown but rich"},
	{"restart your life at 5", "skip ahead 20 years"},
}

// Result is the final tally announced once at EndTime.
type Result struct {
	RoomID  string
	OptionA string
	OptionB string
	CountA  int
	CountB  int
}

// Manager runs one vote per room with a fixed window.
type Manager struct {
	mu     sync.Mutex
	games  map[string]*Game
	window time.Duration

	clock func() time.Time
	intn  func(n int) int
}

func NewManager(window time.Duration) *Manager {
	if window <= 0 {
		window = time.Minute
	}
	return &Manager{
		games:  make(map[string]*Game),
		window: window,
		clock:  time.Now,
		intn:   rand.Intn,
	}
}

// Open starts a vote with a random built-in question.
func (m *Manager) Open(roomID string) (*Game, error) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[roomID]; exists {
		return nil, ErrVoteRunning
	}
	q := builtinQuestions[m.intn(len(builtinQuestions))]
	g := &Game{
		RoomID:  roomID,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		Votes:   make(map[string]Choice),
		EndTime: now.Add(m.window),
	}
	m.games[roomID] = g
	return &Game{RoomID: g.RoomID, OptionA: g.OptionA, OptionB: g.OptionB, EndTime: g.EndTime}, nil
}

// Vote records or changes a user's choice. Non-votes return false so the
// router can treat arbitrary chatter cheaply.
func (m *Manager) Vote(roomID, username, text string) bool {
	var choice Choice
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "A":
		choice = ChoiceA
	case "B":
		choice = ChoiceB
	default:
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[roomID]
	if !ok {
		return false
	}
	g.Votes[strings.ToLower(strings.TrimSpace(username))] = choice
	return true
}

// Tick closes every vote whose window elapsed. Each result is produced
// exactly once; the game is gone afterwards.
func (m *Manager) Tick() []Result {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Result
	for roomID, g := range m.games {
		if now.Before(g.EndTime) {
			continue
		}
		res := Result{RoomID: roomID, OptionA: g.OptionA, OptionB: g.OptionB}
		for _, c := range g.Votes {
			if c == ChoiceA {
				res.CountA++
			} else {
				res.CountB++
			}
		}
		delete(m.games, roomID)
		out = append(out, res)
	}
	return out
}
