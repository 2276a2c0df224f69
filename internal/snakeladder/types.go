package snakeladder

import (
	"errors"
	"time"
)

type Status string

const (
	StatusLobby  Status = "LOBBY"
	StatusActive Status = "ACTIVE"
)

type PlayerStatus string

const (
	PlayerPlaying  PlayerStatus = "playing"
	PlayerFinished PlayerStatus = "finished"
)

var (
	ErrGameExists       = errors.New("a game is already running in this room")
	ErrNoGame           = errors.New("no game in this room")
	ErrNotLobby         = errors.New("the game has already started")
	ErrNotActive        = errors.New("the game has not started yet")
	ErrAlreadyJoined    = errors.New("player already joined")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrStillResolving   = errors.New("player profiles still resolving")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNotInGame        = errors.New("player is not in this game")
)

// PlayerState is one participant. Players join unresolved and become
// resolved once their profile lookup delivers an id and avatar.
type PlayerState struct {
	Username  string
	UserID    string
	AvatarURL string
	Position  int
	Status    PlayerStatus
	Rank      int
	Resolved  bool
}

// Game is one Snake & Ladder session, keyed by room.
type Game struct {
	RoomID        string
	Status        Status
	Host          string // lowercase
	Players       map[string]*PlayerState
	TurnOrder     []string
	CurrentTurn   int
	NextRank      int
	TurnStartedAt time.Time
	Warned1       bool
	Warned2       bool
	LastActivity  time.Time
	OriginalCount int
}

// Standing is one line of the final result.
type Standing struct {
	Username string
	Rank     int
}

// RemapKind distinguishes which table entry moved the player.
type RemapKind string

const (
	RemapSnake  RemapKind = "snake"
	RemapLadder RemapKind = "ladder"
)

type RemapEvent struct {
	Kind RemapKind
	From int
	To   int
}

// RollResult describes everything a single roll did.
type RollResult struct {
	Username   string
	Die        int
	From       int
	To         int
	Remap      *RemapEvent
	Finished   bool
	Rank       int
	GameOver   bool
	Standings  []Standing
	NextPlayer string
}

type StartResult struct {
	Order       []string
	FirstPlayer string
	Dropped     []string
}

type QuitResult struct {
	Username      string
	Cancelled     bool
	GameOver      bool
	Standings     []Standing
	NextPlayer    string
	WasCurrent    bool
	DefaultWinner string
}

// TickKind enumerates scheduler-driven transitions.
type TickKind string

const (
	TickWarn1         TickKind = "warn1"
	TickWarn2         TickKind = "warn2"
	TickEliminate     TickKind = "eliminate"
	TickDefaultWinner TickKind = "default_winner"
	TickGameOver      TickKind = "game_over"
	TickTurnNext      TickKind = "turn_next"
	TickIdleCancel    TickKind = "idle_cancel"
)

type TickEvent struct {
	RoomID    string
	Kind      TickKind
	Username  string
	UserID    string
	Standings []Standing
}

// GameView is a read-only copy for rendering and announcements.
type GameView struct {
	RoomID        string
	Status        Status
	Host          string
	Players       []PlayerState
	TurnOrder     []string
	CurrentPlayer string
}
