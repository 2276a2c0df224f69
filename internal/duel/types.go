package duel

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
)

var (
	ErrInvalidArgs   = errors.New("invalid arguments")
	ErrDuelExists    = errors.New("a duel is already running in this room")
	ErrNoDuel        = errors.New("no duel in this room")
	ErrSelfDuel      = errors.New("cannot duel yourself")
	ErrNotChallenged = errors.New("no duel waiting for this user")
	ErrNotPending    = errors.New("duel is not awaiting acceptance")
	ErrNotActive     = errors.New("duel is not active")
	ErrRoundRunning  = errors.New("a round is already in progress")
	ErrNotFaker      = errors.New("only the previous round winner may plant a decoy")
	ErrFakeUsed      = errors.New("decoy already planted")
	ErrNotParty      = errors.New("not a duel participant")
)

// PlayerScore is one side of a duel.
type PlayerScore struct {
	Name      string
	Key       string // lowercase
	UserID    string
	AvatarURL string
	Score     int
}

type roundPhase int

const (
	phaseIdle roundPhase = iota // between rounds
	phasePrepared               // target chosen, stream not yet revealed
	phaseRevealed               // catch window open
)

// Game is one duel, keyed by room. P1 challenged P2.
type Game struct {
	RoomID string
	Status Status

	P1 PlayerScore
	P2 PlayerScore

	Round       int
	Phase       roundPhase
	Target      string
	Stream      string
	FakeArmed   bool
	FakeRightTo string // key of last round winner, may plant decoy once
	Deadline    time.Time

	CancelRequests map[string]bool
	CreatedAt      time.Time
	LastActivity   time.Time
}

// RoundPlan tells the driving goroutine what to announce and when to
// reveal. The stream is fixed at preparation time.
type RoundPlan struct {
	Round       int
	Target      string
	Stream      string
	RevealDelay time.Duration
}

type EndReason string

const (
	EndByScore   EndReason = "score"
	EndByRounds  EndReason = "rounds"
	EndByForfeit EndReason = "forfeit"
	EndByCancel  EndReason = "cancel"
	EndByIdle    EndReason = "idle"
)

// Result describes a finished duel.
type Result struct {
	RoomID string
	Reason EndReason
	Tie    bool
	Winner PlayerScore
	Loser  PlayerScore
	P1     PlayerScore
	P2     PlayerScore
}

// CatchResult reports what one catch attempt did.
type CatchResult struct {
	Caught     PlayerScore
	Emoji      string
	FakeCaught bool
	S1, S2     int
	Finished   *Result
}

type AcceptResult struct {
	P1, P2 PlayerScore
}

type TickKind string

const (
	TickPendingExpired TickKind = "pending_expired"
	TickIdleCancel     TickKind = "idle_cancel"
	TickRoundTimeout   TickKind = "round_timeout"
)

type TickEvent struct {
	RoomID   string
	Kind     TickKind
	Emoji    string
	P1, P2   PlayerScore
	Finished *Result
}
