package domain

import "time"

// GameKind distinguishes archived match types.
type GameKind string

const (
	GameSnakeLadder GameKind = "snake_ladder"
	GameEmojiDuel   GameKind = "emoji_duel"
)

// GameRecord is one finished match, archived for history queries.
type GameRecord struct {
	ID        int64
	GameUUID  string
	Kind      GameKind
	RoomID    string
	Winner    string
	Players   []string
	Scoreline string
	Outcome   string // win | tie | forfeit | default
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}
