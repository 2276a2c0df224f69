package router

import (
	"testing"

	"github.com/Marinerbyte/Cli-bot/internal/domain"
)

func TestShipPercentStable(t *testing.T) {
	a := shipPercent("Alice", "Bob")
	b := shipPercent("bob", "ALICE")
	if a != b {
		t.Fatalf("order/case changed the score: %d vs %d", a, b)
	}
	if a < 0 || a > 100 {
		t.Fatalf("score out of range: %d", a)
	}
	if shipPercent("alice", "bob") != a {
		t.Fatalf("score not stable across calls")
	}
}

func TestGameLabel(t *testing.T) {
	if got := gameLabel(domain.GameSnakeLadder); got != "Snake & Ladder" {
		t.Fatalf("snake ladder label: %q", got)
	}
	if got := gameLabel(domain.GameEmojiDuel); got != "Emoji Duel" {
		t.Fatalf("emoji duel label: %q", got)
	}
	if got := gameLabel(domain.GameKind("tictactoe")); got != "tictactoe" {
		t.Fatalf("unknown kinds pass through: %q", got)
	}
}
