package msgcat

import (
	"strings"
	"testing"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return c
}

func TestRenderSubstitutes(t *testing.T) {
	c := newTestCatalog(t)
	got, err := c.Render("sl.rolled", map[string]any{"User": "Alice", "Die": 4, "From": 1, "To": 5})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "Alice") || !strings.Contains(got, "4") {
		t.Fatalf("substitution missing: %q", got)
	}
}

func TestRenderUnknownKeyFails(t *testing.T) {
	c := newTestCatalog(t)
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("unknown key rendered")
	}
}

func TestRenderMissingVariableFails(t *testing.T) {
	c := newTestCatalog(t)
	if _, err := c.Render("sl.rolled", map[string]any{"User": "Alice"}); err == nil {
		t.Fatalf("missing variables ignored")
	}
}

// every announcement key the bot emits must exist and render with its data
func TestGameKeysRender(t *testing.T) {
	c := newTestCatalog(t)
	data := map[string]any{
		"Prefix": "!", "User": "alice", "Host": "alice", "Target": "bob",
		"Current": "bob", "Count": 2, "Min": 2, "Max": 10,
		"Die": 3, "From": 1, "To": 4, "Rank": 1, "Order": "a → b", "First": "a",
		"Standings": "#1 a", "Actor": "host",
		"Challenger": "a", "P1": "a", "P2": "b", "Rounds": 5,
		"Round": 1, "Emoji": "🎯", "Stream": "x", "S1": 1, "S2": 0,
		"Winner": "a", "Leaver": "b",
		"OptionA": "fly", "OptionB": "swim", "Seconds": 60,
		"CountA": 1, "CountB": 2, "Verdict": "B takes it!",
		"A": "a", "B": "b", "Percent": 50, "Comment": "ok",
		"Room": "lounge", "JoinedAgo": "5m", "LastAgo": "1m", "LastMessage": "hi",
		"Query": "cats", "Index": 1, "Total": 10,
		"Mode": "dp", "DuelWins": 1, "BoardWins": 2, "Dropped": "carol",
	}
	keys := []string{
		"common.cooldown", "common.unknown_command", "common.user_not_found",
		"common.profile_timeout", "common.action_failed", "common.help",
		"sl.opened", "sl.already_running", "sl.no_game", "sl.join_not_lobby",
		"sl.join_dup", "sl.join_full", "sl.joined", "sl.start_not_host",
		"sl.start_need_players", "sl.start_resolving", "sl.dropped", "sl.started",
		"sl.not_your_turn", "sl.rolled", "sl.snake", "sl.ladder", "sl.finished",
		"sl.turn_next", "sl.warn1", "sl.warn2", "sl.eliminated",
		"sl.default_winner", "sl.game_over", "sl.quit", "sl.kicked",
		"sl.cancelled", "sl.idle_cancelled",
		"duel.challenged", "duel.already_running", "duel.self",
		"duel.not_challenged", "duel.begin", "duel.round_start", "duel.stream",
		"duel.fake_set", "duel.fake_not_allowed", "duel.fake_used",
		"duel.fake_caught", "duel.catch_win", "duel.round_timeout", "duel.win",
		"duel.tie", "duel.forfeit", "duel.cancel_wait", "duel.cancelled",
		"duel.pending_expired", "duel.idle_cancelled",
		"wyr.question", "wyr.already_running", "wyr.results", "wyr.no_votes",
		"ship.result", "ship.pending",
		"seen.found", "seen.found_quiet", "seen.not_found",
		"img.usage", "img.none", "img.no_more", "img.caption",
		"welcome.usage", "welcome.set", "welcome.simple",
		"greet.set", "greet.usage",
		"stats.line", "stats.none", "recent.none",
	}
	for _, key := range keys {
		if _, err := c.Render(key, data); err != nil {
			t.Fatalf("Render(%q): %v", key, err)
		}
	}
}
