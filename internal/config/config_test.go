package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOWDIES_BASE_URL", "http://api.local")
	t.Setenv("HOWDIES_WS_URL", "ws://api.local/ws")
	t.Setenv("BOT_USERNAME", "bot")
	t.Setenv("BOT_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotPrefix != "!" {
		t.Fatalf("default prefix: %q", cfg.BotPrefix)
	}
	if cfg.TurnDurationSec != 45 || cfg.DuelCatchSec != 8 || cfg.VoteWindowSec != 60 {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if cfg.LobbyMinPlayers != 2 || cfg.LobbyMaxPlayers != 10 {
		t.Fatalf("unexpected lobby defaults: %+v", cfg)
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Fatalf("missing password accepted")
	}
}

func TestOverridesAndMasters(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_PREFIX", ".")
	t.Setenv("SL_TURN_DURATION_SECONDS", "60")
	t.Setenv("BOT_MASTERS", "Root, admin ")
	t.Setenv("BOT_ROOMS", "lounge,arcade")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotPrefix != "." || cfg.TurnDurationSec != 60 {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if len(cfg.Rooms) != 2 {
		t.Fatalf("rooms not parsed: %+v", cfg.Rooms)
	}
	if !cfg.IsMaster("ROOT") || !cfg.IsMaster("admin") || cfg.IsMaster("alice") {
		t.Fatalf("master matching broken")
	}
}
