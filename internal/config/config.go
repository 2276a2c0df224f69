package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HowdiesBaseURL string
	HowdiesWSURL   string

	BotUsername string
	BotPassword string
	BotPrefix   string

	Masters []string
	Rooms   []string

	RedisURL    string
	DatabaseURL string

	SearchBaseURL string
	SearchAPIKey  string

	EgressMode   string
	EgressDryRun bool

	TurnDurationSec   int
	TurnWarn1Sec      int
	TurnWarn2Sec      int
	LobbyMinPlayers   int
	LobbyMaxPlayers   int
	BoardIdleMin      int
	DuelIdleMin       int
	DuelCatchSec      int
	DuelTargetScore   int
	DuelMaxRounds     int
	SessionIdleMin    int
	SearchIdleMin     int
	VoteWindowSec     int
	CooldownSec       int
	MemoryLimit       int
	MemoryTTLSec      int
	TemplateOverrides string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		BotPrefix:       "!",
		EgressMode:      "ws",
		TurnDurationSec: 45,
		TurnWarn1Sec:    15,
		TurnWarn2Sec:    30,
		LobbyMinPlayers: 2,
		LobbyMaxPlayers: 10,
		BoardIdleMin:    30,
		DuelIdleMin:     5,
		DuelCatchSec:    8,
		DuelTargetScore: 3,
		DuelMaxRounds:   5,
		SessionIdleMin:  10,
		SearchIdleMin:   5,
		VoteWindowSec:   60,
		CooldownSec:     5,
		MemoryLimit:     6,
		MemoryTTLSec:    600,
	}

	cfg.HowdiesBaseURL = strings.TrimSpace(os.Getenv("HOWDIES_BASE_URL"))
	cfg.HowdiesWSURL = strings.TrimSpace(os.Getenv("HOWDIES_WS_URL"))
	cfg.BotUsername = strings.TrimSpace(os.Getenv("BOT_USERNAME"))
	cfg.BotPassword = strings.TrimSpace(os.Getenv("BOT_PASSWORD"))
	if v := strings.TrimSpace(os.Getenv("BOT_PREFIX")); v != "" {
		cfg.BotPrefix = v
	}

	cfg.Masters = splitCSV(os.Getenv("BOT_MASTERS"))
	cfg.Rooms = splitCSV(os.Getenv("BOT_ROOMS"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.SearchBaseURL = strings.TrimSpace(os.Getenv("IMAGE_SEARCH_BASE_URL"))
	cfg.SearchAPIKey = strings.TrimSpace(os.Getenv("IMAGE_SEARCH_API_KEY"))

	if v := strings.TrimSpace(os.Getenv("EGRESS_MODE")); v != "" {
		cfg.EgressMode = v
	}
	if v := strings.TrimSpace(os.Getenv("EGRESS_DRYRUN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EgressDryRun = b
		}
	}

	cfg.TemplateOverrides = strings.TrimSpace(os.Getenv("TEMPLATE_DIR"))

	intEnv("SL_TURN_DURATION_SECONDS", &cfg.TurnDurationSec)
	intEnv("SL_TURN_WARN1_SECONDS", &cfg.TurnWarn1Sec)
	intEnv("SL_TURN_WARN2_SECONDS", &cfg.TurnWarn2Sec)
	intEnv("SL_LOBBY_MIN", &cfg.LobbyMinPlayers)
	intEnv("SL_LOBBY_MAX", &cfg.LobbyMaxPlayers)
	intEnv("SL_IDLE_MINUTES", &cfg.BoardIdleMin)
	intEnv("DUEL_IDLE_MINUTES", &cfg.DuelIdleMin)
	intEnv("DUEL_CATCH_SECONDS", &cfg.DuelCatchSec)
	intEnv("DUEL_TARGET_SCORE", &cfg.DuelTargetScore)
	intEnv("DUEL_MAX_ROUNDS", &cfg.DuelMaxRounds)
	intEnv("SESSION_IDLE_MINUTES", &cfg.SessionIdleMin)
	intEnv("SEARCH_IDLE_MINUTES", &cfg.SearchIdleMin)
	intEnv("WYR_WINDOW_SECONDS", &cfg.VoteWindowSec)
	intEnv("COMMAND_COOLDOWN_SECONDS", &cfg.CooldownSec)
	intEnv("MEMORY_LIMIT", &cfg.MemoryLimit)
	intEnv("MEMORY_TTL_SECONDS", &cfg.MemoryTTLSec)

	if cfg.HowdiesBaseURL == "" {
		return nil, errors.New("HOWDIES_BASE_URL is required")
	}
	if cfg.HowdiesWSURL == "" {
		return nil, errors.New("HOWDIES_WS_URL is required")
	}
	if cfg.BotUsername == "" {
		return nil, errors.New("BOT_USERNAME is required")
	}
	if cfg.BotPassword == "" {
		return nil, errors.New("BOT_PASSWORD is required")
	}

	return cfg, nil
}

// IsMaster reports whether the given username is a configured bot master.
func (c *AppConfig) IsMaster(username string) bool {
	u := strings.ToLower(strings.TrimSpace(username))
	for _, m := range c.Masters {
		if strings.ToLower(m) == u {
			return true
		}
	}
	return false
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intEnv(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
