package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrDisabled = errors.New("settings store disabled: no REDIS_URL")

// WelcomeMode values for a room.
const (
	WelcomeOff    = "off"
	WelcomeSimple = "simple"
	WelcomeDP     = "dp"
)

// UserStats is the cross-restart win ledger for one user.
type UserStats struct {
	DuelWins  int       `json:"duel_wins"`
	BoardWins int       `json:"board_wins"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps the small cross-restart settings (welcome modes, greetings,
// win stats) in Redis. With no REDIS_URL it degrades to defaults: reads
// return zero values, writes report ErrDisabled.
type Store struct {
	rdb *redis.Client
}

func NewStore(redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return &Store{}, nil
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// NewStoreWithClient wires an existing client (tests).
func NewStoreWithClient(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) Enabled() bool { return s != nil && s.rdb != nil }

func welcomeKey(roomID string) string { return "bot:welcome:" + strings.TrimSpace(roomID) }
func greetKey(user string) string     { return "bot:greet:" + strings.ToLower(strings.TrimSpace(user)) }
func statsKey(user string) string     { return "bot:stats:" + strings.ToLower(strings.TrimSpace(user)) }

// WelcomeMode returns the room's mode, defaulting to off.
func (s *Store) WelcomeMode(ctx context.Context, roomID string) string {
	if !s.Enabled() {
		return WelcomeOff
	}
	v, err := s.rdb.Get(ctx, welcomeKey(roomID)).Result()
	if err != nil {
		return WelcomeOff
	}
	switch v {
	case WelcomeSimple, WelcomeDP:
		return v
	default:
		return WelcomeOff
	}
}

func (s *Store) SetWelcomeMode(ctx context.Context, roomID, mode string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	switch mode {
	case WelcomeOff, WelcomeSimple, WelcomeDP:
	default:
		return fmt.Errorf("invalid welcome mode: %q", mode)
	}
	return s.rdb.Set(ctx, welcomeKey(roomID), mode, 0).Err()
}

func (s *Store) Greeting(ctx context.Context, user string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	v, err := s.rdb.Get(ctx, greetKey(user)).Result()
	if err != nil || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func (s *Store) SetGreeting(ctx context.Context, user, text string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	return s.rdb.Set(ctx, greetKey(user), text, 0).Err()
}

func (s *Store) RecordDuelWin(ctx context.Context, user string) error {
	return s.bumpStats(ctx, user, func(st *UserStats) { st.DuelWins++ })
}

func (s *Store) RecordBoardWin(ctx context.Context, user string) error {
	return s.bumpStats(ctx, user, func(st *UserStats) { st.BoardWins++ })
}

// bumpStats read-modify-writes the stats blob under optimistic locking so
// concurrent game endings never lose an increment.
func (s *Store) bumpStats(ctx context.Context, user string, mutate func(*UserStats)) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	key := statsKey(user)
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		var st UserStats
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &st); err != nil {
				st = UserStats{}
			}
		}
		mutate(&st)
		st.UpdatedAt = time.Now()
		buf, err := json.Marshal(&st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)
			return nil
		})
		return err
	}, key)
}

func (s *Store) Stats(ctx context.Context, user string) (UserStats, error) {
	if !s.Enabled() {
		return UserStats{}, ErrDisabled
	}
	raw, err := s.rdb.Get(ctx, statsKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return UserStats{}, nil
	}
	if err != nil {
		return UserStats{}, err
	}
	var st UserStats
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return UserStats{}, err
	}
	return st, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
