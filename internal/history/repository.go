package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Marinerbyte/Cli-bot/internal/domain"
	_ "github.com/lib/pq"
)

var ErrDuplicateGame = errors.New("game already archived")

// Repository archives finished games. Postgres when DATABASE_URL is set,
// in-memory otherwise.
type Repository interface {
	InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error)
	RecentGames(ctx context.Context, roomID string, limit int) ([]*domain.GameRecord, error)
	RecentWins(ctx context.Context, user string, limit int) ([]*domain.GameRecord, error)
	Close() error
}

// Open picks the backing store by DSN.
func Open(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryRepository(), nil
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &repository{db: db}, nil
}

type repository struct {
	db *sql.DB
}

func (r *repository) InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil game record")
	}
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return 0, fmt.Errorf("marshal players: %w", err)
	}

	const query = `
		INSERT INTO bot_games (
			game_uuid,
			kind,
			room_id,
			winner,
			players,
			scoreline,
			outcome,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
		ON CONFLICT (game_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.GameUUID,
		string(rec.Kind),
		rec.RoomID,
		strings.ToLower(rec.Winner),
		players,
		rec.Scoreline,
		rec.Outcome,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) RecentGames(ctx context.Context, roomID string, limit int) ([]*domain.GameRecord, error) {
	const query = `
		SELECT id, game_uuid, kind, room_id, winner, players, scoreline, outcome, started_at, ended_at, duration_ms
		FROM bot_games
		WHERE room_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`
	return r.queryGames(ctx, query, roomID, limit)
}

func (r *repository) RecentWins(ctx context.Context, user string, limit int) ([]*domain.GameRecord, error) {
	const query = `
		SELECT id, game_uuid, kind, room_id, winner, players, scoreline, outcome, started_at, ended_at, duration_ms
		FROM bot_games
		WHERE winner = $1
		ORDER BY ended_at DESC
		LIMIT $2`
	return r.queryGames(ctx, query, strings.ToLower(user), limit)
}

func (r *repository) queryGames(ctx context.Context, query string, arg any, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, query, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []*domain.GameRecord
	for rows.Next() {
		var (
			rec        domain.GameRecord
			kind       string
			players    []byte
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.GameUUID, &kind, &rec.RoomID, &rec.Winner, &players, &rec.Scoreline, &rec.Outcome, &rec.StartedAt, &rec.EndedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.Kind = domain.GameKind(kind)
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			rec.Players = nil
		}
		rec.Duration = millisDuration(durationMS)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
