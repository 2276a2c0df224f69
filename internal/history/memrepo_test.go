package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/domain"
)

func record(uuid, room, winner string, endedAt time.Time) *domain.GameRecord {
	return &domain.GameRecord{
		GameUUID:  uuid,
		Kind:      domain.GameEmojiDuel,
		RoomID:    room,
		Winner:    winner,
		Players:   []string{"alice", "bob"},
		Scoreline: "3-1",
		Outcome:   "win",
		StartedAt: endedAt.Add(-5 * time.Minute),
		EndedAt:   endedAt,
		Duration:  5 * time.Minute,
	}
}

func TestInsertGameAssignsIDs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	id1, err := repo.InsertGame(ctx, record("g1", "r1", "Alice", base))
	if err != nil {
		t.Fatalf("InsertGame: %v", err)
	}
	id2, err := repo.InsertGame(ctx, record("g2", "r1", "bob", base.Add(time.Minute)))
	if err != nil {
		t.Fatalf("InsertGame: %v", err)
	}
	if id1 == 0 || id2 != id1+1 {
		t.Fatalf("unexpected ids: %d %d", id1, id2)
	}
}

func TestInsertGameRejectsDuplicateUUID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	if _, err := repo.InsertGame(ctx, record("g1", "r1", "alice", base)); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}
	if _, err := repo.InsertGame(ctx, record("g1", "r1", "alice", base)); !errors.Is(err, ErrDuplicateGame) {
		t.Fatalf("expected ErrDuplicateGame, got %v", err)
	}
}

func TestRecentGamesOrderAndScope(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	repo.InsertGame(ctx, record("g1", "r1", "alice", base))
	repo.InsertGame(ctx, record("g2", "r2", "bob", base.Add(time.Minute)))
	repo.InsertGame(ctx, record("g3", "r1", "carol", base.Add(2*time.Minute)))

	games, err := repo.RecentGames(ctx, "r1", 10)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 2 || games[0].GameUUID != "g3" || games[1].GameUUID != "g1" {
		t.Fatalf("unexpected order: %+v", games)
	}

	games, err = repo.RecentGames(ctx, "r1", 1)
	if err != nil || len(games) != 1 || games[0].GameUUID != "g3" {
		t.Fatalf("limit not applied: %+v err=%v", games, err)
	}
}

func TestRecentWinsMatchesCaseInsensitive(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	repo.InsertGame(ctx, record("g1", "r1", "Alice", base))
	repo.InsertGame(ctx, record("g2", "r1", "bob", base.Add(time.Minute)))

	wins, err := repo.RecentWins(ctx, "ALICE", 10)
	if err != nil || len(wins) != 1 || wins[0].GameUUID != "g1" {
		t.Fatalf("unexpected wins: %+v err=%v", wins, err)
	}
}
