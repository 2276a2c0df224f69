package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/domain"
)

func millisDuration(ms int64) (d time.Duration) { return time.Duration(ms) * time.Millisecond }

// memrepo is the in-memory archive used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID   map[int64]*domain.GameRecord
	gamesByUUID map[string]*domain.GameRecord
	order       []*domain.GameRecord // insertion order
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:   make(map[int64]*domain.GameRecord),
		gamesByUUID: make(map[string]*domain.GameRecord),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateGame
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByUUID[rec.GameUUID]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	copy := *rec
	copy.ID = m.nextID
	copy.Winner = strings.ToLower(copy.Winner)

	m.gamesByID[copy.ID] = &copy
	m.gamesByUUID[copy.GameUUID] = &copy
	m.order = append(m.order, &copy)
	return copy.ID, nil
}

func (m *memrepo) RecentGames(ctx context.Context, roomID string, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*domain.GameRecord
	for _, g := range m.order {
		if g.RoomID == roomID {
			items = append(items, g)
		}
	}
	return sortAndClip(items, limit), nil
}

func (m *memrepo) RecentWins(ctx context.Context, user string, limit int) ([]*domain.GameRecord, error) {
	u := strings.ToLower(strings.TrimSpace(user))
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*domain.GameRecord
	for _, g := range m.order {
		if g.Winner == u {
			items = append(items, g)
		}
	}
	return sortAndClip(items, limit), nil
}

func (m *memrepo) Close() error { return nil }

// sortAndClip orders by EndedAt desc (ID desc as tiebreak) and applies the
// limit.
func sortAndClip(items []*domain.GameRecord, limit int) []*domain.GameRecord {
	out := append([]*domain.GameRecord(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndedAt.Equal(out[j].EndedAt) {
			return out[i].EndedAt.After(out[j].EndedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
