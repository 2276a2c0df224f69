package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds per-user ephemeral state: image-search cursors, ship-card
// collection sessions, short-term conversation memory and command
// cooldowns. Everything in here expires.
type Store struct {
	mu        sync.Mutex
	searches  map[string]*SearchCursor
	ships     map[string]*ShipSession
	memory    map[string][]MemoryEntry
	cooldowns map[string]time.Time

	memoryLimit int
	memoryTTL   time.Duration

	clock func() time.Time
}

type SearchCursor struct {
	Query     string
	Results   []string
	Index     int
	UpdatedAt time.Time
}

// ShipSession collects two avatar lookups before a ship card can render.
type ShipSession struct {
	ID        string
	RoomID    string
	Requester string
	NameA     string
	NameB     string
	AvatarA   string
	AvatarB   string
	GotA      bool
	GotB      bool
	CreatedAt time.Time
}

func (s *ShipSession) Complete() bool { return s.GotA && s.GotB }

type MemoryEntry struct {
	Text string
	At   time.Time
}

func NewStore(memoryLimit int, memoryTTL time.Duration) *Store {
	if memoryLimit <= 0 {
		memoryLimit = 6
	}
	if memoryTTL <= 0 {
		memoryTTL = 10 * time.Minute
	}
	return &Store{
		searches:    make(map[string]*SearchCursor),
		ships:       make(map[string]*ShipSession),
		memory:      make(map[string][]MemoryEntry),
		cooldowns:   make(map[string]time.Time),
		memoryLimit: memoryLimit,
		memoryTTL:   memoryTTL,
		clock:       time.Now,
	}
}

func userKey(u string) string { return strings.ToLower(strings.TrimSpace(u)) }

// SetSearch replaces the user's search cursor with fresh results.
func (s *Store) SetSearch(user, query string, results []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[userKey(user)] = &SearchCursor{
		Query:     query,
		Results:   results,
		Index:     0,
		UpdatedAt: s.clock(),
	}
}

// NextSearch advances the cursor and returns the next result URL. The
// second return is false when no cursor exists; exhausted cursors are
// deleted and reported via the third return.
func (s *Store) NextSearch(user string) (url string, cursor SearchCursor, ok bool, exhausted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey(user)
	cur, found := s.searches[k]
	if !found {
		return "", SearchCursor{}, false, false
	}
	if cur.Index >= len(cur.Results) {
		delete(s.searches, k)
		return "", *cur, true, true
	}
	url = cur.Results[cur.Index]
	cur.Index++
	cur.UpdatedAt = s.clock()
	return url, *cur, true, false
}

// NewShip opens a ship session awaiting two avatar replies.
func (s *Store) NewShip(roomID, requester, nameA, nameB string) *ShipSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := &ShipSession{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Requester: requester,
		NameA:     strings.ToLower(strings.TrimSpace(nameA)),
		NameB:     strings.ToLower(strings.TrimSpace(nameB)),
		CreatedAt: s.clock(),
	}
	s.ships[sh.ID] = sh
	return sh
}

// ApplyShipAvatar records one resolved avatar and reports whether the
// session is now complete. Completed sessions are removed; callers own
// the returned copy.
func (s *Store) ApplyShipAvatar(id, target, avatarURL string) (ShipSession, bool, bool) {
	tgt := userKey(target)
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.ships[id]
	if !ok {
		return ShipSession{}, false, false
	}
	switch tgt {
	case sh.NameA:
		sh.AvatarA = avatarURL
		sh.GotA = true
	case sh.NameB:
		sh.AvatarB = avatarURL
		sh.GotB = true
	default:
		return *sh, true, false
	}
	if sh.Complete() {
		delete(s.ships, id)
		return *sh, true, true
	}
	return *sh, true, false
}

func (s *Store) DeleteShip(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ships, id)
}

// Remember appends one utterance to the user's rolling memory window.
func (s *Store) Remember(user, text string) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey(user)
	entries := append(s.memory[k], MemoryEntry{Text: text, At: now})
	entries = pruneMemory(entries, now, s.memoryTTL)
	if len(entries) > s.memoryLimit {
		entries = entries[len(entries)-s.memoryLimit:]
	}
	s.memory[k] = entries
}

// Recall returns the still-fresh utterances, oldest first.
func (s *Store) Recall(user string) []string {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey(user)
	entries := pruneMemory(s.memory[k], now, s.memoryTTL)
	s.memory[k] = entries
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

// CooldownOK reports whether the user may run a command now, and if so
// stamps the attempt.
func (s *Store) CooldownOK(user string, window time.Duration) bool {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey(user)
	if last, ok := s.cooldowns[k]; ok && now.Sub(last) < window {
		return false
	}
	s.cooldowns[k] = now
	return true
}

// Sweep drops idle cursors, abandoned ship sessions and stale memory.
func (s *Store) Sweep(searchIdle, shipIdle time.Duration) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, cur := range s.searches {
		if now.Sub(cur.UpdatedAt) > searchIdle {
			delete(s.searches, k)
		}
	}
	for id, sh := range s.ships {
		if now.Sub(sh.CreatedAt) > shipIdle {
			delete(s.ships, id)
		}
	}
	for k, entries := range s.memory {
		entries = pruneMemory(entries, now, s.memoryTTL)
		if len(entries) == 0 {
			delete(s.memory, k)
			continue
		}
		s.memory[k] = entries
	}
	for k, last := range s.cooldowns {
		if now.Sub(last) > time.Hour {
			delete(s.cooldowns, k)
		}
	}
}

func pruneMemory(entries []MemoryEntry, now time.Time, ttl time.Duration) []MemoryEntry {
	cut := 0
	for cut < len(entries) && now.Sub(entries[cut].At) > ttl {
		cut++
	}
	return entries[cut:]
}
