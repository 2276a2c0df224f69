package presence

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry tracks one user's standing in one room. A user has one entry per
// room they are currently in.
type Entry struct {
	Username        string
	UserID          string
	RoomID          string
	RoomName        string
	JoinTime        time.Time
	LastMessage     string
	LastMessageTime time.Time
}

type Member struct {
	Username string
	UserID   string
}

type entryKey struct {
	user string // lowercase
	room string
}

// Table is the presence registry. It owns its entries exclusively; callers
// only ever see copies.
type Table struct {
	mu      sync.RWMutex
	entries map[entryKey]*Entry

	clock func() time.Time
}

func NewTable() *Table {
	return &Table{entries: make(map[entryKey]*Entry), clock: time.Now}
}

// ReplaceRoom swaps the whole roster for a room, as delivered by a roster
// snapshot. Join times of users already present are preserved.
func (t *Table) ReplaceRoom(roomID, roomName string, members []Member) {
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := make(map[entryKey]*Entry, len(members))
	for _, m := range members {
		k := entryKey{user: strings.ToLower(m.Username), room: roomID}
		if prev, ok := t.entries[k]; ok {
			prev.UserID = m.UserID
			prev.RoomName = roomName
			kept[k] = prev
			continue
		}
		kept[k] = &Entry{
			Username: m.Username,
			UserID:   m.UserID,
			RoomID:   roomID,
			RoomName: roomName,
			JoinTime: now,
		}
	}
	for k := range t.entries {
		if k.room == roomID {
			delete(t.entries, k)
		}
	}
	for k, e := range kept {
		t.entries[k] = e
	}
}

func (t *Table) Join(roomID, roomName, username, userID string) {
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	k := entryKey{user: strings.ToLower(username), room: roomID}
	if prev, ok := t.entries[k]; ok {
		prev.UserID = userID
		prev.RoomName = roomName
		return
	}
	t.entries[k] = &Entry{
		Username: username,
		UserID:   userID,
		RoomID:   roomID,
		RoomName: roomName,
		JoinTime: now,
	}
}

func (t *Table) Leave(roomID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, entryKey{user: strings.ToLower(username), room: roomID})
}

// Touch records a message from a user. Unknown users are inserted so that
// presence survives missed join events.
func (t *Table) Touch(roomID, username, userID, message string) {
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	k := entryKey{user: strings.ToLower(username), room: roomID}
	e, ok := t.entries[k]
	if !ok {
		e = &Entry{Username: username, UserID: userID, RoomID: roomID, JoinTime: now}
		t.entries[k] = e
	}
	if userID != "" {
		e.UserID = userID
	}
	e.LastMessage = message
	e.LastMessageTime = now
}

// Get returns a copy of the entry for (username, room).
func (t *Table) Get(roomID, username string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[entryKey{user: strings.ToLower(username), room: roomID}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// RoomMembers lists the room's entries sorted by username.
func (t *Table) RoomMembers(roomID string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Entry
	for k, e := range t.entries {
		if k.room == roomID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out
}

func (t *Table) RemoveRoom(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.entries {
		if k.room == roomID {
			delete(t.entries, k)
		}
	}
}
