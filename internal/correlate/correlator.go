package correlate

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind tags what a profile reply should be used for once it arrives.
type Kind string

const (
	KindFullProfile   Kind = "full_profile"
	KindAvatarOnly    Kind = "avatar_only"
	KindWelcomeAvatar Kind = "welcome_avatar"
	KindDuelAvatar    Kind = "duel_avatar"
	KindLobbyJoin     Kind = "lobby_join"
	KindVizCard       Kind = "viz_card"
	KindShipCard      Kind = "ship_card"
)

var (
	ErrInvalidArgs      = errors.New("invalid arguments")
	ErrDuplicatePending = errors.New("a lookup for this user is already pending")
)

// Profile is the resolved payload delivered by the chat service.
type Profile struct {
	Username  string
	UserID    string
	AvatarURL string
	NotFound  bool
}

// Ticket is one pending asynchronous profile lookup. The reply dispatcher
// routes on Kind; Ref carries an opaque pointer into the issuing feature's
// own state (e.g. a ship session key).
type Ticket struct {
	ID        string
	Kind      Kind
	Requester string
	Target    string // lowercase
	RoomID    string
	Ref       string
	CreatedAt time.Time
}

// Correlator matches out-of-order profile replies back to the operation
// that asked for them. At most one ticket per (requester, target) pair.
type Correlator struct {
	mu      sync.Mutex
	tickets map[pairKey]*Ticket

	clock func() time.Time
}

type pairKey struct {
	requester string
	target    string
}

func New() *Correlator {
	return &Correlator{tickets: make(map[pairKey]*Ticket), clock: time.Now}
}

// Issue registers a pending lookup. A second lookup for the same
// (requester, target) pair before the first resolves is rejected; callers
// must serialize per key.
func (c *Correlator) Issue(kind Kind, requester, target, roomID, ref string) (*Ticket, error) {
	req := strings.ToLower(strings.TrimSpace(requester))
	tgt := strings.ToLower(strings.TrimSpace(target))
	if req == "" || tgt == "" {
		return nil, ErrInvalidArgs
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := pairKey{requester: req, target: tgt}
	if _, exists := c.tickets[k]; exists {
		return nil, ErrDuplicatePending
	}
	t := &Ticket{
		ID:        uuid.NewString(),
		Kind:      kind,
		Requester: req,
		Target:    tgt,
		RoomID:    roomID,
		Ref:       ref,
		CreatedAt: c.clock(),
	}
	c.tickets[k] = t
	return t, nil
}

// Resolve consumes the oldest ticket waiting on the given target username.
// The reply carries no requester, so the match is by target alone.
func (c *Correlator) Resolve(target string) (*Ticket, bool) {
	tgt := strings.ToLower(strings.TrimSpace(target))
	if tgt == "" {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		bestKey pairKey
		best    *Ticket
	)
	for k, t := range c.tickets {
		if k.target != tgt {
			continue
		}
		if best == nil || t.CreatedAt.Before(best.CreatedAt) {
			best, bestKey = t, k
		}
	}
	if best == nil {
		return nil, false
	}
	delete(c.tickets, bestKey)
	return best, true
}

// Sweep drops tickets older than maxAge and returns them so callers can
// notify the requesters. Lookups that never resolve must not pile up.
func (c *Correlator) Sweep(maxAge time.Duration) []*Ticket {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	var expired []*Ticket
	for k, t := range c.tickets {
		if now.Sub(t.CreatedAt) > maxAge {
			expired = append(expired, t)
			delete(c.tickets, k)
		}
	}
	return expired
}

func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickets)
}
