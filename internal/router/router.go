package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/config"
	"github.com/Marinerbyte/Cli-bot/internal/correlate"
	"github.com/Marinerbyte/Cli-bot/internal/dispatch"
	"github.com/Marinerbyte/Cli-bot/internal/duel"
	"github.com/Marinerbyte/Cli-bot/internal/history"
	"github.com/Marinerbyte/Cli-bot/internal/howdies"
	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"github.com/Marinerbyte/Cli-bot/internal/presence"
	"github.com/Marinerbyte/Cli-bot/internal/render"
	"github.com/Marinerbyte/Cli-bot/internal/search"
	"github.com/Marinerbyte/Cli-bot/internal/session"
	"github.com/Marinerbyte/Cli-bot/internal/snakeladder"
	"github.com/Marinerbyte/Cli-bot/internal/store"
	"github.com/Marinerbyte/Cli-bot/internal/util"
	"github.com/Marinerbyte/Cli-bot/internal/wyr"
	"go.uber.org/zap"
)

// Router parses inbound chat events and coordinates the feature managers.
// It holds no game lock while doing network or render work; handlers
// mutate state, release, then fan out.
type Router struct {
	cfg      *config.AppConfig
	disp     *dispatch.Dispatcher
	egress   howdies.Egress
	client   *howdies.Client
	presence *presence.Table
	corr     *correlate.Correlator
	sessions *session.Store
	boards   *snakeladder.Manager
	duels    *duel.Manager
	votes    *wyr.Manager
	settings *store.Store
	archive  history.Repository
	boardArt render.BoardRenderer
	cardArt  render.CardRenderer
	images   search.Provider

	mu         sync.Mutex
	startTimes map[string]time.Time // kind+room -> game start
}

type Deps struct {
	Cfg      *config.AppConfig
	Disp     *dispatch.Dispatcher
	Egress   howdies.Egress
	Client   *howdies.Client
	Presence *presence.Table
	Corr     *correlate.Correlator
	Sessions *session.Store
	Boards   *snakeladder.Manager
	Duels    *duel.Manager
	Votes    *wyr.Manager
	Settings *store.Store
	Archive  history.Repository
	BoardArt render.BoardRenderer
	CardArt  render.CardRenderer
	Images   search.Provider
}

func New(d Deps) *Router {
	return &Router{
		cfg:        d.Cfg,
		disp:       d.Disp,
		egress:     d.Egress,
		client:     d.Client,
		presence:   d.Presence,
		corr:       d.Corr,
		sessions:   d.Sessions,
		boards:     d.Boards,
		duels:      d.Duels,
		votes:      d.Votes,
		settings:   d.Settings,
		archive:    d.Archive,
		boardArt:   d.BoardArt,
		cardArt:    d.CardArt,
		images:     d.Images,
		startTimes: make(map[string]time.Time),
	}
}

// HandleEvent is the inbound entrypoint; the websocket callback spawns one
// goroutine per event so the receive loop never blocks.
func (r *Router) HandleEvent(ctx context.Context, ev *howdies.Event) {
	if ev == nil {
		return
	}
	switch ev.Handler {
	case howdies.HandlerRoomMessage:
		r.onRoomMessage(ctx, ev)
	case howdies.HandlerProfile:
		r.onProfile(ctx, ev)
	case howdies.HandlerRoomUsers:
		members := make([]presence.Member, 0, len(ev.Users))
		for _, u := range ev.Users {
			members = append(members, presence.Member{Username: u.Username, UserID: u.UserID})
		}
		r.presence.ReplaceRoom(ev.RoomID, ev.RoomName, members)
	case howdies.HandlerUserJoin:
		r.onUserJoin(ctx, ev)
	case howdies.HandlerUserLeave:
		r.onUserLeave(ctx, ev)
	case howdies.HandlerJoinRoom:
		if ev.Error != "" {
			obslog.L().Warn("room_join_rejected", zap.String("room", ev.RoomName), zap.String("error", ev.Error))
			return
		}
		obslog.L().Info("room_joined", zap.String("room", ev.RoomID), zap.String("name", ev.RoomName))
	}
}

func (r *Router) onRoomMessage(ctx context.Context, ev *howdies.Event) {
	user := strings.TrimSpace(ev.From)
	if user == "" || strings.EqualFold(user, r.cfg.BotUsername) {
		return
	}
	body := strings.TrimSpace(ev.Text)
	r.presence.Touch(ev.RoomID, user, ev.UserID, body)

	if strings.HasPrefix(body, r.cfg.BotPrefix) {
		r.handleCommand(ctx, ev.RoomID, user, ev.UserID, strings.TrimPrefix(body, r.cfg.BotPrefix))
		return
	}

	// plain chatter feeds the games and the short-term memory
	if res, ok := r.duels.Catch(ev.RoomID, user, body); ok {
		r.onDuelCatch(ctx, ev.RoomID, res)
		return
	}
	if r.votes.Vote(ev.RoomID, user, body) {
		return
	}
	r.sessions.Remember(user, body)
}

func (r *Router) onUserJoin(ctx context.Context, ev *howdies.Event) {
	r.presence.Join(ev.RoomID, ev.RoomName, ev.Username, ev.UserID)

	mode := r.settings.WelcomeMode(ctx, ev.RoomID)
	if mode == store.WelcomeOff {
		return
	}
	resp := r.disp.ForRoom(ev.RoomID)
	greeting, hasCustom := r.settings.Greeting(ctx, ev.Username)

	if mode == store.WelcomeSimple {
		if hasCustom {
			resp.Raw(ctx, util.ClampMessage(greeting))
			return
		}
		resp.Say(ctx, "welcome.simple", map[string]any{"Room": ev.RoomName, "User": ev.Username})
		return
	}

	// dp mode: greet once the avatar lookup resolves
	if _, err := r.corr.Issue(correlate.KindWelcomeAvatar, r.cfg.BotUsername, ev.Username, ev.RoomID, ""); err != nil {
		return
	}
	if err := r.egress.RequestProfile(ctx, ev.Username); err != nil {
		obslog.L().Warn("profile_request_fail", zap.String("user", ev.Username), zap.Error(err))
	}
}

func (r *Router) onUserLeave(ctx context.Context, ev *howdies.Event) {
	r.presence.Leave(ev.RoomID, ev.Username)
	resp := r.disp.ForRoom(ev.RoomID)

	if res, gone := r.duels.PlayerLeft(ev.RoomID, ev.Username); gone && res != nil {
		resp.Say(ctx, "duel.forfeit", map[string]any{"Leaver": res.Loser.Name, "Winner": res.Winner.Name})
		r.finishDuel(ctx, resp, *res)
	}

	if qr, err := r.boards.Remove(ev.RoomID, ev.Username); err == nil {
		r.announceBoardQuit(ctx, resp, qr)
	}
}

// onProfile consumes the ticket waiting on this reply and routes by kind.
func (r *Router) onProfile(ctx context.Context, ev *howdies.Event) {
	ticket, ok := r.corr.Resolve(ev.Username)
	if !ok {
		return
	}
	p := correlate.Profile{
		Username:  ev.Username,
		UserID:    ev.UserID,
		AvatarURL: ev.Avatar,
		NotFound:  ev.Error != "",
	}
	resp := r.disp.ForRoom(ticket.RoomID)

	switch ticket.Kind {
	case correlate.KindLobbyJoin:
		r.resolveLobbyJoin(ctx, resp, ticket, p)
	case correlate.KindDuelAvatar:
		r.duels.ApplyAvatar(ticket.RoomID, p.Username, p.UserID, p.AvatarURL)
	case correlate.KindWelcomeAvatar:
		r.resolveWelcome(ctx, resp, ticket, p)
	case correlate.KindShipCard:
		r.resolveShipAvatar(ctx, resp, ticket, p)
	case correlate.KindVizCard:
		r.resolveVizCard(ctx, resp, ticket, p)
	case correlate.KindFullProfile:
		r.resolveFullProfile(ctx, resp, ticket, p)
	case correlate.KindAvatarOnly:
		if p.NotFound || p.AvatarURL == "" {
			resp.Say(ctx, "common.user_not_found", map[string]any{"Target": ticket.Target})
			return
		}
		resp.Image(ctx, p.AvatarURL)
	}
}

// SweepFast runs on the turn cadence: board clocks, duel deadlines, vote
// closes.
func (r *Router) SweepFast(ctx context.Context) {
	for _, ev := range r.boards.Tick() {
		r.onBoardTick(ctx, ev)
	}
	for _, ev := range r.duels.Tick() {
		r.onDuelTick(ctx, ev)
	}
	for _, res := range r.votes.Tick() {
		r.announceVoteResult(ctx, res)
	}
}

// SweepSlow runs on the staleness cadence.
func (r *Router) SweepSlow(ctx context.Context) {
	r.sessions.Sweep(time.Duration(r.cfg.SearchIdleMin)*time.Minute, time.Duration(r.cfg.SessionIdleMin)*time.Minute)
	expired := r.corr.Sweep(time.Duration(r.cfg.SearchIdleMin) * time.Minute)
	for _, t := range expired {
		if t.Kind == correlate.KindLobbyJoin {
			r.boards.AbortJoin(t.RoomID, t.Target)
			r.disp.ForRoom(t.RoomID).Say(ctx, "common.profile_timeout", map[string]any{"Target": t.Target})
		}
		obslog.L().Debug("lookup_expired", zap.String("kind", string(t.Kind)), zap.String("target", t.Target))
	}
}

func (r *Router) markStart(kind, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTimes[kind+"|"+roomID] = time.Now()
}

func (r *Router) takeStart(kind, roomID string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := kind + "|" + roomID
	t, ok := r.startTimes[k]
	if !ok {
		return time.Now()
	}
	delete(r.startTimes, k)
	return t
}

func (r *Router) isStoreDisabled(err error) bool {
	return errors.Is(err, store.ErrDisabled)
}

func (r *Router) tmplData(extra map[string]any) map[string]any {
	data := map[string]any{"Prefix": r.cfg.BotPrefix}
	for k, v := range extra {
		data[k] = v
	}
	return data
}
