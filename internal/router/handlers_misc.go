package router

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/correlate"
	"github.com/Marinerbyte/Cli-bot/internal/dispatch"
	"github.com/Marinerbyte/Cli-bot/internal/domain"
	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"github.com/Marinerbyte/Cli-bot/internal/search"
	"github.com/Marinerbyte/Cli-bot/internal/store"
	"github.com/Marinerbyte/Cli-bot/internal/util"
	"go.uber.org/zap"
)

const (
	searchPageSize = 10
	recentLimit    = 5
)

// handleCommand parses and dispatches one prefixed message.
func (r *Router) handleCommand(ctx context.Context, roomID, user, userID, body string) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	resp := r.disp.ForRoom(roomID)

	if !r.cfg.IsMaster(user) && !r.sessions.CooldownOK(user, time.Duration(r.cfg.CooldownSec)*time.Second) {
		resp.Say(ctx, "common.cooldown", map[string]any{"User": user})
		return
	}

	obslog.L().Debug("command", zap.String("room", roomID), zap.String("user", user), zap.String("cmd", cmd))

	switch cmd {
	case "help":
		resp.Say(ctx, "common.help", r.tmplData(nil))
	case "ping":
		resp.Raw(ctx, "pong 🏓")

	case "sl", "sandl":
		r.cmdBoardOpen(ctx, resp, roomID, user)
	case "join", "j":
		r.cmdBoardJoin(ctx, resp, roomID, user)
	case "start":
		r.cmdBoardStart(ctx, resp, roomID, user)
	case "roll", "r":
		r.cmdBoardRoll(ctx, resp, roomID, user)
	case "quit", "leave":
		r.cmdBoardQuit(ctx, resp, roomID, user)
	case "kick":
		r.cmdBoardKick(ctx, resp, roomID, user, args)
	case "cancelgame":
		r.cmdBoardCancel(ctx, resp, roomID, user)

	case "duel":
		r.cmdDuel(ctx, resp, roomID, user, userID, args)
	case "accept":
		r.cmdDuelAccept(ctx, resp, roomID, user)
	case "fake":
		r.cmdDuelFake(ctx, resp, roomID, user)
	case "cancelduel":
		r.cmdDuelCancel(ctx, resp, roomID, user)

	case "wyr":
		r.cmdWyr(ctx, resp, roomID)

	case "seen":
		r.cmdSeen(ctx, resp, roomID, args)
	case "img":
		r.cmdImg(ctx, resp, user, args)
	case "more":
		r.cmdMore(ctx, resp, user)
	case "ship":
		r.cmdShip(ctx, resp, roomID, user, args)
	case "viz":
		r.cmdViz(ctx, resp, roomID, user, args)
	case "whois":
		r.cmdLookup(ctx, resp, roomID, user, args, correlate.KindFullProfile)
	case "dp":
		r.cmdLookup(ctx, resp, roomID, user, args, correlate.KindAvatarOnly)
	case "stats":
		r.cmdStats(ctx, resp, user, args)
	case "recent":
		r.cmdRecent(ctx, resp, roomID, args)
	case "welcome":
		r.cmdWelcome(ctx, resp, roomID, user, args)
	case "greet":
		r.cmdGreet(ctx, resp, user, args)

	default:
		resp.Say(ctx, "common.unknown_command", r.tmplData(nil))
	}
}

func (r *Router) cmdSeen(ctx context.Context, resp dispatch.Responder, roomID string, args []string) {
	if len(args) == 0 {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	target := util.NormalizeUsername(args[0])
	e, ok := r.presence.Get(roomID, target)
	if !ok {
		resp.Say(ctx, "seen.not_found", map[string]any{"Target": target})
		return
	}
	joinedAgo := util.HumanDuration(time.Since(e.JoinTime))
	if e.LastMessage == "" {
		resp.Say(ctx, "seen.found_quiet", map[string]any{
			"User": e.Username, "Room": e.RoomName, "JoinedAgo": joinedAgo,
		})
		return
	}
	resp.Say(ctx, "seen.found", map[string]any{
		"User":        e.Username,
		"Room":        e.RoomName,
		"JoinedAgo":   joinedAgo,
		"LastAgo":     util.HumanDuration(time.Since(e.LastMessageTime)),
		"LastMessage": util.TruncateText(e.LastMessage, 120),
	})
}

func (r *Router) cmdImg(ctx context.Context, resp dispatch.Responder, user string, args []string) {
	if len(args) == 0 {
		resp.Say(ctx, "img.usage", r.tmplData(nil))
		return
	}
	query := strings.Join(args, " ")
	urls, err := r.images.Search(ctx, query, searchPageSize)
	if err != nil {
		if errors.Is(err, search.ErrUnconfigured) {
			resp.Say(ctx, "common.action_failed", nil)
			return
		}
		obslog.L().Warn("image_search_fail", zap.String("query", query), zap.Error(err))
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	if len(urls) == 0 {
		resp.Say(ctx, "img.none", map[string]any{"Query": query})
		return
	}
	r.sessions.SetSearch(user, query, urls)
	r.cmdMore(ctx, resp, user)
}

func (r *Router) cmdMore(ctx context.Context, resp dispatch.Responder, user string) {
	url, cur, ok, exhausted := r.sessions.NextSearch(user)
	if !ok {
		resp.Say(ctx, "img.usage", r.tmplData(nil))
		return
	}
	if exhausted {
		resp.Say(ctx, "img.no_more", r.tmplData(map[string]any{"Query": cur.Query}))
		return
	}
	resp.Say(ctx, "img.caption", map[string]any{"Query": cur.Query, "Index": cur.Index, "Total": len(cur.Results)})
	resp.Image(ctx, url)
}

func (r *Router) cmdShip(ctx context.Context, resp dispatch.Responder, roomID, user string, args []string) {
	if len(args) < 2 {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	nameA := util.NormalizeUsername(args[0])
	nameB := util.NormalizeUsername(args[1])
	if nameA == "" || nameB == "" || nameA == nameB {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	sh := r.sessions.NewShip(roomID, user, nameA, nameB)
	issued := 0
	for _, name := range []string{nameA, nameB} {
		if _, err := r.corr.Issue(correlate.KindShipCard, user, name, roomID, sh.ID); err != nil {
			continue
		}
		issued++
		if err := r.egress.RequestProfile(ctx, name); err != nil {
			obslog.L().Warn("profile_request_fail", zap.String("user", name), zap.Error(err))
		}
	}
	if issued == 0 {
		r.sessions.DeleteShip(sh.ID)
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	resp.Say(ctx, "ship.pending", nil)
}

func (r *Router) resolveShipAvatar(ctx context.Context, resp dispatch.Responder, t *correlate.Ticket, p correlate.Profile) {
	if p.NotFound {
		r.sessions.DeleteShip(t.Ref)
		resp.Say(ctx, "common.user_not_found", map[string]any{"Target": t.Target})
		return
	}
	sh, found, complete := r.sessions.ApplyShipAvatar(t.Ref, t.Target, p.AvatarURL)
	if !found || !complete {
		return
	}
	go func() {
		bg := context.WithoutCancel(ctx)
		percent := shipPercent(sh.NameA, sh.NameB)
		png, err := r.cardArt.RenderShipCard(bg, sh.NameA, sh.NameB,
			r.fetchAvatar(bg, sh.AvatarA), r.fetchAvatar(bg, sh.AvatarB), percent)
		if err != nil {
			obslog.L().Warn("ship_card_render_fail", zap.Error(err))
		} else if url, err := r.client.UploadImage(bg, "ship-"+sh.ID+".png", png); err == nil {
			resp.Image(bg, url)
		}
		comment := r.disp.Render("ship.comment_low", nil)
		switch {
		case percent >= 70:
			comment = r.disp.Render("ship.comment_high", nil)
		case percent >= 40:
			comment = r.disp.Render("ship.comment_mid", nil)
		}
		resp.Say(bg, "ship.result", map[string]any{
			"A": sh.NameA, "B": sh.NameB, "Percent": percent, "Comment": comment,
		})
	}()
}

// shipPercent is a stable score: same pair, same number, in either order.
func shipPercent(a, b string) int {
	names := []string{strings.ToLower(a), strings.ToLower(b)}
	sort.Strings(names)
	h := fnv.New32a()
	h.Write([]byte(names[0] + "+" + names[1]))
	return int(h.Sum32() % 101)
}

func (r *Router) cmdViz(ctx context.Context, resp dispatch.Responder, roomID, user string, args []string) {
	target := user
	if len(args) > 0 {
		target = util.NormalizeUsername(args[0])
	}
	if _, err := r.corr.Issue(correlate.KindVizCard, user, target, roomID, ""); err != nil {
		if !errors.Is(err, correlate.ErrDuplicatePending) {
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	if err := r.egress.RequestProfile(ctx, target); err != nil {
		obslog.L().Warn("profile_request_fail", zap.String("user", target), zap.Error(err))
	}
}

func (r *Router) resolveVizCard(ctx context.Context, resp dispatch.Responder, t *correlate.Ticket, p correlate.Profile) {
	if p.NotFound {
		resp.Say(ctx, "common.user_not_found", map[string]any{"Target": t.Target})
		return
	}
	go func() {
		bg := context.WithoutCancel(ctx)
		st, err := r.settings.Stats(bg, p.Username)
		if err != nil && !r.isStoreDisabled(err) {
			obslog.L().Warn("stats_read_fail", zap.String("user", p.Username), zap.Error(err))
		}
		png, err := r.cardArt.RenderProfileCard(bg, p.Username, r.fetchAvatar(bg, p.AvatarURL), st.DuelWins, st.BoardWins)
		if err != nil {
			obslog.L().Warn("profile_card_render_fail", zap.Error(err))
			return
		}
		url, err := r.client.UploadImage(bg, "viz-"+strings.ToLower(p.Username)+".png", png)
		if err != nil {
			obslog.L().Warn("profile_card_upload_fail", zap.Error(err))
			return
		}
		resp.Image(bg, url)
	}()
}

func (r *Router) cmdLookup(ctx context.Context, resp dispatch.Responder, roomID, user string, args []string, kind correlate.Kind) {
	if len(args) == 0 {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	target := util.NormalizeUsername(args[0])
	if _, err := r.corr.Issue(kind, user, target, roomID, ""); err != nil {
		if !errors.Is(err, correlate.ErrDuplicatePending) {
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	if err := r.egress.RequestProfile(ctx, target); err != nil {
		obslog.L().Warn("profile_request_fail", zap.String("user", target), zap.Error(err))
	}
}

func (r *Router) resolveFullProfile(ctx context.Context, resp dispatch.Responder, t *correlate.Ticket, p correlate.Profile) {
	if p.NotFound {
		resp.Say(ctx, "common.user_not_found", map[string]any{"Target": t.Target})
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s", p.Username)
	if p.UserID != "" {
		fmt.Fprintf(&b, " (id %s)", p.UserID)
	}
	if e, ok := r.presence.Get(t.RoomID, p.Username); ok && !e.JoinTime.IsZero() {
		fmt.Fprintf(&b, "\njoined %s ago", util.HumanDuration(time.Since(e.JoinTime)))
	}
	if recalled := r.sessions.Recall(p.Username); len(recalled) > 0 {
		fmt.Fprintf(&b, "\nlast said: %q", util.TruncateText(recalled[len(recalled)-1], 120))
	}
	resp.Raw(ctx, b.String())
	if p.AvatarURL != "" {
		resp.Image(ctx, p.AvatarURL)
	}
}

func (r *Router) resolveWelcome(ctx context.Context, resp dispatch.Responder, t *correlate.Ticket, p correlate.Profile) {
	if greeting, ok := r.settings.Greeting(ctx, t.Target); ok {
		resp.Raw(ctx, util.ClampMessage(greeting))
	} else {
		room := t.RoomID
		if e, found := r.presence.Get(t.RoomID, t.Target); found && e.RoomName != "" {
			room = e.RoomName
		}
		resp.Say(ctx, "welcome.simple", map[string]any{"Room": room, "User": p.Username})
	}
	if !p.NotFound && p.AvatarURL != "" {
		resp.Image(ctx, p.AvatarURL)
	}
}

func (r *Router) cmdStats(ctx context.Context, resp dispatch.Responder, user string, args []string) {
	target := user
	if len(args) > 0 {
		target = util.NormalizeUsername(args[0])
	}
	st, err := r.settings.Stats(ctx, target)
	if err != nil {
		if !r.isStoreDisabled(err) {
			obslog.L().Warn("stats_read_fail", zap.String("user", target), zap.Error(err))
		}
		resp.Say(ctx, "stats.none", map[string]any{"User": target})
		return
	}
	if st.DuelWins == 0 && st.BoardWins == 0 {
		resp.Say(ctx, "stats.none", map[string]any{"User": target})
		return
	}
	resp.Say(ctx, "stats.line", map[string]any{
		"User": target, "DuelWins": st.DuelWins, "BoardWins": st.BoardWins,
	})
}

func (r *Router) cmdRecent(ctx context.Context, resp dispatch.Responder, roomID string, args []string) {
	var (
		recs []*domain.GameRecord
		err  error
	)
	if len(args) > 0 {
		recs, err = r.archive.RecentWins(ctx, util.NormalizeUsername(args[0]), recentLimit)
	} else {
		recs, err = r.archive.RecentGames(ctx, roomID, recentLimit)
	}
	if err != nil {
		obslog.L().Warn("recent_games_fail", zap.Error(err))
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	if len(recs) == 0 {
		resp.Say(ctx, "recent.none", nil)
		return
	}
	var b strings.Builder
	b.WriteString("🗂 Recent games:")
	for _, rec := range recs {
		fmt.Fprintf(&b, "\n• %s won %s (%s), %s ago",
			rec.Winner, gameLabel(rec.Kind), rec.Scoreline, util.HumanDuration(time.Since(rec.EndedAt)))
	}
	resp.Raw(ctx, b.String())
}

func gameLabel(k domain.GameKind) string {
	switch k {
	case domain.GameSnakeLadder:
		return "Snake & Ladder"
	case domain.GameEmojiDuel:
		return "Emoji Duel"
	default:
		return string(k)
	}
}

func (r *Router) cmdWelcome(ctx context.Context, resp dispatch.Responder, roomID, user string, args []string) {
	if !r.cfg.IsMaster(user) {
		return
	}
	if len(args) == 0 {
		resp.Say(ctx, "welcome.usage", r.tmplData(nil))
		return
	}
	mode := strings.ToLower(args[0])
	switch mode {
	case store.WelcomeOff, store.WelcomeSimple, store.WelcomeDP:
	default:
		resp.Say(ctx, "welcome.usage", r.tmplData(nil))
		return
	}
	if err := r.settings.SetWelcomeMode(ctx, roomID, mode); err != nil {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	resp.Say(ctx, "welcome.set", map[string]any{"Mode": mode})
}

func (r *Router) cmdGreet(ctx context.Context, resp dispatch.Responder, user string, args []string) {
	if len(args) == 0 {
		resp.Say(ctx, "greet.usage", r.tmplData(nil))
		return
	}
	text := util.ClampMessage(strings.Join(args, " "))
	if err := r.settings.SetGreeting(ctx, user, text); err != nil {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	resp.Say(ctx, "greet.set", nil)
}
