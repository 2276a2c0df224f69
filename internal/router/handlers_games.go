package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/correlate"
	"github.com/Marinerbyte/Cli-bot/internal/dispatch"
	"github.com/Marinerbyte/Cli-bot/internal/domain"
	"github.com/Marinerbyte/Cli-bot/internal/duel"
	"github.com/Marinerbyte/Cli-bot/internal/history"
	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"github.com/Marinerbyte/Cli-bot/internal/snakeladder"
	"github.com/Marinerbyte/Cli-bot/internal/util"
	"github.com/Marinerbyte/Cli-bot/internal/wyr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// interRoundPause separates a round's end from the next announcement.
const interRoundPause = 1500 * time.Millisecond

func (r *Router) cmdBoardOpen(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	if err := r.boards.OpenLobby(roomID, user); err != nil {
		if errors.Is(err, snakeladder.ErrGameExists) {
			resp.Say(ctx, "sl.already_running", nil)
			return
		}
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	// the host's own profile resolves like any other join
	r.issueLobbyLookup(ctx, resp, roomID, user)
	resp.Say(ctx, "sl.opened", r.tmplData(map[string]any{"Host": user}))
}

func (r *Router) cmdBoardJoin(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	if err := r.boards.ReserveSeat(roomID, user); err != nil {
		switch {
		case errors.Is(err, snakeladder.ErrNoGame):
			resp.Say(ctx, "sl.no_game", r.tmplData(nil))
		case errors.Is(err, snakeladder.ErrNotLobby):
			resp.Say(ctx, "sl.join_not_lobby", nil)
		case errors.Is(err, snakeladder.ErrAlreadyJoined):
			resp.Say(ctx, "sl.join_dup", map[string]any{"User": user})
		case errors.Is(err, snakeladder.ErrLobbyFull):
			resp.Say(ctx, "sl.join_full", map[string]any{"Max": r.cfg.LobbyMaxPlayers})
		default:
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	r.issueLobbyLookup(ctx, resp, roomID, user)
}

// issueLobbyLookup ties a reserved seat to its profile reply. A failed
// issue rolls the seat back so the lobby never holds ghosts.
func (r *Router) issueLobbyLookup(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	if _, err := r.corr.Issue(correlate.KindLobbyJoin, r.cfg.BotUsername, user, roomID, ""); err != nil {
		if !errors.Is(err, correlate.ErrDuplicatePending) {
			r.boards.AbortJoin(roomID, user)
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	if err := r.egress.RequestProfile(ctx, user); err != nil {
		obslog.L().Warn("profile_request_fail", zap.String("user", user), zap.Error(err))
	}
}

func (r *Router) resolveLobbyJoin(ctx context.Context, resp dispatch.Responder, t *correlate.Ticket, p correlate.Profile) {
	if p.NotFound {
		r.boards.AbortJoin(t.RoomID, t.Target)
		resp.Say(ctx, "common.user_not_found", map[string]any{"Target": t.Target})
		return
	}
	count, ok := r.boards.CompleteJoin(t.RoomID, p.Username, p.UserID, p.AvatarURL)
	if !ok {
		return
	}
	resp.Say(ctx, "sl.joined", map[string]any{"User": p.Username, "Count": count})
}

func (r *Router) cmdBoardStart(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	res, err := r.boards.Start(roomID, user)
	if err != nil {
		switch {
		case errors.Is(err, snakeladder.ErrNoGame):
			resp.Say(ctx, "sl.no_game", r.tmplData(nil))
		case errors.Is(err, snakeladder.ErrNotHost):
			host, _ := r.boards.Host(roomID)
			resp.Say(ctx, "sl.start_not_host", map[string]any{"Host": host})
		case errors.Is(err, snakeladder.ErrNotEnoughPlayers):
			resp.Say(ctx, "sl.start_need_players", map[string]any{"Min": r.cfg.LobbyMinPlayers})
		case errors.Is(err, snakeladder.ErrStillResolving):
			resp.Say(ctx, "sl.start_resolving", nil)
		case errors.Is(err, snakeladder.ErrNotLobby):
			resp.Say(ctx, "sl.already_running", nil)
		default:
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	r.markStart(string(domain.GameSnakeLadder), roomID)
	if len(res.Dropped) > 0 {
		resp.Say(ctx, "sl.dropped", map[string]any{"Dropped": strings.Join(res.Dropped, ", ")})
	}
	resp.Say(ctx, "sl.started", r.tmplData(map[string]any{
		"Order": strings.Join(res.Order, " → "),
		"First": res.FirstPlayer,
	}))
	go r.postBoard(context.WithoutCancel(ctx), resp, roomID)
}

func (r *Router) cmdBoardRoll(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	res, err := r.boards.Roll(roomID, user)
	if err != nil {
		switch {
		case errors.Is(err, snakeladder.ErrNoGame), errors.Is(err, snakeladder.ErrNotActive):
			resp.Say(ctx, "sl.no_game", r.tmplData(nil))
		case errors.Is(err, snakeladder.ErrNotYourTurn):
			cur := ""
			if v, ok := r.boards.Snapshot(roomID); ok {
				cur = v.CurrentPlayer
			}
			resp.Say(ctx, "sl.not_your_turn", map[string]any{"User": user, "Current": cur})
		default:
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}

	resp.Say(ctx, "sl.rolled", map[string]any{"User": res.Username, "Die": res.Die, "From": res.From, "To": res.To})
	if res.Remap != nil {
		key := "sl.ladder"
		if res.Remap.Kind == snakeladder.RemapSnake {
			key = "sl.snake"
		}
		resp.Say(ctx, key, map[string]any{"User": res.Username, "From": res.Remap.From, "To": res.Remap.To})
	}
	if res.Finished {
		resp.Say(ctx, "sl.finished", map[string]any{"User": res.Username, "Rank": res.Rank})
	}
	if res.GameOver {
		r.finishBoard(ctx, resp, roomID, res.Standings, "win")
		return
	}
	resp.Say(ctx, "sl.turn_next", r.tmplData(map[string]any{"User": res.NextPlayer}))
	go r.postBoard(context.WithoutCancel(ctx), resp, roomID)
}

func (r *Router) cmdBoardQuit(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	res, err := r.boards.Remove(roomID, user)
	if err != nil {
		if errors.Is(err, snakeladder.ErrNoGame) {
			resp.Say(ctx, "sl.no_game", r.tmplData(nil))
		} else {
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	resp.Say(ctx, "sl.quit", map[string]any{"User": res.Username})
	r.announceBoardQuit(ctx, resp, res)
}

func (r *Router) cmdBoardKick(ctx context.Context, resp dispatch.Responder, roomID, actor string, args []string) {
	if len(args) == 0 {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	target := util.NormalizeUsername(args[0])
	host, ok := r.boards.Host(roomID)
	if !ok {
		resp.Say(ctx, "sl.no_game", r.tmplData(nil))
		return
	}
	if !strings.EqualFold(actor, host) && !r.cfg.IsMaster(actor) {
		resp.Say(ctx, "sl.start_not_host", map[string]any{"Host": host})
		return
	}
	res, err := r.boards.Remove(roomID, target)
	if err != nil {
		resp.Say(ctx, "common.user_not_found", map[string]any{"Target": target})
		return
	}
	resp.Say(ctx, "sl.kicked", map[string]any{"User": res.Username, "Actor": actor})
	r.announceBoardQuit(ctx, resp, res)
}

func (r *Router) cmdBoardCancel(ctx context.Context, resp dispatch.Responder, roomID, actor string) {
	host, ok := r.boards.Host(roomID)
	if !ok {
		resp.Say(ctx, "sl.no_game", r.tmplData(nil))
		return
	}
	if !strings.EqualFold(actor, host) && !r.cfg.IsMaster(actor) {
		resp.Say(ctx, "sl.start_not_host", map[string]any{"Host": host})
		return
	}
	if r.boards.Cancel(roomID) {
		resp.Say(ctx, "sl.cancelled", nil)
	}
}

func (r *Router) announceBoardQuit(ctx context.Context, resp dispatch.Responder, res *snakeladder.QuitResult) {
	if res.Cancelled {
		resp.Say(ctx, "sl.cancelled", nil)
		return
	}
	if res.NextPlayer != "" && res.WasCurrent {
		resp.Say(ctx, "sl.turn_next", r.tmplData(map[string]any{"User": res.NextPlayer}))
	}
}

func (r *Router) onBoardTick(ctx context.Context, ev snakeladder.TickEvent) {
	resp := r.disp.ForRoom(ev.RoomID)
	switch ev.Kind {
	case snakeladder.TickWarn1:
		resp.Say(ctx, "sl.warn1", map[string]any{"User": ev.Username})
	case snakeladder.TickWarn2:
		resp.Say(ctx, "sl.warn2", map[string]any{"User": ev.Username})
	case snakeladder.TickEliminate:
		resp.Say(ctx, "sl.eliminated", map[string]any{"User": ev.Username})
		resp.Kick(ctx, ev.Username)
	case snakeladder.TickDefaultWinner:
		resp.Say(ctx, "sl.default_winner", map[string]any{"User": ev.Username})
	case snakeladder.TickGameOver:
		r.finishBoard(ctx, resp, ev.RoomID, ev.Standings, "default")
	case snakeladder.TickTurnNext:
		resp.Say(ctx, "sl.turn_next", r.tmplData(map[string]any{"User": ev.Username}))
		go r.postBoard(context.WithoutCancel(ctx), resp, ev.RoomID)
	case snakeladder.TickIdleCancel:
		resp.Say(ctx, "sl.idle_cancelled", nil)
	}
}

func (r *Router) finishBoard(ctx context.Context, resp dispatch.Responder, roomID string, standings []snakeladder.Standing, outcome string) {
	var lines []string
	for _, s := range standings {
		lines = append(lines, fmt.Sprintf("#%d %s", s.Rank, s.Username))
	}
	resp.Say(ctx, "sl.game_over", map[string]any{"Standings": strings.Join(lines, "\n")})

	if len(standings) == 0 {
		return
	}
	startedAt := r.takeStart(string(domain.GameSnakeLadder), roomID)
	winner := standings[0].Username
	players := make([]string, 0, len(standings))
	for _, s := range standings {
		players = append(players, strings.ToLower(s.Username))
	}
	go func() {
		bg := context.WithoutCancel(ctx)
		if err := r.settings.RecordBoardWin(bg, winner); err != nil && !r.isStoreDisabled(err) {
			obslog.L().Warn("stats_record_fail", zap.String("user", winner), zap.Error(err))
		}
		r.archiveGame(bg, &domain.GameRecord{
			GameUUID:  uuid.NewString(),
			Kind:      domain.GameSnakeLadder,
			RoomID:    roomID,
			Winner:    winner,
			Players:   players,
			Scoreline: fmt.Sprintf("%d finishers", len(standings)),
			Outcome:   outcome,
			StartedAt: startedAt,
			EndedAt:   time.Now(),
			Duration:  time.Since(startedAt),
		})
	}()
}

// postBoard renders and uploads the board outside any game lock. Best
// effort; a failed render leaves the text flow intact.
func (r *Router) postBoard(ctx context.Context, resp dispatch.Responder, roomID string) {
	view, ok := r.boards.Snapshot(roomID)
	if !ok {
		return
	}
	png, err := r.boardArt.RenderBoard(ctx, view)
	if err != nil {
		obslog.L().Warn("board_render_fail", zap.String("room", roomID), zap.Error(err))
		return
	}
	url, err := r.client.UploadImage(ctx, "board-"+roomID+".png", png)
	if err != nil {
		obslog.L().Warn("board_upload_fail", zap.String("room", roomID), zap.Error(err))
		return
	}
	resp.Image(ctx, url)
}

func (r *Router) cmdDuel(ctx context.Context, resp dispatch.Responder, roomID, user, userID string, args []string) {
	if len(args) == 0 {
		resp.Say(ctx, "common.action_failed", nil)
		return
	}
	target := util.NormalizeUsername(args[0])
	if err := r.duels.Challenge(roomID, user, userID, target); err != nil {
		switch {
		case errors.Is(err, duel.ErrDuelExists):
			resp.Say(ctx, "duel.already_running", nil)
		case errors.Is(err, duel.ErrSelfDuel):
			resp.Say(ctx, "duel.self", nil)
		default:
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	// both sides need avatars for the result card
	for _, name := range []string{user, target} {
		if _, err := r.corr.Issue(correlate.KindDuelAvatar, user, name, roomID, ""); err == nil {
			if err := r.egress.RequestProfile(ctx, name); err != nil {
				obslog.L().Warn("profile_request_fail", zap.String("user", name), zap.Error(err))
			}
		}
	}
	resp.Say(ctx, "duel.challenged", r.tmplData(map[string]any{"Challenger": user, "Target": target}))
}

func (r *Router) cmdDuelAccept(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	res, err := r.duels.Accept(roomID, user)
	if err != nil {
		if errors.Is(err, duel.ErrNoDuel) || errors.Is(err, duel.ErrNotChallenged) || errors.Is(err, duel.ErrNotPending) {
			resp.Say(ctx, "duel.not_challenged", map[string]any{"User": user})
		} else {
			resp.Say(ctx, "common.action_failed", nil)
		}
		return
	}
	r.markStart(string(domain.GameEmojiDuel), roomID)
	resp.Say(ctx, "duel.begin", map[string]any{
		"P1":     res.P1.Name,
		"P2":     res.P2.Name,
		"Target": r.cfg.DuelTargetScore,
		"Rounds": r.cfg.DuelMaxRounds,
	})
	go r.startDuelRound(context.WithoutCancel(ctx), roomID)
}

// startDuelRound drives one round: announce, sleep the reveal delay, then
// open the catch window. The manager rejects the reveal if the duel moved
// on while this goroutine slept.
func (r *Router) startDuelRound(ctx context.Context, roomID string) {
	plan, err := r.duels.PrepareRound(roomID)
	if err != nil {
		return
	}
	resp := r.disp.ForRoom(roomID)
	resp.Say(ctx, "duel.round_start", map[string]any{"Round": plan.Round, "Emoji": plan.Target})

	select {
	case <-ctx.Done():
		return
	case <-time.After(plan.RevealDelay):
	}

	stream, ok := r.duels.Reveal(roomID, plan.Round)
	if !ok {
		return
	}
	resp.Say(ctx, "duel.stream", map[string]any{"Stream": stream})
}

func (r *Router) scheduleNextDuelRound(ctx context.Context, roomID string) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interRoundPause):
		}
		r.startDuelRound(ctx, roomID)
	}()
}

func (r *Router) onDuelCatch(ctx context.Context, roomID string, res *duel.CatchResult) {
	resp := r.disp.ForRoom(roomID)
	if res.FakeCaught {
		resp.Say(ctx, "duel.fake_caught", map[string]any{"User": res.Caught.Name})
	} else {
		resp.Say(ctx, "duel.catch_win", map[string]any{
			"User": res.Caught.Name, "Emoji": res.Emoji, "S1": res.S1, "S2": res.S2,
		})
	}
	if res.Finished != nil {
		r.finishDuel(ctx, resp, *res.Finished)
		return
	}
	r.scheduleNextDuelRound(context.WithoutCancel(ctx), roomID)
}

func (r *Router) cmdDuelFake(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	if err := r.duels.PlantFake(roomID, user); err != nil {
		switch {
		case errors.Is(err, duel.ErrNotFaker):
			resp.Say(ctx, "duel.fake_not_allowed", nil)
		case errors.Is(err, duel.ErrFakeUsed):
			resp.Say(ctx, "duel.fake_used", nil)
		case errors.Is(err, duel.ErrNoDuel), errors.Is(err, duel.ErrNotActive):
			resp.Say(ctx, "duel.not_challenged", map[string]any{"User": user})
		}
		return
	}
	resp.DM(ctx, user, "duel.fake_set", nil)
}

func (r *Router) cmdDuelCancel(ctx context.Context, resp dispatch.Responder, roomID, user string) {
	both, err := r.duels.RequestCancel(roomID, user)
	if err != nil {
		if errors.Is(err, duel.ErrNoDuel) || errors.Is(err, duel.ErrNotParty) {
			resp.Say(ctx, "duel.not_challenged", map[string]any{"User": user})
		}
		return
	}
	if both {
		resp.Say(ctx, "duel.cancelled", nil)
		return
	}
	resp.Say(ctx, "duel.cancel_wait", r.tmplData(map[string]any{"User": user}))
}

func (r *Router) onDuelTick(ctx context.Context, ev duel.TickEvent) {
	resp := r.disp.ForRoom(ev.RoomID)
	switch ev.Kind {
	case duel.TickPendingExpired:
		resp.Say(ctx, "duel.pending_expired", nil)
	case duel.TickIdleCancel:
		resp.Say(ctx, "duel.idle_cancelled", nil)
	case duel.TickRoundTimeout:
		resp.Say(ctx, "duel.round_timeout", map[string]any{"Emoji": ev.Emoji})
		if ev.Finished != nil {
			r.finishDuel(ctx, resp, *ev.Finished)
			return
		}
		r.scheduleNextDuelRound(context.WithoutCancel(ctx), ev.RoomID)
	}
}

// finishDuel announces the outcome and fans out card rendering, stats and
// archiving. Forfeits were already announced by the leave handler.
func (r *Router) finishDuel(ctx context.Context, resp dispatch.Responder, res duel.Result) {
	switch {
	case res.Tie:
		resp.Say(ctx, "duel.tie", map[string]any{"S1": res.P1.Score, "S2": res.P2.Score})
	case res.Reason != duel.EndByForfeit:
		resp.Say(ctx, "duel.win", map[string]any{
			"Winner": res.Winner.Name, "S1": res.Winner.Score, "S2": res.Loser.Score,
		})
	}

	startedAt := r.takeStart(string(domain.GameEmojiDuel), res.RoomID)
	go func() {
		bg := context.WithoutCancel(ctx)
		r.postDuelCard(bg, resp, res)
		if !res.Tie && res.Winner.Key != "" {
			if err := r.settings.RecordDuelWin(bg, res.Winner.Key); err != nil && !r.isStoreDisabled(err) {
				obslog.L().Warn("stats_record_fail", zap.String("user", res.Winner.Key), zap.Error(err))
			}
		}
		outcome := "win"
		if res.Tie {
			outcome = "tie"
		} else if res.Reason == duel.EndByForfeit {
			outcome = "forfeit"
		}
		r.archiveGame(bg, &domain.GameRecord{
			GameUUID:  uuid.NewString(),
			Kind:      domain.GameEmojiDuel,
			RoomID:    res.RoomID,
			Winner:    res.Winner.Key,
			Players:   []string{res.P1.Key, res.P2.Key},
			Scoreline: fmt.Sprintf("%d-%d", res.P1.Score, res.P2.Score),
			Outcome:   outcome,
			StartedAt: startedAt,
			EndedAt:   time.Now(),
			Duration:  time.Since(startedAt),
		})
	}()
}

func (r *Router) postDuelCard(ctx context.Context, resp dispatch.Responder, res duel.Result) {
	first, second := res.Winner, res.Loser
	if res.Tie {
		first, second = res.P1, res.P2
	}
	png, err := r.cardArt.RenderDuelCard(ctx, res, r.fetchAvatar(ctx, first.AvatarURL), r.fetchAvatar(ctx, second.AvatarURL))
	if err != nil {
		obslog.L().Warn("duel_card_render_fail", zap.String("room", res.RoomID), zap.Error(err))
		return
	}
	url, err := r.client.UploadImage(ctx, "duel-"+res.RoomID+".png", png)
	if err != nil {
		obslog.L().Warn("duel_card_upload_fail", zap.String("room", res.RoomID), zap.Error(err))
		return
	}
	resp.Image(ctx, url)
}

// fetchAvatar downloads avatar bytes, tolerating every failure; the card
// renderer substitutes a placeholder for nil.
func (r *Router) fetchAvatar(ctx context.Context, url string) []byte {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	data, err := r.client.FetchBytes(ctx, url)
	if err != nil {
		obslog.L().Debug("avatar_fetch_fail", zap.String("url", url), zap.Error(err))
		return nil
	}
	return data
}

func (r *Router) archiveGame(ctx context.Context, rec *domain.GameRecord) {
	if _, err := r.archive.InsertGame(ctx, rec); err != nil && !errors.Is(err, history.ErrDuplicateGame) {
		obslog.L().Warn("game_archive_fail", zap.String("room", rec.RoomID), zap.Error(err))
	}
}

func (r *Router) cmdWyr(ctx context.Context, resp dispatch.Responder, roomID string) {
	g, err := r.votes.Open(roomID)
	if err != nil {
		if errors.Is(err, wyr.ErrVoteRunning) {
			resp.Say(ctx, "wyr.already_running", nil)
		}
		return
	}
	resp.Say(ctx, "wyr.question", map[string]any{
		"OptionA": g.OptionA,
		"OptionB": g.OptionB,
		"Seconds": r.cfg.VoteWindowSec,
	})
}

func (r *Router) announceVoteResult(ctx context.Context, res wyr.Result) {
	resp := r.disp.ForRoom(res.RoomID)
	if res.CountA == 0 && res.CountB == 0 {
		resp.Say(ctx, "wyr.no_votes", nil)
		return
	}
	verdict := r.disp.Render("wyr.verdict_tie", nil)
	if res.CountA > res.CountB {
		verdict = r.disp.Render("wyr.verdict_a", nil)
	} else if res.CountB > res.CountA {
		verdict = r.disp.Render("wyr.verdict_b", nil)
	}
	resp.Say(ctx, "wyr.results", map[string]any{
		"OptionA": res.OptionA, "CountA": res.CountA,
		"OptionB": res.OptionB, "CountB": res.CountB,
		"Verdict": verdict,
	})
}
