package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/Marinerbyte/Cli-bot/internal/config"
	"github.com/Marinerbyte/Cli-bot/internal/correlate"
	"github.com/Marinerbyte/Cli-bot/internal/dispatch"
	"github.com/Marinerbyte/Cli-bot/internal/duel"
	"github.com/Marinerbyte/Cli-bot/internal/history"
	"github.com/Marinerbyte/Cli-bot/internal/howdies"
	"github.com/Marinerbyte/Cli-bot/internal/msgcat"
	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"github.com/Marinerbyte/Cli-bot/internal/presence"
	"github.com/Marinerbyte/Cli-bot/internal/render"
	"github.com/Marinerbyte/Cli-bot/internal/router"
	"github.com/Marinerbyte/Cli-bot/internal/sched"
	"github.com/Marinerbyte/Cli-bot/internal/search"
	"github.com/Marinerbyte/Cli-bot/internal/session"
	"github.com/Marinerbyte/Cli-bot/internal/snakeladder"
	"github.com/Marinerbyte/Cli-bot/internal/store"
	"github.com/Marinerbyte/Cli-bot/internal/wyr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	cat, err := msgcat.New(cfg.TemplateOverrides)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	client := howdies.NewClient(cfg.HowdiesBaseURL, howdies.WithTimeout(8*time.Second))

	loginCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	token, err := client.Login(loginCtx, cfg.BotUsername, cfg.BotPassword)
	cancel()
	if err != nil {
		log.Fatalf("login error: %v", err)
	}
	logger.Info("login_ok", zap.String("user", cfg.BotUsername))

	ws := howdies.NewWebSocket(cfg.HowdiesWSURL, 10, time.Second)
	ws.SetHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer " + token}
	})
	ws.OnStateChange(func(state howdies.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})

	egress := howdies.NewEgress(ws, cfg.EgressDryRun, logger)
	disp := dispatch.NewDispatcher(egress, cat)

	settings, err := store.NewStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("settings store error: %v", err)
	}
	archive, err := history.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history repository error: %v", err)
	}

	boards := snakeladder.NewManager(snakeladder.Config{
		TurnDuration: time.Duration(cfg.TurnDurationSec) * time.Second,
		Warn1After:   time.Duration(cfg.TurnWarn1Sec) * time.Second,
		Warn2After:   time.Duration(cfg.TurnWarn2Sec) * time.Second,
		MinPlayers:   cfg.LobbyMinPlayers,
		MaxPlayers:   cfg.LobbyMaxPlayers,
		IdleTimeout:  time.Duration(cfg.BoardIdleMin) * time.Minute,
	})
	duels := duel.NewManager(duel.Config{
		TargetScore: cfg.DuelTargetScore,
		MaxRounds:   cfg.DuelMaxRounds,
		CatchWindow: time.Duration(cfg.DuelCatchSec) * time.Second,
		RevealMin:   2500 * time.Millisecond,
		RevealMax:   4 * time.Second,
		IdleTimeout: time.Duration(cfg.DuelIdleMin) * time.Minute,
	})
	votes := wyr.NewManager(time.Duration(cfg.VoteWindowSec) * time.Second)
	sessions := session.NewStore(cfg.MemoryLimit, time.Duration(cfg.MemoryTTLSec)*time.Second)

	rt := router.New(router.Deps{
		Cfg:      cfg,
		Disp:     disp,
		Egress:   egress,
		Client:   client,
		Presence: presence.NewTable(),
		Corr:     correlate.New(),
		Sessions: sessions,
		Boards:   boards,
		Duels:    duels,
		Votes:    votes,
		Settings: settings,
		Archive:  archive,
		BoardArt: render.NewBoardRenderer(),
		CardArt:  render.NewCardRenderer(),
		Images:   search.NewHTTPProvider(cfg.SearchBaseURL, cfg.SearchAPIKey),
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// each event gets its own goroutine so the receive loop never blocks
	ws.OnEvent(func(ev *howdies.Event) {
		go rt.HandleEvent(rootCtx, ev)
	})

	cctx, ccancel := context.WithTimeout(rootCtx, 10*time.Second)
	err = ws.Connect(cctx)
	ccancel()
	if err != nil {
		log.Fatalf("ws connect error: %v", err)
	}

	for _, room := range cfg.Rooms {
		if err := egress.JoinRoom(rootCtx, room); err != nil {
			logger.Warn("room_join_fail", zap.String("room", room), zap.Error(err))
		}
	}

	scheduler := sched.New(2*time.Second, time.Minute)
	scheduler.OnFast(rt.SweepFast)
	scheduler.OnSlow(rt.SweepSlow)
	scheduler.Start(rootCtx)

	logger.Info("bot_ready", zap.Int("rooms", len(cfg.Rooms)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting_down")
	rootCancel()
	scheduler.Stop()
	_ = ws.Close(context.Background())
	_ = settings.Close()
	_ = archive.Close()
}
