package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Marinerbyte/Cli-bot/internal/howdies"
)

// Connectivity probe: logs in, opens the websocket and prints traffic for a
// short window. Useful when the chat service misbehaves.
func main() {
	baseURL := os.Getenv("HOWDIES_BASE_URL")
	wsURL := os.Getenv("HOWDIES_WS_URL")
	username := os.Getenv("BOT_USERNAME")
	password := os.Getenv("BOT_PASSWORD")

	if baseURL == "" {
		log.Fatal("HOWDIES_BASE_URL is required")
	}
	if username == "" || password == "" {
		log.Fatal("BOT_USERNAME and BOT_PASSWORD are required")
	}

	client := howdies.NewClient(baseURL, howdies.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	token, err := client.Login(ctx, username, password)
	if err != nil {
		log.Fatalf("login error: %v", err)
	}
	log.Printf("login ok: token %d bytes", len(token))

	if wsURL == "" {
		log.Println("HOWDIES_WS_URL not set; skipping WS check")
		return
	}

	ws := howdies.NewWebSocket(wsURL, 3, time.Second)
	ws.SetHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer " + token}
	})
	ws.OnStateChange(func(state howdies.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnEvent(func(ev *howdies.Event) {
		fmt.Printf("WS event handler=%s room=%s from=%s text=%q\n", ev.Handler, ev.RoomID, ev.From, ev.Text)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
