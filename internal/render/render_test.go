package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/Marinerbyte/Cli-bot/internal/duel"
	"github.com/Marinerbyte/Cli-bot/internal/snakeladder"
)

func decodePNG(t *testing.T, data []byte) {
	t.Helper()
	if len(data) == 0 {
		t.Fatalf("empty png")
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("png decode: %v", err)
	}
}

func TestRenderBoard(t *testing.T) {
	r := NewBoardRenderer()
	view := snakeladder.GameView{
		RoomID:        "r1",
		Status:        snakeladder.StatusActive,
		CurrentPlayer: "Alice",
		Players: []snakeladder.PlayerState{
			{Username: "Alice", Position: 12, Status: snakeladder.PlayerPlaying},
			{Username: "Bob", Position: 12, Status: snakeladder.PlayerPlaying},
			{Username: "Carol", Position: 97, Status: snakeladder.PlayerPlaying},
			{Username: "Dan", Position: 100, Status: snakeladder.PlayerFinished, Rank: 1},
		},
	}
	data, err := r.RenderBoard(context.Background(), view)
	if err != nil {
		t.Fatalf("RenderBoard: %v", err)
	}
	decodePNG(t, data)
}

func TestRenderBoardHonorsCancel(t *testing.T) {
	r := NewBoardRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderBoard(ctx, snakeladder.GameView{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRenderDuelCard(t *testing.T) {
	r := NewCardRenderer()
	res := duel.Result{
		Winner: duel.PlayerScore{Name: "Alice", Score: 3},
		Loser:  duel.PlayerScore{Name: "Bob", Score: 1},
	}
	data, err := r.RenderDuelCard(context.Background(), res, nil, nil)
	if err != nil {
		t.Fatalf("RenderDuelCard: %v", err)
	}
	decodePNG(t, data)

	res.Tie = true
	res.P1 = duel.PlayerScore{Name: "Alice", Score: 2}
	res.P2 = duel.PlayerScore{Name: "Bob", Score: 2}
	data, err = r.RenderDuelCard(context.Background(), res, nil, nil)
	if err != nil {
		t.Fatalf("RenderDuelCard tie: %v", err)
	}
	decodePNG(t, data)
}

func TestRenderShipCard(t *testing.T) {
	r := NewCardRenderer()
	data, err := r.RenderShipCard(context.Background(), "alice", "bob", nil, nil, 73)
	if err != nil {
		t.Fatalf("RenderShipCard: %v", err)
	}
	decodePNG(t, data)
}

func TestRenderProfileCard(t *testing.T) {
	r := NewCardRenderer()
	data, err := r.RenderProfileCard(context.Background(), "alice", nil, 4, 2)
	if err != nil {
		t.Fatalf("RenderProfileCard: %v", err)
	}
	decodePNG(t, data)
}

func TestRasterizeIconCaches(t *testing.T) {
	a, err := rasterizeIcon("snake", 44)
	if err != nil {
		t.Fatalf("rasterizeIcon: %v", err)
	}
	b, err := rasterizeIcon("snake", 44)
	if err != nil {
		t.Fatalf("rasterizeIcon again: %v", err)
	}
	if a != b {
		t.Fatalf("expected the cached image")
	}
	if _, err := rasterizeIcon("nope", 44); err == nil {
		t.Fatalf("unknown icon accepted")
	}
}

func TestCellRectSerpentine(t *testing.T) {
	origin := cellRect(1, 64, image.Point{})
	if origin.Min.X != 0 || origin.Min.Y != 9*64 {
		t.Fatalf("cell 1 should sit bottom-left, got %+v", origin)
	}
	// row 2 runs right to left: cell 11 sits on the right edge
	r11 := cellRect(11, 64, image.Point{})
	if r11.Min.X != 9*64 || r11.Min.Y != 8*64 {
		t.Fatalf("cell 11 misplaced: %+v", r11)
	}
	r100 := cellRect(100, 64, image.Point{})
	if r100.Min.X != 0 || r100.Min.Y != 0 {
		t.Fatalf("cell 100 should sit top-left, got %+v", r100)
	}
}
