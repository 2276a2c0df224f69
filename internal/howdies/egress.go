package howdies

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Egress abstracts outbound traffic toward the chat service. Messaging on
// Howdies is websocket-only; failures are logged by callers, not retried.
type Egress interface {
	SendText(ctx context.Context, roomID, text string) error
	SendImage(ctx context.Context, roomID, imageURL string) error
	SendDirect(ctx context.Context, username, text string) error
	Kick(ctx context.Context, roomID, username string) error
	RequestProfile(ctx context.Context, username string) error
	JoinRoom(ctx context.Context, roomName string) error
}

// NewEgress wraps the websocket in an Egress. With dryrun set, frames are
// logged and swallowed instead of written.
func NewEgress(ws *WebSocket, dryrun bool, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &wsEgress{ws: ws, dryrun: dryrun, logger: logger}
}

type wsEgress struct {
	ws     *WebSocket
	dryrun bool
	logger *zap.Logger
}

func (w *wsEgress) send(ctx context.Context, ev *Event) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun",
			zap.String("handler", ev.Handler),
			zap.String("type", ev.Type),
			zap.String("room", ev.RoomID))
		return nil
	}
	return w.ws.Send(ctx, ev)
}

func (w *wsEgress) SendText(ctx context.Context, roomID, text string) error {
	return w.send(ctx, &Event{Handler: HandlerRoomMessage, Type: "text", RoomID: roomID, Text: text})
}

func (w *wsEgress) SendImage(ctx context.Context, roomID, imageURL string) error {
	return w.send(ctx, &Event{Handler: HandlerRoomMessage, Type: "image", RoomID: roomID, URL: imageURL})
}

func (w *wsEgress) SendDirect(ctx context.Context, username, text string) error {
	return w.send(ctx, &Event{Handler: HandlerDirect, Type: "text", To: username, Text: text})
}

func (w *wsEgress) Kick(ctx context.Context, roomID, username string) error {
	return w.send(ctx, &Event{Handler: HandlerKickUser, RoomID: roomID, To: username})
}

func (w *wsEgress) RequestProfile(ctx context.Context, username string) error {
	return w.send(ctx, &Event{Handler: HandlerProfile, Username: username})
}

func (w *wsEgress) JoinRoom(ctx context.Context, roomName string) error {
	return w.send(ctx, &Event{Handler: HandlerJoinRoom, RoomName: roomName})
}
