package dispatch

import (
	"context"

	"github.com/Marinerbyte/Cli-bot/internal/howdies"
	"github.com/Marinerbyte/Cli-bot/internal/msgcat"
	"github.com/Marinerbyte/Cli-bot/internal/obslog"
	"go.uber.org/zap"
)

// Responder is the capability handed to command handlers for talking back.
// Room-scoped; direct messages name their recipient explicitly.
type Responder interface {
	Say(ctx context.Context, key string, data map[string]any)
	Raw(ctx context.Context, text string)
	Image(ctx context.Context, imageURL string)
	DM(ctx context.Context, username, key string, data map[string]any)
	Kick(ctx context.Context, username string)
	RoomID() string
}

// Dispatcher builds room-bound responders over the chat egress.
type Dispatcher struct {
	egress howdies.Egress
	cat    *msgcat.Catalog
}

func NewDispatcher(egress howdies.Egress, cat *msgcat.Catalog) *Dispatcher {
	return &Dispatcher{egress: egress, cat: cat}
}

func (d *Dispatcher) ForRoom(roomID string) Responder {
	return &roomResponder{d: d, roomID: roomID}
}

// Render resolves a catalog key without sending. Handlers use this when the
// text feeds something other than a room broadcast.
func (d *Dispatcher) Render(key string, data map[string]any) string {
	text, err := d.cat.Render(key, data)
	if err != nil {
		obslog.L().Warn("msgcat_render_fail", zap.String("key", key), zap.Error(err))
		return ""
	}
	return text
}

type roomResponder struct {
	d      *Dispatcher
	roomID string
}

func (r *roomResponder) RoomID() string { return r.roomID }

func (r *roomResponder) Say(ctx context.Context, key string, data map[string]any) {
	text := r.d.Render(key, data)
	if text == "" {
		return
	}
	r.Raw(ctx, text)
}

func (r *roomResponder) Raw(ctx context.Context, text string) {
	if err := r.d.egress.SendText(ctx, r.roomID, text); err != nil {
		obslog.L().Warn("send_text_fail", zap.String("room", r.roomID), zap.Error(err))
	}
}

func (r *roomResponder) Image(ctx context.Context, imageURL string) {
	if err := r.d.egress.SendImage(ctx, r.roomID, imageURL); err != nil {
		obslog.L().Warn("send_image_fail", zap.String("room", r.roomID), zap.Error(err))
	}
}

func (r *roomResponder) DM(ctx context.Context, username, key string, data map[string]any) {
	text := r.d.Render(key, data)
	if text == "" {
		return
	}
	if err := r.d.egress.SendDirect(ctx, username, text); err != nil {
		obslog.L().Warn("send_dm_fail", zap.String("user", username), zap.Error(err))
	}
}

func (r *roomResponder) Kick(ctx context.Context, username string) {
	if err := r.d.egress.Kick(ctx, r.roomID, username); err != nil {
		obslog.L().Warn("kick_fail", zap.String("room", r.roomID), zap.String("user", username), zap.Error(err))
	}
}
