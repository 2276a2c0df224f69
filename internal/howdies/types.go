package howdies

import "context"

// Event is one handler-tagged frame on the Howdies websocket.
// The service multiplexes every kind of traffic over the same socket and
// discriminates by the Handler field.
type Event struct {
	Handler  string     `json:"handler"`
	Type     string     `json:"type,omitempty"`
	RoomID   string     `json:"roomid,omitempty"`
	RoomName string     `json:"name,omitempty"`
	From     string     `json:"from,omitempty"`
	To       string     `json:"to,omitempty"`
	UserID   string     `json:"userid,omitempty"`
	Username string     `json:"username,omitempty"`
	Text     string     `json:"text,omitempty"`
	URL      string     `json:"url,omitempty"`
	Avatar   string     `json:"avatar,omitempty"`
	Users    []RoomUser `json:"users,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// RoomUser is one entry of a roomusers roster snapshot.
type RoomUser struct {
	Username string `json:"username"`
	UserID   string `json:"userid"`
}

// Inbound handler tags.
const (
	HandlerLogin       = "login"
	HandlerRoomMessage = "chatroommessage"
	HandlerDirect      = "message"
	HandlerProfile     = "profile"
	HandlerJoinRoom    = "joinchatroom"
	HandlerKickUser    = "kickuser"
	HandlerUserJoin    = "userjoin"
	HandlerUserLeave   = "userleave"
	HandlerRoomUsers   = "roomusers"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Error string `json:"error,omitempty"`
}

type UploadRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // base64 PNG
}

type UploadResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

func (s WebSocketState) String() string { return string(s) }

type EventCallback func(ev *Event)

type StateCallback func(state WebSocketState)

type WSClient interface {
	Connect(ctx context.Context) error
	OnEvent(cb EventCallback) int
	RemoveEventCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	Send(ctx context.Context, ev *Event) error
	Close(ctx context.Context) error
}
