package ordering

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocketSessionSettings struct {
	WriteTimeout time.Duration
}

func DefaultWebSocketSessionSettings() *WebSocketSessionSettings {
	return &WebSocketSessionSettings{
		WriteTimeout: 5 * time.Second,
	}
}

// room-subscribe control frame understood by the fan-out tier
type joinMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// WebSocketSession adapts a live websocket to the Socket contract. Join sends
// a room-subscribe frame to the fan-out tier that owns the connection.
type WebSocketSession struct {
	ws       *websocket.Conn
	settings *WebSocketSessionSettings

	writeLock sync.Mutex
}

func NewWebSocketSessionWithDefaults(ws *websocket.Conn) *WebSocketSession {
	return NewWebSocketSession(ws, DefaultWebSocketSessionSettings())
}

func NewWebSocketSession(ws *websocket.Conn, settings *WebSocketSessionSettings) *WebSocketSession {
	return &WebSocketSession{
		ws:       ws,
		settings: settings,
	}
}

func (self *WebSocketSession) Join(ctx context.Context, room string) error {
	self.writeLock.Lock()
	defer self.writeLock.Unlock()

	deadline := time.Now().Add(self.settings.WriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	self.ws.SetWriteDeadline(deadline)
	return self.ws.WriteJSON(&joinMessage{
		Type: "join",
		Room: room,
	})
}
