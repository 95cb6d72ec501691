package websocket

import (
	"time"

	"github.com/coder/websocket"
)

// Message types sent to preview pages.
const (
	MessageReload = "reload"
	MessageError  = "error"
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// client represents a WebSocket client connection
type client struct {
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	remoteAddr  string
	connectedAt time.Time
}
