// Package websocket runs the live-reload hub used by the preview server.
//
// A single hub goroutine owns the client set. Connections register and
// unregister through channels, and broadcasts are fanned out to each
// client's buffered send queue. A client whose queue is full is dropped
// rather than allowed to stall the others.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/mimic/internal/logging"
)

const (
	sendBuffer   = 16
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// ErrHubShutdown is returned by Broadcast once the hub has been shut down.
var ErrHubShutdown = errors.New("websocket hub is shut down")

// Hub handles WebSocket connection management and broadcasting
type Hub struct {
	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn

	originPatterns []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// NewHub starts a hub. originPatterns are host patterns accepted in the
// Origin header in addition to the request's own host.
func NewHub(logger logging.Logger, originPatterns ...string) *Hub {
	if logger == nil {
		logger = logging.NewTestLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:        make(map[*websocket.Conn]*client),
		broadcast:      make(chan []byte, 64),
		register:       make(chan *client, 8),
		unregister:     make(chan *websocket.Conn, 8),
		originPatterns: originPatterns,
		logger:         logger.WithComponent("websocket"),
		ctx:            ctx,
		cancel:         cancel,
	}

	go h.run()

	return h
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		// Accept has already written the response.
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
		remoteAddr:  r.RemoteAddr,
		connectedAt: time.Now(),
	}

	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clientsMutex.Lock()
			h.clients[c.conn] = c
			count := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "WebSocket client connected", "remote", c.remoteAddr, "clients", count)

		case conn := <-h.unregister:
			h.removeClient(conn)

		case message := <-h.broadcast:
			h.fanOut(message)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	c, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
		close(c.done)
	}
	count := len(h.clients)
	h.clientsMutex.Unlock()

	if exists {
		h.logger.Debug(h.ctx, "WebSocket client disconnected", "remote", c.remoteAddr, "clients", count)
	}
}

func (h *Hub) fanOut(message []byte) {
	h.clientsMutex.RLock()
	var slow []*websocket.Conn
	for conn, c := range h.clients {
		select {
		case c.send <- message:
		default:
			slow = append(slow, conn)
		}
	}
	h.clientsMutex.RUnlock()

	for _, conn := range slow {
		h.logger.Warn(h.ctx, nil, "Dropping WebSocket client with full send queue")
		h.removeClient(conn)
	}
}

// readPump discards client messages and returns when the connection fails.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c.conn:
		case <-h.ctx.Done():
		}
		c.conn.CloseNow()
	}()

	for {
		_, message, err := c.conn.Read(h.ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && h.ctx.Err() == nil {
				h.logger.Debug(h.ctx, "WebSocket read ended", "remote", c.remoteAddr, "error", err.Error())
			}
			return
		}
		h.logger.Debug(h.ctx, "Ignoring WebSocket message from client", "bytes", len(message))
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(h.ctx, writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				h.logger.Debug(h.ctx, "WebSocket write failed", "remote", c.remoteAddr, "error", err.Error())
				c.conn.CloseNow()
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.conn.CloseNow()
				return
			}

		case <-c.done:
			c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
			return

		case <-h.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}

// Broadcast queues msg for every connected client. A zero Timestamp is set
// to the current time.
func (h *Hub) Broadcast(msg UpdateMessage) error {
	// The buffered send below may still be ready after shutdown.
	if h.isShutdown.Load() || h.ctx.Err() != nil {
		return ErrHubShutdown
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal update message: %w", err)
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.ctx.Done():
		return ErrHubShutdown
	default:
		return fmt.Errorf("broadcast queue is full")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown stops the hub and closes every client connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.isShutdown.Store(true)
		h.cancel()

		// Write pumps observe the cancelled context and close their
		// connections.
		h.clientsMutex.Lock()
		clear(h.clients)
		h.clientsMutex.Unlock()

		h.logger.Info(ctx, "WebSocket hub shut down")
	})
	return nil
}
