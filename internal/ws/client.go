package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ScanFlow/internal/lib/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one screen attached to a session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	username  string
}

// readPump forwards screen messages to the hub until the connection drops.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if resp := c.hub.HandleClientMessage(ctx, c.sessionID, message); resp != nil {
			c.reply(resp)
		}
	}
}

// reply queues a direct answer. It gives up when the client is gone or slow.
func (c *Client) reply(data []byte) {
	c.hub.deliver(c, data)
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Authenticator validates a token and returns the username. VerifyStream
// accepts a signed socket URL instead of a token.
type Authenticator interface {
	ValidateToken(token string) (string, error)
	VerifyStream(sessionID, expires, sig string) bool
}

func authorize(auth Authenticator, sessionID string, r *http.Request) (string, bool) {
	q := r.URL.Query()
	if token := q.Get("token"); token != "" {
		username, err := auth.ValidateToken(token)
		return username, err == nil
	}
	if sig := q.Get("sig"); sig != "" && auth.VerifyStream(sessionID, q.Get("expires"), sig) {
		return "stream", true
	}
	return "", false
}

// ServeWs attaches a screen to sessionID. The current snapshot is sent first.
func ServeWs(hub *Hub, auth Authenticator, log *slog.Logger, sessionID string, w http.ResponseWriter, r *http.Request) {
	username, ok := authorize(auth, sessionID, r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if hub.handler == nil {
		http.Error(w, "Session service not available", http.StatusServiceUnavailable)
		return
	}
	snap, err := hub.handler.Snapshot(sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
		username:  username,
	}
	client.send <- reply(eventSnapshot, snap)

	hub.register <- client

	go client.writePump()
	go client.readPump(context.WithoutCancel(r.Context()))
}
