package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"ScanFlow/internal/lib/sl"
	"ScanFlow/scenario"
)

// SessionHandler serves events sent by screens over the socket.
type SessionHandler interface {
	Dispatch(ctx context.Context, id string, event scenario.Event, payload scenario.Payload, wait bool) (scenario.Snapshot, error)
	Snapshot(id string) (scenario.Snapshot, error)
}

// Event is a message pushed to screens.
type Event struct {
	Type      string      `json:"type"` // "snapshot", "error", "closed"
	SessionID string      `json:"-"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub keeps the screens subscribed to each session and fans snapshots out to them.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	handler    SessionHandler
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.With(sl.Module("ws.hub")),
	}
}

func (h *Hub) SetHandler(handler SessionHandler) {
	h.handler = handler
}

// Run serves the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.sessionID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.sessionID] = set
			}
			set[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Warn("encode event", sl.Err(err))
				continue
			}
			h.mu.Lock()
			for client := range h.clients[event.SessionID] {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			if event.Type == eventClosed {
				for client := range h.clients[event.SessionID] {
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client and closes its send channel. Caller holds mu.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.sessionID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.sessionID)
	}
}

// deliver queues data for one subscribed client. Sends happen under mu so
// they never race with remove closing the channel.
func (h *Hub) deliver(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client.sessionID][client] {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) publish(event *Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast queue full, event dropped",
			slog.String("session_id", event.SessionID),
			slog.String("type", event.Type),
		)
	}
}

// BroadcastSnapshot pushes s to the screens of its session.
func (h *Hub) BroadcastSnapshot(s scenario.Snapshot) {
	h.publish(&Event{Type: eventSnapshot, SessionID: s.SessionID, Data: s})
}

// CloseSession tells the screens of a session that it ended and disconnects them.
func (h *Hub) CloseSession(id string) {
	h.publish(&Event{Type: eventClosed, SessionID: id})
}

// Subscribers returns the number of screens attached to a session.
func (h *Hub) Subscribers(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

const (
	eventSnapshot = "snapshot"
	eventError    = "error"
	eventClosed   = "closed"
)

// clientEvent is a message sent by a screen.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses a message from a screen and dispatches it.
// The returned bytes, if any, are sent back to that screen only.
func (h *Hub) HandleClientMessage(ctx context.Context, sessionID string, raw []byte) []byte {
	if h.handler == nil {
		return nil
	}

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.Warn("failed to parse client ws message", sl.Err(err))
		return reply(eventError, "malformed message")
	}

	switch event.Type {
	case "dispatch":
		var data struct {
			Event   scenario.Event   `json:"event"`
			Payload scenario.Payload `json:"payload"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.Event == "" {
			return reply(eventError, "malformed dispatch")
		}
		if _, err := h.handler.Dispatch(ctx, sessionID, data.Event, data.Payload, false); err != nil {
			h.log.With(
				slog.String("session_id", sessionID),
				slog.String("event", string(data.Event)),
				sl.Err(err),
			).Debug("dispatch from screen")
			return reply(eventError, err.Error())
		}
	case "refresh":
		snap, err := h.handler.Snapshot(sessionID)
		if err != nil {
			return reply(eventError, err.Error())
		}
		return reply(eventSnapshot, snap)
	default:
		return reply(eventError, "unknown message type")
	}
	return nil
}

func reply(kind string, data interface{}) []byte {
	b, _ := json.Marshal(&Event{Type: kind, Data: data})
	return b
}
