package websocket

import (
	"log/slog"
	"sync"

	"github.com/cloudvid/transcriber-service/internal/types"
)

// Hub tracks one connection per user and delivers video status events to the
// owning user.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	send       chan *directMessage

	mu sync.RWMutex
}

type directMessage struct {
	userID string
	event  *types.Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan *directMessage, 64),
	}
}

// Run is the hub's main loop; call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A new connection from the same user replaces the old one.
			if existing, ok := h.clients[client.userID]; ok {
				close(existing.send)
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("user_id", client.userID))
			}
			h.mu.Unlock()

		case msg := <-h.send:
			h.deliver(msg.userID, msg.event)
		}
	}
}

// BroadcastToUser queues an event for a user's connection. Drops the event
// if the queue is full rather than blocking the caller.
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	select {
	case h.send <- &directMessage{userID: userID, event: event}:
	default:
		slog.Warn("Event queue full, dropping event", slog.String("user_id", userID))
	}
}

func (h *Hub) deliver(userID string, event *types.Event) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	if err := client.SendEvent(event); err != nil {
		slog.Error("Failed to send event to client",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		go func() { h.unregister <- client }()
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}
