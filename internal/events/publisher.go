package events

import (
	"github.com/cloudvid/transcriber-service/internal/types"
)

// Publisher pushes real-time events to connected clients.
type Publisher interface {
	PublishVideoStatus(userID, videoID string, status types.Status)
}

// WebSocketHub is the subset of the hub the publisher needs.
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// EventPublisher implements Publisher over the WebSocket hub.
type EventPublisher struct {
	hub WebSocketHub
}

func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{hub: hub}
}

// PublishVideoStatus notifies a video's owner that its lifecycle status
// changed. Owners without an open connection just keep polling.
func (p *EventPublisher) PublishVideoStatus(userID, videoID string, status types.Status) {
	if !p.hub.IsUserConnected(userID) {
		return
	}

	event := types.NewEvent(types.EventVideoStatus, &types.VideoStatusEvent{
		VideoID: videoID,
		Status:  status,
	})
	p.hub.BroadcastToUser(userID, event)
}

// NopPublisher drops all events. Used by workers that have no hub.
type NopPublisher struct{}

func (NopPublisher) PublishVideoStatus(string, string, types.Status) {}
