package events

import (
	"testing"

	"github.com/cloudvid/transcriber-service/internal/types"
)

type fakeHub struct {
	connected map[string]bool
	sent      []*types.Event
}

func (h *fakeHub) BroadcastToUser(userID string, event *types.Event) {
	h.sent = append(h.sent, event)
}

func (h *fakeHub) IsUserConnected(userID string) bool {
	return h.connected[userID]
}

func TestEventPublisher_PublishVideoStatus(t *testing.T) {
	hub := &fakeHub{connected: map[string]bool{"u1": true}}
	publisher := NewEventPublisher(hub)

	publisher.PublishVideoStatus("u1", "v1", types.StatusTranscribed)

	if len(hub.sent) != 1 {
		t.Fatalf("Expected one event, got %d", len(hub.sent))
	}
	event := hub.sent[0]
	if event.Type != types.EventVideoStatus {
		t.Errorf("Unexpected event type: %s", event.Type)
	}
	payload, ok := event.Data.(*types.VideoStatusEvent)
	if !ok {
		t.Fatalf("Unexpected payload type: %T", event.Data)
	}
	if payload.VideoID != "v1" || payload.Status != types.StatusTranscribed {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestEventPublisher_SkipsDisconnectedUsers(t *testing.T) {
	hub := &fakeHub{connected: map[string]bool{}}
	publisher := NewEventPublisher(hub)

	publisher.PublishVideoStatus("u1", "v1", types.StatusFailed)

	if len(hub.sent) != 0 {
		t.Fatalf("Expected no events for a disconnected user, got %d", len(hub.sent))
	}
}
