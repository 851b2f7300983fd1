package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventVideoStatus EventType = "video.status"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// VideoStatusEvent is pushed to a video's owner whenever its lifecycle
// status changes, so the client can stop polling.
type VideoStatusEvent struct {
	VideoID string `json:"video_id"`
	Status  Status `json:"status"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
