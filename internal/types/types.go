package types

import "time"

type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status is the processing lifecycle of a video. Transitions only move
// forward: uploaded -> processing -> transcribed | failed. The terminal
// states are absorbing.
type Status string

const (
	StatusUploaded    Status = "uploaded"
	StatusProcessing  Status = "processing"
	StatusTranscribed Status = "transcribed"
	StatusFailed      Status = "failed"
)

// Storage backends. The backend is recorded on the video itself so deletes
// resolve the right store even if the owner's plan changes later.
const (
	BackendStream = "stream"
	BackendBucket = "bucket"
)

type Video struct {
	ID               string    `json:"id"`
	OriginalName     string    `json:"original_name"`
	URL              string    `json:"url"`
	ObjectKey        string    `json:"object_key"`
	StorageBackend   string    `json:"storage_backend"`
	Status           Status    `json:"status"`
	Transcript       string    `json:"transcript"`
	Summary          string    `json:"summary"`
	UserID           string    `json:"user_id"`
	TranscriptionJob string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// VideoWithOwner is the admin listing shape: a video joined with its owner's
// name and email.
type VideoWithOwner struct {
	Video
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}
