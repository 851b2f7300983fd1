package storage

import (
	"time"

	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/types/users"
)

type Storage interface {
	CreateUser(name, email, hashedPassword, plan string) (string, error)
	GetUserByEmail(email string) (*users.User, error)
	GetUserByID(id string) (*users.User, error)
	ListUsers() ([]users.User, error)
	// DeleteUser removes the user and, via FK cascade, all owned videos in
	// one transaction.
	DeleteUser(id string) error

	CreateVideo(v *types.Video) (string, error)
	GetVideoByID(id string) (*types.Video, error)
	ListVideosByUser(userID string) ([]types.Video, error)
	ListAllVideos() ([]types.VideoWithOwner, error)
	DeleteVideo(id string) error

	// MarkProcessing atomically transitions uploaded -> processing and
	// records the provider job reference. Returns apperr.ErrInvalidState if
	// the video is in any other state, closing the race between concurrent
	// transcription starts.
	MarkProcessing(id, jobRef string) error
	// SetTranscriptionJob records the provider job reference once the
	// submission has been accepted.
	SetTranscriptionJob(id, jobRef string) error
	// CompleteTranscription atomically transitions processing -> transcribed
	// and persists the transcript.
	CompleteTranscription(id, transcript string) error
	// FailTranscription atomically transitions processing -> failed and
	// clears the transcript.
	FailTranscription(id string) error
	SetSummary(id, summary string) error
	// FailStaleProcessing fails every record that has been processing for
	// longer than olderThan. Used by the reaper worker.
	FailStaleProcessing(olderThan time.Duration) (int64, error)
}
