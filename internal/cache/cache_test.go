package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/types/users"
)

// fakeStorage counts listing calls so tests can observe cache hits.
type fakeStorage struct {
	videos    []types.Video
	listCalls int
}

func (f *fakeStorage) CreateUser(name, email, hashedPassword, plan string) (string, error) {
	return "", nil
}
func (f *fakeStorage) GetUserByEmail(email string) (*users.User, error) { return nil, nil }
func (f *fakeStorage) GetUserByID(id string) (*users.User, error)      { return nil, nil }
func (f *fakeStorage) ListUsers() ([]users.User, error)                { return nil, nil }
func (f *fakeStorage) DeleteUser(id string) error                      { return nil }

func (f *fakeStorage) CreateVideo(v *types.Video) (string, error)    { return "", nil }
func (f *fakeStorage) GetVideoByID(id string) (*types.Video, error)  { return nil, nil }
func (f *fakeStorage) ListAllVideos() ([]types.VideoWithOwner, error) { return nil, nil }
func (f *fakeStorage) DeleteVideo(id string) error                   { return nil }

func (f *fakeStorage) ListVideosByUser(userID string) ([]types.Video, error) {
	f.listCalls++
	return f.videos, nil
}

func (f *fakeStorage) MarkProcessing(id, jobRef string) error              { return nil }
func (f *fakeStorage) SetTranscriptionJob(id, jobRef string) error         { return nil }
func (f *fakeStorage) CompleteTranscription(id, transcript string) error   { return nil }
func (f *fakeStorage) FailTranscription(id string) error                   { return nil }
func (f *fakeStorage) SetSummary(id, summary string) error                 { return nil }
func (f *fakeStorage) FailStaleProcessing(olderThan time.Duration) (int64, error) {
	return 0, nil
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, cleanup
}

func TestVideoCache_ListVideosByUser(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	storage := &fakeStorage{videos: []types.Video{
		{ID: "v1", OriginalName: "talk.mp4", UserID: "u1", Status: types.StatusUploaded},
	}}
	cache := NewVideoCache(storage, redisClient)
	ctx := context.Background()

	videos, err := cache.ListVideosByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "v1" {
		t.Fatalf("Unexpected listing: %+v", videos)
	}
	if storage.listCalls != 1 {
		t.Fatalf("Expected 1 storage call, got %d", storage.listCalls)
	}

	// Second read is served from Redis
	videos, err = cache.ListVideosByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("Unexpected cached listing: %+v", videos)
	}
	if storage.listCalls != 1 {
		t.Fatalf("Expected cached read, but storage was called %d times", storage.listCalls)
	}
}

func TestVideoCache_Invalidate(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	storage := &fakeStorage{videos: []types.Video{{ID: "v1", UserID: "u1"}}}
	cache := NewVideoCache(storage, redisClient)
	ctx := context.Background()

	cache.ListVideosByUser(ctx, "u1")
	cache.InvalidateUserVideos(ctx, "u1")
	cache.ListVideosByUser(ctx, "u1")

	if storage.listCalls != 2 {
		t.Fatalf("Expected invalidation to force a storage read, got %d calls", storage.listCalls)
	}
}

func TestVideoCache_UsersDoNotShareEntries(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	storage := &fakeStorage{videos: []types.Video{{ID: "v1", UserID: "u1"}}}
	cache := NewVideoCache(storage, redisClient)
	ctx := context.Background()

	cache.ListVideosByUser(ctx, "u1")
	cache.ListVideosByUser(ctx, "u2")

	if storage.listCalls != 2 {
		t.Fatalf("Expected separate cache entries per user, got %d storage calls", storage.listCalls)
	}
}
