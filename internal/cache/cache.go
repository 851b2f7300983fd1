package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cloudvid/transcriber-service/internal/storage"
	"github.com/cloudvid/transcriber-service/internal/types"
)

// VideoCache fronts the my-videos listing with Redis. The list is hot while
// the client polls for status, so even a short TTL absorbs most reads.
type VideoCache struct {
	storage storage.Storage
	redis   *redis.Client
}

func NewVideoCache(storage storage.Storage, redisClient *redis.Client) *VideoCache {
	return &VideoCache{
		storage: storage,
		redis:   redisClient,
	}
}

const (
	userVideosKey      = "videos:user:%s"
	userVideosDuration = 30 * time.Second
)

// ListVideosByUser returns the cached listing or falls through to storage.
func (c *VideoCache) ListVideosByUser(ctx context.Context, userID string) ([]types.Video, error) {
	key := fmt.Sprintf(userVideosKey, userID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var videos []types.Video
		if err := json.Unmarshal([]byte(cached), &videos); err == nil {
			return videos, nil
		}
	}

	videos, err := c.storage.ListVideosByUser(userID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(videos)
	c.redis.Set(ctx, key, data, userVideosDuration)

	return videos, nil
}

// InvalidateUserVideos drops a user's cached listing. Called after uploads,
// deletes and status transitions.
func (c *VideoCache) InvalidateUserVideos(ctx context.Context, userID string) {
	c.redis.Del(ctx, fmt.Sprintf(userVideosKey, userID))
}
