package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/cloudvid/transcriber-service/internal/ratelimit"
	"github.com/cloudvid/transcriber-service/internal/utils/response"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.Limiter
	limits   map[string]int64
}

// NewRateLimitConfig sets up per-user buckets for the expensive actions.
// Uploads and provider calls are throttled; listings are not.
func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	limits := map[string]int64{
		"upload":     10,
		"transcribe": 10,
		"summarize":  20,
	}

	limiters := make(map[string]*ratelimit.Limiter, len(limits))
	for action, limit := range limits {
		limiters[action] = ratelimit.NewLimiter(redisClient, limit, limit)
	}

	return &RateLimitConfig{limiters: limiters, limits: limits}
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), identity.UserID, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.Remaining(r.Context(), identity.UserID, action)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rlc.limits[action], 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
