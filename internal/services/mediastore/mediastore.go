// Package mediastore routes video files to one of two object stores based on
// the owner's plan tier: free accounts go to a streaming video host, paid
// accounts to an S3-compatible bucket. Every store exposes the same Put and
// Remove operations so no caller ever branches on plan again after selection.
package mediastore

import (
	"context"
	"io"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/types"
)

// Object describes a stored video file.
type Object struct {
	URL string
	Key string
}

type Store interface {
	Put(ctx context.Context, r io.Reader, filename, contentType string, size int64) (*Object, error)
	Remove(ctx context.Context, key string) error
	Backend() string
}

// Router selects a store once per operation. ForPlan decides where new
// uploads go; ByBackend resolves the store that owns an existing record, so
// deletes never depend on the deleting user's plan.
type Router struct {
	stream Store
	bucket Store
}

func NewRouter(stream, bucket Store) *Router {
	return &Router{stream: stream, bucket: bucket}
}

func (r *Router) ForPlan(plan types.Plan) (Store, error) {
	switch plan {
	case types.PlanFree:
		return r.stream, nil
	case types.PlanPaid:
		return r.bucket, nil
	default:
		return nil, apperr.ErrInvalidPlan
	}
}

func (r *Router) ByBackend(backend string) (Store, error) {
	switch backend {
	case types.BackendStream:
		return r.stream, nil
	case types.BackendBucket:
		return r.bucket, nil
	default:
		return nil, apperr.ErrInvalidPlan
	}
}
