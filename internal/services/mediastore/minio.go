package mediastore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cloudvid/transcriber-service/internal/config"
	"github.com/cloudvid/transcriber-service/internal/types"
)

// BucketStore holds paid-plan uploads in an S3-compatible bucket under
// videos/{unix}_{filename}. The batch transcription service reads media from
// the same bucket and writes transcript JSON back into it.
type BucketStore struct {
	client     *minio.Client
	bucketName string
	useSSL     bool
}

func NewBucketStore(cfg *config.MinIO) (*BucketStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &BucketStore{
		client:     client,
		bucketName: cfg.BucketName,
		useSSL:     cfg.UseSSL,
	}

	if err := store.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return store, nil
}

func (s *BucketStore) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (s *BucketStore) Put(ctx context.Context, r io.Reader, filename, contentType string, size int64) (*Object, error) {
	key := fmt.Sprintf("videos/%d_%s", time.Now().Unix(), filename)

	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	return &Object{URL: s.objectURL(key), Key: key}, nil
}

func (s *BucketStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}

func (s *BucketStore) Backend() string {
	return types.BackendBucket
}

// PresignedGet returns a time-limited signed URL for reading an object from
// the bucket. The transcription poller uses this to fetch transcript output.
func (s *BucketStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *BucketStore) objectURL(key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, key)
}
