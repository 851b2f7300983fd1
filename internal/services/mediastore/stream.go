package mediastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/config"
	"github.com/cloudvid/transcriber-service/internal/types"
)

// StreamStore uploads free-plan videos to a streaming video host over its
// HTTP upload API. The host transcodes and serves the file from a public URL
// and hands back an opaque id used for deletion.
type StreamStore struct {
	uploadURL string
	apiKey    string
	client    *http.Client
}

func NewStreamStore(cfg *config.Stream) *StreamStore {
	return &StreamStore{
		uploadURL: strings.TrimSuffix(cfg.UploadURL, "/"),
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: 5 * time.Minute},
	}
}

type streamUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     string `json:"error"`
}

func (s *StreamStore) Put(ctx context.Context, r io.Reader, filename, contentType string, size int64) (*Object, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := writer.WriteField("resource_type", "video"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stream upload http %d", apperr.ErrUpstream, resp.StatusCode)
	}

	var parsed streamUploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode stream upload response: %v", apperr.ErrUpstream, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUpstream, parsed.Error)
	}

	return &Object{URL: parsed.SecureURL, Key: parsed.PublicID}, nil
}

func (s *StreamStore) Remove(ctx context.Context, key string) error {
	payload, err := json.Marshal(map[string]string{
		"public_id":     key,
		"resource_type": "video",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL+"/destroy", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: stream destroy http %d", apperr.ErrUpstream, resp.StatusCode)
	}

	return nil
}

func (s *StreamStore) Backend() string {
	return types.BackendStream
}
