package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/config"
)

// Presigner produces time-limited signed URLs for objects in the media
// bucket. Implemented by mediastore.BucketStore.
type Presigner interface {
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// BatchSpeech is the polled provider used for paid-plan transcription. The
// service reads media straight from the bucket and drops transcript JSON back
// into it; the finished transcript is fetched through a short-lived presigned
// URL.
type BatchSpeech struct {
	baseURL   string
	apiKey    string
	presigner Presigner
	client    *http.Client
}

func NewBatchSpeech(cfg *config.Batch, presigner Presigner) *BatchSpeech {
	return &BatchSpeech{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		presigner: presigner,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type batchJobRequest struct {
	JobName   string `json:"job_name"`
	ObjectKey string `json:"object_key"`
}

type batchJob struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	TranscriptKey string `json:"transcript_key"`
	Error         string `json:"error"`
}

// batchTranscriptFile mirrors the transcript JSON the service writes into
// the bucket.
type batchTranscriptFile struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

func (b *BatchSpeech) Start(ctx context.Context, objectKey string) (string, error) {
	payload, err := json.Marshal(batchJobRequest{
		JobName:   "transcribe-" + uuid.New().String(),
		ObjectKey: objectKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var job batchJob
	if err := b.do(req, &job); err != nil {
		return "", err
	}
	if job.Error != "" {
		return "", fmt.Errorf("%w: %s", apperr.ErrUpstream, job.Error)
	}

	return job.ID, nil
}

func (b *BatchSpeech) Poll(ctx context.Context, jobID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	var job batchJob
	if err := b.do(req, &job); err != nil {
		return nil, err
	}

	switch job.Status {
	case "completed":
		transcript, err := b.fetchTranscript(ctx, job.TranscriptKey)
		if err != nil {
			return nil, err
		}
		return &Result{State: JobCompleted, Transcript: transcript}, nil
	case "failed":
		return &Result{State: JobFailed}, nil
	default:
		return &Result{State: JobRunning}, nil
	}
}

// fetchTranscript downloads the transcript file from the bucket through a
// one-minute presigned URL and extracts the text.
func (b *BatchSpeech) fetchTranscript(ctx context.Context, transcriptKey string) (string, error) {
	signedURL, err := b.presigner.PresignedGet(ctx, transcriptKey, time.Minute)
	if err != nil {
		return "", fmt.Errorf("failed to presign transcript object: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return "", err
	}

	var file batchTranscriptFile
	if err := b.do(req, &file); err != nil {
		return "", err
	}

	if len(file.Results.Transcripts) == 0 {
		return "", fmt.Errorf("%w: transcript file has no transcripts", apperr.ErrUpstream)
	}

	return file.Results.Transcripts[0].Transcript, nil
}

func (b *BatchSpeech) do(req *http.Request, out interface{}) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: batch speech http %d", apperr.ErrUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode batch speech response: %v", apperr.ErrUpstream, err)
	}

	return nil
}
