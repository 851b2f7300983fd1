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

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/config"
)

// AssemblyAI is the callback provider used for free-plan transcription. Jobs
// are submitted with a webhook URL; the provider POSTs the outcome back when
// the job settles.
type AssemblyAI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAssemblyAI(cfg *config.AssemblyAI) *AssemblyAI {
	return &AssemblyAI{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type assemblySubmitRequest struct {
	AudioURL   string `json:"audio_url"`
	WebhookURL string `json:"webhook_url"`
}

type assemblyTranscript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (a *AssemblyAI) Submit(ctx context.Context, mediaURL, webhookURL string) (string, error) {
	payload, err := json.Marshal(assemblySubmitRequest{
		AudioURL:   mediaURL,
		WebhookURL: webhookURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var parsed assemblyTranscript
	if err := a.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%w: %s", apperr.ErrUpstream, parsed.Error)
	}

	return parsed.ID, nil
}

func (a *AssemblyAI) FetchTranscript(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v2/transcript/"+jobID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)

	var parsed assemblyTranscript
	if err := a.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%w: %s", apperr.ErrUpstream, parsed.Error)
	}

	return parsed.Text, nil
}

func (a *AssemblyAI) do(req *http.Request, out interface{}) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: assemblyai http %d", apperr.ErrUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode assemblyai response: %v", apperr.ErrUpstream, err)
	}

	return nil
}
