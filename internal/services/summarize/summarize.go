// Package summarize sends a stored transcript to a text-generation provider
// and returns the first completion. There are no retries; a provider failure
// surfaces directly to the caller.
package summarize

import (
	"context"
	"fmt"

	"github.com/cloudvid/transcriber-service/internal/config"
)

const (
	systemPrompt = "You are an expert text summarizer"
	maxTokens    = 300
	temperature  = 0.3
)

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// New builds the summarizer named by the config.
func New(cfg *config.Summarizer) (Summarizer, error) {
	switch cfg.Provider {
	case "groq":
		return NewGroq(cfg), nil
	case "gemini":
		return NewGemini(cfg), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider: %s", cfg.Provider)
	}
}
