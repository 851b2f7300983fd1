package summarize

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/config"
)

// Gemini summarizes through the Gemini API.
type Gemini struct {
	apiKey string
	model  string
}

func NewGemini(cfg *config.Summarizer) *Gemini {
	return &Gemini{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.GeminiModel,
	}
}

func (g *Gemini) Summarize(ctx context.Context, transcript string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create gemini client: %v", apperr.ErrUpstream, err)
	}

	prompt := fmt.Sprintf("Summarize this transcript:\n%s", transcript)
	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", apperr.ErrUpstream)
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned empty completion", apperr.ErrUpstream)
	}

	return text, nil
}
