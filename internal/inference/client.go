// Package inference calls hosted text-to-image services. Each request
// produces exactly one outbound call; callers decide what to do on failure.
package inference

import (
	"context"
	"fmt"

	"github.com/fpang/storyboard-gen/internal/config"
)

// Request is the prompt and target size sent to a provider.
type Request struct {
	Prompt string
	Width  int
	Height int
}

// Client is a text-to-image provider. Generate returns the raw encoded image
// bytes exactly as the service sent them.
type Client interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
	Name() string
}

// APIError is returned when a provider answers with a non-2xx status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, truncateString(e.Body, 200))
}

// Default endpoints per provider.
const (
	DefaultPollinationsURL = "https://image.pollinations.ai"
	DefaultHuggingFaceURL  = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-2-1"
)

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderImagen:
		return NewImagenClient(ctx, cfg.GeminiAPIKey, cfg.InferenceModel, cfg.InferenceTimeout)
	case config.ProviderHuggingFace:
		return NewHTTPClient(config.ProviderHuggingFace, orDefault(cfg.InferenceURL, DefaultHuggingFaceURL), cfg.InferenceToken, cfg.InferenceTimeout), nil
	case config.ProviderPollinations, "":
		return NewHTTPClient(config.ProviderPollinations, orDefault(cfg.InferenceURL, DefaultPollinationsURL), cfg.InferenceToken, cfg.InferenceTimeout), nil
	default:
		return nil, fmt.Errorf("unknown inference provider: %s", cfg.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// truncateString shortens s to maxLen, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
