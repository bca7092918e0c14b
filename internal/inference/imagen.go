package inference

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// imagesAPI is the subset of genai.Models used here.
type imagesAPI interface {
	GenerateImages(ctx context.Context, model, prompt string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImagenClient generates images with Imagen through the Gemini API.
type ImagenClient struct {
	models  imagesAPI
	model   string
	timeout time.Duration
}

// NewImagenClient creates a Gemini API client for the given Imagen model.
// Each request is bounded by timeout; zero uses the configured default.
func NewImagenClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*ImagenClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the %s provider", config.ProviderImagen)
	}
	if model == "" {
		model = config.DefaultImagenModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &ImagenClient{models: client.Models, model: model, timeout: timeout}, nil
}

// Name returns the provider name.
func (c *ImagenClient) Name() string {
	return config.ProviderImagen
}

// Generate requests a single image. Imagen only accepts a fixed set of
// aspect ratios, so the closest one is requested and the caller letterboxes.
func (c *ImagenClient) Generate(ctx context.Context, req Request) ([]byte, error) {
	aspect := nearestAspectRatio(req.Width, req.Height)

	log.Debug().
		Str("model", c.model).
		Str("prompt", truncateString(req.Prompt, 100)).
		Str("aspect_ratio", aspect).
		Msg("Starting Imagen request")

	timeout := c.timeout
	if timeout <= 0 {
		timeout = config.DefaultInferenceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.models.GenerateImages(ctx, c.model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspect,
	})
	if err != nil {
		return nil, fmt.Errorf("imagen request failed: %w", err)
	}

	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("no images returned from Imagen")
	}
	generated := resp.GeneratedImages[0]
	if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		if generated.RAIFilteredReason != "" {
			return nil, fmt.Errorf("imagen filtered the request: %s", generated.RAIFilteredReason)
		}
		return nil, fmt.Errorf("imagen returned an empty image")
	}

	log.Debug().
		Int("bytes", len(generated.Image.ImageBytes)).
		Dur("duration", time.Since(startTime)).
		Msg("Imagen request completed")

	return generated.Image.ImageBytes, nil
}

// imagenAspectRatios are the ratios the Imagen API accepts.
var imagenAspectRatios = []struct {
	label string
	ratio float64
}{
	{"1:1", 1},
	{"3:4", 3.0 / 4.0},
	{"4:3", 4.0 / 3.0},
	{"9:16", 9.0 / 16.0},
	{"16:9", 16.0 / 9.0},
}

// nearestAspectRatio picks the supported ratio closest to width/height,
// measured in log space so 2:1 and 1:2 are equally far from 1:1.
func nearestAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	target := math.Log(float64(width) / float64(height))

	best := imagenAspectRatios[0].label
	bestDist := math.Inf(1)
	for _, ar := range imagenAspectRatios {
		if d := math.Abs(math.Log(ar.ratio) - target); d < bestDist {
			best, bestDist = ar.label, d
		}
	}
	return best
}
