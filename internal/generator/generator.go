// Package generator produces one storyboard image per request, preferring
// remote inference and falling back to a local sketch whenever the remote
// branch cannot deliver. Only a failure to write the output is fatal.
package generator

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/inference"
	"github.com/fpang/storyboard-gen/internal/metrics"
	"github.com/fpang/storyboard-gen/internal/sketch"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// Default output size.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request describes one image to generate.
type Request struct {
	Prompt     string `json:"prompt"`
	OutputPath string `json:"output_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	UseAI      bool   `json:"use_ai"`
}

// Result is returned for every request; it never carries a raw error.
type Result struct {
	Status         string      `json:"status"`
	Code           status.Code `json:"code"`
	OutputPath     string      `json:"output_path,omitempty"`
	ModeUsed       Mode        `json:"mode_used,omitempty"`
	Message        string      `json:"message"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
}

// OK reports whether an output file was written.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Generator renders requests through an optional inference client and a
// sketch renderer.
type Generator struct {
	client   inference.Client
	renderer *sketch.Renderer
}

// New creates a Generator. client may be nil, in which case every request
// that asks for AI falls back to the sketch.
func New(client inference.Client, renderer *sketch.Renderer) *Generator {
	if renderer == nil {
		renderer = sketch.NewRenderer("")
	}
	return &Generator{client: client, renderer: renderer}
}

// Generate writes one image for req. Missing width or height take the
// defaults. The output is always exactly Width x Height.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	startTime := time.Now()

	if req.Width == 0 {
		req.Width = DefaultWidth
	}
	if req.Height == 0 {
		req.Height = DefaultHeight
	}
	if err := validate(req); err != nil {
		return errorResult(err)
	}

	outcome := g.tryRemote(ctx, req)
	mode := ChooseMode(req.UseAI, outcome)

	var img image.Image
	var fallbackReason string
	switch mode {
	case Remote:
		img = imageio.Letterbox(outcome.Image, req.Width, req.Height)
	default:
		if req.UseAI {
			fallbackReason = fallbackMessage(outcome)
			log.Warn().
				Str("output_path", req.OutputPath).
				Str("reason", fallbackReason).
				Msg("AI generation unavailable, falling back to sketch")
		}
		img = g.renderer.Render(req.Prompt, req.Width, req.Height)
	}

	if err := imageio.SavePNG(req.OutputPath, img); err != nil {
		log.Error().Err(err).Str("output_path", req.OutputPath).Msg("Failed to write image")
		return errorResult(status.Wrap(status.CodeWriteFailed, err, "failed to write output"))
	}

	rec := metrics.New().
		Dimension("Operation", "generate_image").
		Dimension("Mode", string(mode)).
		Duration(metrics.GenerationMs, time.Since(startTime)).
		Property("outputPath", req.OutputPath)
	if fallbackReason != "" {
		rec.Count(metrics.SketchFallbacks).Property("fallbackReason", fallbackReason)
	}
	rec.Flush()

	log.Info().
		Str("output_path", req.OutputPath).
		Str("mode", string(mode)).
		Int("width", req.Width).
		Int("height", req.Height).
		Dur("duration", time.Since(startTime)).
		Msg("Image generated")

	msg := "Storyboard sketch generated"
	if mode == Remote {
		msg = "Image generated with AI"
	} else if fallbackReason != "" {
		msg = "AI generation failed, storyboard sketch generated"
	}

	return Result{
		Status:         StatusOK,
		Code:           status.CodeSuccess,
		OutputPath:     req.OutputPath,
		ModeUsed:       mode,
		Message:        msg,
		FallbackReason: fallbackReason,
	}
}

// tryRemote makes the single inference attempt for req, if AI was requested.
func (g *Generator) tryRemote(ctx context.Context, req Request) RemoteOutcome {
	if !req.UseAI {
		return RemoteOutcome{}
	}
	if g.client == nil {
		return RemoteOutcome{
			Attempted: true,
			Err:       status.New(status.CodeUpstreamUnavailable, "no inference client configured"),
		}
	}

	data, err := g.client.Generate(ctx, inference.Request{
		Prompt: req.Prompt,
		Width:  req.Width,
		Height: req.Height,
	})
	if err != nil {
		return RemoteOutcome{Attempted: true, Err: status.Wrap(status.CodeUpstreamUnavailable, err, "inference call failed")}
	}

	img, format, err := imageio.DecodeBytes(data)
	if err != nil {
		return RemoteOutcome{Attempted: true, Err: status.Wrap(status.CodeUpstreamUnavailable, err, "inference response is not an image")}
	}

	log.Debug().
		Str("provider", g.client.Name()).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Inference image decoded")

	return RemoteOutcome{Attempted: true, Image: img}
}

func validate(req Request) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return status.New(status.CodeInvalidInput, "prompt must not be empty")
	}
	if req.OutputPath == "" {
		return status.New(status.CodeInvalidInput, "output path must not be empty")
	}
	if req.Width < 0 || req.Height < 0 {
		return status.New(status.CodeInvalidInput, "width and height must be positive, got %dx%d", req.Width, req.Height)
	}
	return nil
}

func fallbackMessage(outcome RemoteOutcome) string {
	if outcome.Err != nil {
		return outcome.Err.Error()
	}
	return "inference returned no image"
}

func errorResult(err error) Result {
	code := status.CodeOf(err)
	if code == "" {
		code = status.CodeWriteFailed
	}
	return Result{
		Status:  StatusError,
		Code:    code,
		Message: err.Error(),
	}
}
