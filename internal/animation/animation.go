// Package animation turns an ordered prompt sequence into numbered frames and
// one looping GIF. Each stage is a gate: a failure stops the pipeline and
// leaves whatever frames were already written on disk.
package animation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/frames"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/metrics"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// Defaults applied to zero-valued Spec fields.
const (
	DefaultFrameRate  = 10
	DefaultWidth      = 512
	DefaultHeight     = 512
	DefaultOutputDir  = "animations"
	DefaultOutputName = "animation.gif"
	EnhancedDirName   = "enhanced"
)

// ImageGenerator produces one frame.
type ImageGenerator interface {
	Generate(ctx context.Context, req generator.Request) generator.Result
}

// Spec describes one animation.
type Spec struct {
	Prompts     []string `json:"prompts"`
	FrameRate   float64  `json:"frame_rate"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Loop        int      `json:"loop"`
	Interpolate int      `json:"interpolate"`
	OutputDir   string   `json:"output_dir"`
	OutputName  string   `json:"output_name"`
	UseAI       bool     `json:"use_ai"`
}

// Result reports frames written, the GIF (if assembled), and the failing
// step otherwise.
type Result struct {
	Frames    []string       `json:"frames"`
	GIFPath   string         `json:"gif_path,omitempty"`
	Succeeded bool           `json:"succeeded"`
	Code      status.Code    `json:"code"`
	Message   string         `json:"message"`
	GIF       *GIFInfo       `json:"gif,omitempty"`
	Issues    []frames.Issue `json:"issues,omitempty"`
}

// FrameFilename returns the zero-padded name of the 1-based frame index.
func FrameFilename(index int) string {
	return fmt.Sprintf("frame_%04d.png", index)
}

// ExpandPrompts inserts interpolate-1 transition prompts between each
// consecutive pair, giving (len(prompts)-1)*interpolate+1 entries.
func ExpandPrompts(prompts []string, interpolate int) []string {
	if interpolate <= 1 || len(prompts) < 2 {
		return append([]string(nil), prompts...)
	}
	out := make([]string, 0, (len(prompts)-1)*interpolate+1)
	for i, p := range prompts {
		out = append(out, p)
		if i == len(prompts)-1 {
			break
		}
		for j := 1; j < interpolate; j++ {
			out = append(out, fmt.Sprintf("Transition from (%s) to (%s), stage %d/%d", p, prompts[i+1], j, interpolate))
		}
	}
	return out
}

// withDefaults fills unset fields. Interpolate 0 means none.
func (s Spec) withDefaults() Spec {
	if s.FrameRate == 0 {
		s.FrameRate = DefaultFrameRate
	}
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.Interpolate == 0 {
		s.Interpolate = 1
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.OutputName == "" {
		s.OutputName = DefaultOutputName
	}
	return s
}

// Validate checks s before anything is written.
func (s Spec) Validate() error {
	if len(s.Prompts) < 2 {
		return status.New(status.CodeInvalidInput, "animation needs at least 2 prompts, got %d", len(s.Prompts))
	}
	for i, p := range s.Prompts {
		if strings.TrimSpace(p) == "" {
			return status.New(status.CodeInvalidInput, "prompt %d is empty", i+1)
		}
	}
	if s.Interpolate < 1 {
		return status.New(status.CodeInvalidInput, "interpolate must be >= 1, got %d", s.Interpolate)
	}
	if s.FrameRate <= 0 {
		return status.New(status.CodeInvalidInput, "frame rate must be positive, got %v", s.FrameRate)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return status.New(status.CodeInvalidInput, "width and height must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.Loop < 0 {
		return status.New(status.CodeInvalidInput, "loop count must be >= 0, got %d", s.Loop)
	}
	if filepath.Base(s.OutputName) != s.OutputName {
		return status.New(status.CodeInvalidInput, "output name must be a file name, got %q", s.OutputName)
	}
	return nil
}

// Animator runs the frame pipeline.
type Animator struct {
	gen ImageGenerator
	enh frames.Enhancer
}

// New creates an Animator. enh may be nil when frames are never enhanced.
func New(gen ImageGenerator, enh frames.Enhancer) *Animator {
	return &Animator{gen: gen, enh: enh}
}

// Generate expands, renders, optionally enhances, validates and assembles
// the animation. When enhanceOpts is set, enhanced copies are written to
// an "enhanced" subdirectory and those are assembled.
func (a *Animator) Generate(ctx context.Context, spec Spec, enhanceOpts *enhance.Options) Result {
	startTime := time.Now()
	spec = spec.withDefaults()

	if err := spec.Validate(); err != nil {
		return failed(nil, err)
	}
	if enhanceOpts != nil {
		if _, err := enhance.ResolveOperations(*enhanceOpts); err != nil {
			return failed(nil, err)
		}
		if a.enh == nil {
			return failed(nil, status.New(status.CodeInvalidInput, "enhancement requested but no enhancer configured"))
		}
	}

	prompts := ExpandPrompts(spec.Prompts, spec.Interpolate)
	expected := frames.Resolution{Width: spec.Width, Height: spec.Height}

	log.Info().
		Int("prompts", len(spec.Prompts)).
		Int("frames", len(prompts)).
		Str("output_dir", spec.OutputDir).
		Str("resolution", expected.String()).
		Float64("frame_rate", spec.FrameRate).
		Msg("Generating animation frames")

	written := make([]string, 0, len(prompts))
	for i, prompt := range prompts {
		path := filepath.Join(spec.OutputDir, FrameFilename(i+1))
		res := a.gen.Generate(ctx, generator.Request{
			Prompt:     prompt,
			OutputPath: path,
			Width:      spec.Width,
			Height:     spec.Height,
			UseAI:      spec.UseAI,
		})
		if !res.OK() {
			return failed(written, status.New(res.Code, "frame %d: %s", i+1, res.Message))
		}
		log.Info().
			Int("frame", i+1).
			Int("total", len(prompts)).
			Str("mode", string(res.ModeUsed)).
			Msg("Frame generated")
		written = append(written, path)
	}

	assemble := written
	if enhanceOpts != nil {
		enhanced, err := a.enhanceFrames(ctx, written, filepath.Join(spec.OutputDir, EnhancedDirName), *enhanceOpts)
		if err != nil {
			return failed(written, err)
		}
		assemble = enhanced
	}

	validation := frames.ValidateSet(assemble, expected)
	if !validation.OK() {
		for _, issue := range validation.Issues {
			log.Error().Str("frame", issue.Frame).Str("issue", string(issue.Kind)).Msg("Frame failed validation")
		}
		res := failed(written, validation.Err())
		res.Issues = validation.Issues
		return res
	}

	gifPath := filepath.Join(spec.OutputDir, spec.OutputName)
	info, err := AssembleGIF(assemble, gifPath, spec.FrameRate, spec.Loop)
	if err != nil {
		return failed(written, err)
	}

	metrics.New().
		Dimension("Operation", "generate_animation").
		Metric(metrics.AnimationFrames, float64(info.Frames), metrics.UnitCount).
		Metric(metrics.OutputBytes, float64(info.SizeBytes), metrics.UnitBytes).
		Duration(metrics.GenerationMs, time.Since(startTime)).
		Property("gifPath", gifPath).
		Flush()

	log.Info().
		Str("gif_path", gifPath).
		Int("frames", info.Frames).
		Dur("duration", time.Since(startTime)).
		Msg("Animation complete")

	return Result{
		Frames:    written,
		GIFPath:   gifPath,
		Succeeded: true,
		Code:      status.CodeSuccess,
		Message:   fmt.Sprintf("Animation assembled from %d frames", info.Frames),
		GIF:       &info,
	}
}

func (a *Animator) enhanceFrames(ctx context.Context, paths []string, dir string, opts enhance.Options) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		dst := filepath.Join(dir, filepath.Base(path))
		res := a.enh.Enhance(ctx, path, dst, opts)
		if !res.OK() {
			return nil, status.New(res.Code, "enhancing %s: %s", filepath.Base(path), res.Message)
		}
		out = append(out, dst)
	}
	log.Info().Int("frames", len(out)).Str("dir", dir).Msg("Frames enhanced")
	return out, nil
}

func failed(written []string, err error) Result {
	code := status.CodeOf(err)
	if code == "" {
		code = status.CodeWriteFailed
	}
	log.Error().Err(err).Str("code", string(code)).Int("frames_written", len(written)).Msg("Animation failed")
	return Result{
		Frames:    written,
		Succeeded: false,
		Code:      code,
		Message:   err.Error(),
	}
}
