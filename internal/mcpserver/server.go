// Package mcpserver exposes image generation, enhancement, animation and
// frame preprocessing as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/fpang/storyboard-gen/internal/animation"
	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/frames"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/report"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName identifies the server to MCP clients.
const ServerName = "storyboard-gen"

// GenerateImageInput is the generate_image argument object.
type GenerateImageInput struct {
	Prompt     string `json:"prompt" jsonschema:"text description of the image"`
	OutputFile string `json:"output_file" jsonschema:"path of the PNG to write"`
	UseAI      bool   `json:"use_ai,omitempty" jsonschema:"try the hosted inference service before falling back to a sketch"`
	Width      int    `json:"width,omitempty" jsonschema:"output width in pixels (default 1920)"`
	Height     int    `json:"height,omitempty" jsonschema:"output height in pixels (default 1080)"`
}

// EnhanceImageInput is the enhance_image argument object.
type EnhanceImageInput struct {
	InputPath         string `json:"input_path" jsonschema:"image to enhance"`
	OutputPath        string `json:"output_path,omitempty" jsonschema:"output path (default <name>_enhanced.<ext>)"`
	Preset            string `json:"preset,omitempty" jsonschema:"light, medium or aggressive (default medium)"`
	UseExternalEditor bool   `json:"use_external_editor,omitempty" jsonschema:"run the chain in the external editor when installed"`
}

// GenerateAnimationInput is the generate_animation argument object.
type GenerateAnimationInput struct {
	Prompts           []string `json:"prompts" jsonschema:"ordered prompts, at least two"`
	OutputDir         string   `json:"output_dir,omitempty" jsonschema:"directory for frames and the GIF (default animations)"`
	OutputName        string   `json:"output_name,omitempty" jsonschema:"GIF file name (default animation.gif)"`
	FrameRate         float64  `json:"frame_rate,omitempty" jsonschema:"frames per second (default 10)"`
	Width             int      `json:"width,omitempty" jsonschema:"frame width in pixels (default 512)"`
	Height            int      `json:"height,omitempty" jsonschema:"frame height in pixels (default 512)"`
	Loop              int      `json:"loop,omitempty" jsonschema:"loop count, 0 repeats forever"`
	Interpolate       int      `json:"interpolate,omitempty" jsonschema:"frames per prompt pair, 1 means none"`
	UseAI             bool     `json:"use_ai,omitempty" jsonschema:"try the hosted inference service for each frame"`
	EnhancementPreset string   `json:"enhancement_preset,omitempty" jsonschema:"enhance every frame with this preset before assembly"`
	UseExternalEditor bool     `json:"use_external_editor,omitempty" jsonschema:"enhance frames in the external editor when installed (implies the default preset)"`
}

// PreprocessFramesInput is the preprocess_frames argument object.
type PreprocessFramesInput struct {
	Directory          string `json:"directory" jsonschema:"directory containing frames"`
	OutputDirectory    string `json:"output_directory,omitempty" jsonschema:"where enhanced frames go (default <directory>_enhanced)"`
	Preset             string `json:"preset,omitempty" jsonschema:"light, medium or aggressive (default medium)"`
	Pattern            string `json:"pattern,omitempty" jsonschema:"glob selecting frames (default *.png)"`
	ValidateOnly       bool   `json:"validate_only,omitempty" jsonschema:"only check decodability and resolution"`
	ExpectedResolution string `json:"expected_resolution,omitempty" jsonschema:"WIDTHxHEIGHT every frame must match"`
	UseExternalEditor  bool   `json:"use_external_editor,omitempty" jsonschema:"run the chain in the external editor when installed"`
}

// PreprocessFramesOutput is the preprocess_frames result.
type PreprocessFramesOutput struct {
	OutputDirectory string             `json:"output_directory,omitempty"`
	TotalFrames     int                `json:"total_frames"`
	Succeeded       []string           `json:"succeeded,omitempty"`
	Failed          []report.Failure   `json:"failed,omitempty"`
	SuccessCount    int                `json:"success_count"`
	FailureCount    int                `json:"failure_count"`
	Validation      *frames.Validation `json:"validation,omitempty"`
}

// Server routes tool calls to the storyboard components.
type Server struct {
	gen      animation.ImageGenerator
	enh      frames.Enhancer
	animator *animation.Animator
	version  string
}

// New creates a Server.
func New(gen animation.ImageGenerator, enh frames.Enhancer, version string) *Server {
	return &Server{
		gen:      gen,
		enh:      enh,
		animator: animation.New(gen, enh),
		version:  version,
	}
}

// MCP returns an MCP server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: s.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate one image from a prompt. Uses the hosted model when use_ai is set and falls back to a storyboard sketch.",
	}, s.GenerateImage)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "enhance_image",
		Description: "Apply an enhancement preset (levels, denoise, sharpen, contrast) to an image.",
	}, s.EnhanceImage)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_animation",
		Description: "Generate numbered frames from a prompt sequence and assemble them into a looping GIF.",
	}, s.GenerateAnimation)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "preprocess_frames",
		Description: "Validate or enhance every frame in a directory.",
	}, s.PreprocessFrames)

	return server
}

// Run serves tools over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("Starting MCP server on stdio")
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

// GenerateImage handles generate_image.
func (s *Server) GenerateImage(ctx context.Context, _ *mcp.CallToolRequest, in GenerateImageInput) (*mcp.CallToolResult, generator.Result, error) {
	res := s.gen.Generate(ctx, generator.Request{
		Prompt:     in.Prompt,
		OutputPath: in.OutputFile,
		Width:      in.Width,
		Height:     in.Height,
		UseAI:      in.UseAI,
	})
	if !res.OK() {
		return nil, res, toolError(res.Code, res.Message)
	}
	return nil, res, nil
}

// EnhanceImage handles enhance_image.
func (s *Server) EnhanceImage(ctx context.Context, _ *mcp.CallToolRequest, in EnhanceImageInput) (*mcp.CallToolResult, enhance.Result, error) {
	res := s.enh.Enhance(ctx, in.InputPath, in.OutputPath, enhance.Options{
		Preset:            in.Preset,
		UseExternalEditor: in.UseExternalEditor,
	})
	if !res.OK() {
		return nil, res, toolError(res.Code, res.Message)
	}
	return nil, res, nil
}

// GenerateAnimation handles generate_animation.
func (s *Server) GenerateAnimation(ctx context.Context, _ *mcp.CallToolRequest, in GenerateAnimationInput) (*mcp.CallToolResult, animation.Result, error) {
	var opts *enhance.Options
	if in.EnhancementPreset != "" || in.UseExternalEditor {
		opts = &enhance.Options{Preset: in.EnhancementPreset, UseExternalEditor: in.UseExternalEditor}
	}
	res := s.animator.Generate(ctx, animation.Spec{
		Prompts:     in.Prompts,
		FrameRate:   in.FrameRate,
		Width:       in.Width,
		Height:      in.Height,
		Loop:        in.Loop,
		Interpolate: in.Interpolate,
		OutputDir:   in.OutputDir,
		OutputName:  in.OutputName,
		UseAI:       in.UseAI,
	}, opts)
	if !res.Succeeded {
		return nil, res, toolError(res.Code, res.Message)
	}
	return nil, res, nil
}

// PreprocessFrames handles preprocess_frames.
func (s *Server) PreprocessFrames(ctx context.Context, _ *mcp.CallToolRequest, in PreprocessFramesInput) (*mcp.CallToolResult, PreprocessFramesOutput, error) {
	if in.ValidateOnly {
		var expected *frames.Resolution
		if in.ExpectedResolution != "" {
			r, err := frames.ParseResolution(in.ExpectedResolution)
			if err != nil {
				return nil, PreprocessFramesOutput{}, toolError(status.CodeOf(err), err.Error())
			}
			expected = &r
		}
		pattern := in.Pattern
		if pattern == "" {
			pattern = frames.DefaultPattern
		}
		v, err := frames.ValidateDirectory(in.Directory, pattern, expected)
		if err != nil {
			return nil, PreprocessFramesOutput{}, toolError(status.CodeOf(err), err.Error())
		}
		out := PreprocessFramesOutput{TotalFrames: v.TotalFrames, Validation: &v}
		if !v.OK() {
			return nil, out, toolError(status.CodeValidationFailed, v.Err().Error())
		}
		return nil, out, nil
	}

	rep, err := frames.Preprocess(ctx, s.enh, frames.PreprocessOptions{
		InputDir:  in.Directory,
		OutputDir: in.OutputDirectory,
		Pattern:   in.Pattern,
		Enhance:   enhance.Options{Preset: in.Preset, UseExternalEditor: in.UseExternalEditor},
	})
	if err != nil {
		return nil, PreprocessFramesOutput{}, toolError(status.CodeOf(err), err.Error())
	}

	out := PreprocessFramesOutput{
		OutputDirectory: rep.OutputDirectory,
		TotalFrames:     rep.TotalFrames,
		Succeeded:       rep.Succeeded,
		Failed:          rep.Failed,
		SuccessCount:    rep.SuccessCount,
		FailureCount:    rep.FailureCount,
	}
	if !rep.OK() {
		return nil, out, toolError(status.CodeWriteFailed, fmt.Sprintf("%d of %d frames failed", rep.FailureCount, rep.TotalFrames))
	}
	return nil, out, nil
}

// toolError reports a failed call to the client with its status code.
func toolError(code status.Code, msg string) error {
	if code == "" {
		code = status.CodeWriteFailed
	}
	log.Warn().Str("code", string(code)).Str("reason", msg).Msg("Tool call failed")
	return fmt.Errorf("%s: %s", code, msg)
}
