package frames

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/report"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// DefaultPattern selects frames when no pattern is given.
const DefaultPattern = "*.png"

// Enhancer is the single-image operation applied to every frame.
type Enhancer interface {
	Enhance(ctx context.Context, inputPath, outputPath string, opts enhance.Options) enhance.Result
}

// PreprocessOptions configures one directory run.
type PreprocessOptions struct {
	InputDir  string
	OutputDir string // default: InputDir + "_enhanced"
	Pattern   string // default: DefaultPattern
	Enhance   enhance.Options
}

// PreprocessReport extends the batch report with run details.
type PreprocessReport struct {
	report.Report
	OutputDirectory string `json:"output_directory"`
	TotalFrames     int    `json:"total_frames"`
}

// DefaultOutputDir returns the sibling directory used when none is given.
func DefaultOutputDir(inputDir string) string {
	return filepath.Clean(strings.TrimRight(inputDir, string(filepath.Separator))) + "_enhanced"
}

// Preprocess enhances every matching frame in lexical order, writing files
// with the same names into the output directory. Per-frame failures are
// collected; only setup problems return an error.
func Preprocess(ctx context.Context, e Enhancer, opts PreprocessOptions) (PreprocessReport, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir(opts.InputDir)
	}

	if _, err := enhance.ResolveOperations(opts.Enhance); err != nil {
		return PreprocessReport{}, err
	}

	info, err := os.Stat(opts.InputDir)
	if err != nil || !info.IsDir() {
		return PreprocessReport{}, status.New(status.CodeInvalidInput, "directory not found: %s", opts.InputDir)
	}

	paths, err := imageio.ListImages(opts.InputDir, opts.Pattern)
	if err != nil {
		return PreprocessReport{}, status.Wrap(status.CodeInvalidInput, err, "cannot list frames")
	}
	if len(paths) == 0 {
		return PreprocessReport{}, status.New(status.CodeInvalidInput, "no frames found matching pattern: %s", opts.Pattern)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return PreprocessReport{}, status.Wrap(status.CodeWriteFailed, err, "failed to create output directory")
	}

	rep := PreprocessReport{OutputDirectory: opts.OutputDir, TotalFrames: len(paths)}

	log.Info().
		Int("frames", len(paths)).
		Str("input", opts.InputDir).
		Str("output", opts.OutputDir).
		Str("preset", opts.Enhance.Preset).
		Msg("Preprocessing frames")

	for i, path := range paths {
		name := filepath.Base(path)
		out := filepath.Join(opts.OutputDir, name)

		log.Info().
			Int("frame", i+1).
			Int("total", len(paths)).
			Str("name", name).
			Msg("Enhancing frame")

		res := e.Enhance(ctx, path, out, opts.Enhance)
		if res.OK() {
			rep.AddSuccess(out)
			continue
		}
		log.Warn().Str("frame", name).Str("code", string(res.Code)).Str("reason", res.Message).Msg("Frame enhancement failed")
		rep.AddFailure(path, res.Message)
	}

	return rep, nil
}
