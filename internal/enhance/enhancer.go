package enhance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/storyboard-gen/internal/metrics"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Options selects the operations and backend for one Enhance call.
type Options struct {
	// Preset names a built-in bundle. Ignored when Operations is set.
	Preset string
	// Operations fully replaces the preset when non-nil.
	Operations *Operations
	// UseExternalEditor requests the external backend when one is available.
	UseExternalEditor bool
}

// Result is the structured outcome of one enhancement.
type Result struct {
	Status     string      `json:"status"`
	Code       status.Code `json:"code"`
	Message    string      `json:"message"`
	OutputPath string      `json:"output_path,omitempty"`
	Backend    string      `json:"backend,omitempty"`
	// Fallback explains why the external editor was not used, if it was requested.
	Fallback string `json:"fallback,omitempty"`
}

// OK reports whether an output file was written.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Enhancer applies operations through the external editor when requested and
// available, and in-process otherwise.
type Enhancer struct {
	inProcess InProcess
	external  Backend
}

// NewEnhancer creates an Enhancer. external may be nil when no editor is installed.
func NewEnhancer(external Backend) *Enhancer {
	return &Enhancer{external: external}
}

// HasExternal reports whether an external backend is configured.
func (e *Enhancer) HasExternal() bool {
	return e.external != nil
}

// DefaultOutputPath returns <base>_enhanced<ext> for inputPath.
func DefaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_enhanced" + ext
}

// ResolveOperations returns the operations opts selects.
func ResolveOperations(opts Options) (Operations, error) {
	if opts.Operations != nil {
		ops := *opts.Operations
		if err := ops.Validate(); err != nil {
			return Operations{}, err
		}
		return ops, nil
	}
	name := opts.Preset
	if name == "" {
		name = DefaultPreset
	}
	return LookupPreset(name)
}

// Enhance writes an enhanced copy of inputPath to outputPath (or the default
// sibling when empty). inputPath and outputPath may be the same file.
func (e *Enhancer) Enhance(ctx context.Context, inputPath, outputPath string, opts Options) Result {
	startTime := time.Now()

	ops, err := ResolveOperations(opts)
	if err != nil {
		return errorResult(err)
	}

	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return errorResult(status.New(status.CodeMissingInput, "input image not found: %s", inputPath))
	}

	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}

	log.Debug().
		Str("input", inputPath).
		Str("output", outputPath).
		Str("operations", ops.String()).
		Bool("external_requested", opts.UseExternalEditor).
		Msg("Enhancing image")

	rec := metrics.New().Dimension("Operation", "enhance_image")
	defer rec.Flush()

	var fallback string
	if opts.UseExternalEditor {
		if e.external == nil {
			fallback = "external editor not available"
			log.Warn().Str("input", inputPath).Msg("External editor not found, using in-process enhancement")
		} else {
			err := e.external.Apply(ctx, inputPath, outputPath, ops)
			if err == nil {
				rec.Dimension("Backend", e.external.Name()).Duration(metrics.EnhanceMs, time.Since(startTime))
				return okResult(outputPath, e.external.Name(), "")
			}
			if status.CodeOf(err).Terminal() {
				log.Error().Err(err).Str("input", inputPath).Msg("Enhancement failed")
				return errorResult(err)
			}
			fallback = err.Error()
			rec.Count(metrics.ExternalEditorFailures)
			log.Warn().Err(err).Str("input", inputPath).Msg("External editor failed, falling back to in-process enhancement")
		}
	}

	if err := e.inProcess.Apply(ctx, inputPath, outputPath, ops); err != nil {
		log.Error().Err(err).Str("input", inputPath).Msg("Enhancement failed")
		return errorResult(err)
	}

	rec.Dimension("Backend", BackendInProcess).Duration(metrics.EnhanceMs, time.Since(startTime))
	log.Info().
		Str("output", outputPath).
		Str("backend", BackendInProcess).
		Dur("duration", time.Since(startTime)).
		Msg("Enhancement complete")

	return okResult(outputPath, BackendInProcess, fallback)
}

func okResult(outputPath, backend, fallback string) Result {
	return Result{
		Status:     StatusOK,
		Code:       status.CodeSuccess,
		Message:    "Enhancement completed successfully",
		OutputPath: outputPath,
		Backend:    backend,
		Fallback:   fallback,
	}
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
