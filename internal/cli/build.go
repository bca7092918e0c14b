// Package cli holds helpers shared by the storyboard command-line tools.
package cli

import (
	"context"
	"os"

	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/inference"
	"github.com/fpang/storyboard-gen/internal/metrics"
	"github.com/fpang/storyboard-gen/internal/sketch"
	"github.com/fpang/storyboard-gen/internal/storage"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// NewGenerator builds a generator from cfg. When useAI is false, or the
// provider cannot be constructed, the generator has no inference client and
// every request is rendered as a sketch.
func NewGenerator(ctx context.Context, cfg config.Config, useAI bool) *generator.Generator {
	renderer := sketch.NewRenderer(cfg.FontPath)

	if !useAI {
		return generator.New(nil, renderer)
	}

	client, err := inference.New(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.Provider).Msg("Inference provider unavailable, sketches will be used")
		return generator.New(nil, renderer)
	}

	log.Debug().Str("provider", client.Name()).Msg("Inference client ready")
	return generator.New(client, renderer)
}

// NewEnhancer builds an enhancer. When useExternal is set the editor at
// editorPath (or cfg.EditorPath, or a default install location) is probed;
// if none answers, the enhancer runs in-process only.
func NewEnhancer(ctx context.Context, cfg config.Config, editorPath string, useExternal bool) *enhance.Enhancer {
	if !useExternal {
		return enhance.NewEnhancer(nil)
	}

	if editorPath == "" {
		editorPath = cfg.EditorPath
	}

	var candidates []string
	if editorPath != "" {
		candidates = []string{editorPath}
	}

	path, ok := enhance.FindEditor(ctx, candidates...)
	if !ok {
		log.Warn().Str("editor_path", editorPath).Msg("External editor not found, in-process enhancement will be used")
		return enhance.NewEnhancer(nil)
	}

	editor := enhance.NewExternalEditor(path, cfg.EditorTimeout)
	log.Debug().Str("editor_path", editor.Path()).Msg("External editor ready")
	return enhance.NewEnhancer(editor)
}

// NewUploader builds an uploader for the configured bucket.
func NewUploader(ctx context.Context, cfg config.Config) (*storage.Uploader, error) {
	if cfg.S3Bucket == "" {
		return nil, status.New(status.CodeInvalidInput, "upload requested but STORYBOARD_S3_BUCKET is not set")
	}
	return storage.NewUploader(ctx, cfg.S3Bucket, cfg.S3Prefix)
}

// ConfigureMetrics enables metric lines on stderr when cfg asks for them.
func ConfigureMetrics(cfg config.Config, tool string) {
	metrics.Configure(cfg.Metrics, tool, os.Stderr)
}
