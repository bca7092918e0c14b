package generator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fpang/storyboard-gen/internal/report"
	"github.com/rs/zerolog/log"
)

// PanelFilename returns the zero-padded filename for the 1-based panel index.
func PanelFilename(index int) string {
	return fmt.Sprintf("panel_%03d.png", index)
}

// PanelRequests builds one request per prompt, writing panel_001.png,
// panel_002.png, ... into dir.
func PanelRequests(prompts []string, dir string, width, height int, useAI bool) []Request {
	reqs := make([]Request, 0, len(prompts))
	for i, p := range prompts {
		reqs = append(reqs, Request{
			Prompt:     p,
			OutputPath: filepath.Join(dir, PanelFilename(i+1)),
			Width:      width,
			Height:     height,
			UseAI:      useAI,
		})
	}
	return reqs
}

// RunBatch generates every request strictly in order. A failed item is
// recorded and the run continues with the next one.
func (g *Generator) RunBatch(ctx context.Context, reqs []Request) report.Report {
	var rep report.Report

	for i, req := range reqs {
		log.Info().
			Int("item", i+1).
			Int("total", len(reqs)).
			Str("output_path", req.OutputPath).
			Msg("Generating batch item")

		res := g.Generate(ctx, req)
		if res.OK() {
			rep.AddSuccess(res.OutputPath)
			continue
		}

		log.Warn().
			Str("output_path", req.OutputPath).
			Str("code", string(res.Code)).
			Str("reason", res.Message).
			Msg("Batch item failed")
		rep.AddFailure(req.OutputPath, res.Message)
	}

	log.Info().
		Int("succeeded", rep.SuccessCount).
		Int("failed", rep.FailureCount).
		Msg("Batch complete")

	return rep
}
