package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/storyboard-gen/internal/cli"
	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/logging"
	"github.com/fpang/storyboard-gen/internal/storage"
	"github.com/fpang/storyboard-gen/internal/storyboard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	promptsFlag     []string
	promptsFileFlag string
	outputDirFlag   string
	useAIFlag       bool
	widthFlag       int
	heightFlag      int
	pdfFlag         bool
	uploadFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "gen-batch",
	Short: "Generate a numbered panel for each prompt",
	Long: `Generate one panel per prompt, in order, into an output directory as
panel_001.png, panel_002.png, ... A failed panel is reported and the run
continues with the next prompt.

With --pdf the finished panels are laid out on a printable storyboard sheet.
With --upload every artifact is copied to the configured S3 bucket.

Examples:
  gen-batch --prompts "Wide shot of a city" "Hero enters" "Close-up"
  gen-batch --prompts-file shots.txt --output-dir boards --pdf
  gen-batch --prompts-file shots.txt --use-ai --upload`,
	Args: cobra.ArbitraryArgs,
	Run:  runMain,
}

func init() {
	rootCmd.Flags().StringArrayVar(&promptsFlag, "prompts", nil, "Prompts, one per panel; further positional arguments are also prompts")
	rootCmd.Flags().StringVar(&promptsFileFlag, "prompts-file", "", "File with one prompt per line")
	rootCmd.Flags().StringVar(&outputDirFlag, "output-dir", "storyboard", "Directory for the panels")
	rootCmd.Flags().BoolVar(&useAIFlag, "use-ai", false, "Try the hosted inference service for each panel")
	rootCmd.Flags().IntVar(&widthFlag, "width", generator.DefaultWidth, "Panel width in pixels")
	rootCmd.Flags().IntVar(&heightFlag, "height", generator.DefaultHeight, "Panel height in pixels")
	rootCmd.Flags().BoolVar(&pdfFlag, "pdf", false, "Also write storyboard.pdf with every panel")
	rootCmd.Flags().BoolVar(&uploadFlag, "upload", false, "Upload artifacts to STORYBOARD_S3_BUCKET")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	cfg := config.Load()
	cli.ConfigureMetrics(cfg, "gen-batch")
	startTime := time.Now()

	logging.NewStartupLogger("gen-batch").
		Version(version).
		Feature("ai", useAIFlag).
		Feature("pdf", pdfFlag).
		Feature("s3Upload", uploadFlag).
		Feature("metrics", cfg.Metrics).
		Config("provider", cfg.Provider).
		Config("outputDir", outputDirFlag).
		Config("s3Bucket", cfg.S3Bucket).
		Log()

	prompts := append(append([]string(nil), promptsFlag...), args...)
	if promptsFileFlag != "" {
		fromFile, err := cli.ReadPrompts(promptsFileFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read prompts")
		}
		prompts = append(prompts, fromFile...)
	}
	if len(prompts) == 0 {
		log.Fatal().Msg("No prompts given; use --prompts or --prompts-file")
	}

	ctx := context.Background()

	var uploader *storage.Uploader
	if uploadFlag {
		u, err := cli.NewUploader(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Upload unavailable")
		}
		uploader = u
	}

	gen := cli.NewGenerator(ctx, cfg, useAIFlag)
	reqs := generator.PanelRequests(prompts, outputDirFlag, widthFlag, heightFlag, useAIFlag)
	rep := gen.RunBatch(ctx, reqs)

	artifacts := append([]string(nil), rep.Succeeded...)

	if pdfFlag && rep.SuccessCount > 0 {
		captions := make(map[string]string, len(reqs))
		for _, r := range reqs {
			captions[r.OutputPath] = r.Prompt
		}
		panels := make([]storyboard.Panel, 0, len(rep.Succeeded))
		for _, p := range rep.Succeeded {
			panels = append(panels, storyboard.Panel{ImagePath: p, Caption: captions[p]})
		}
		pdfPath := filepath.Join(outputDirFlag, "storyboard.pdf")
		pages, err := storyboard.WritePDF(pdfPath, "Storyboard", panels)
		if err != nil {
			log.Error().Err(err).Msg("Failed to write storyboard sheet")
			rep.AddFailure(pdfPath, err.Error())
		} else {
			size := "unknown size"
			if fi, err := os.Stat(pdfPath); err == nil {
				size = cli.FormatBytes(fi.Size())
			}
			fmt.Printf("Storyboard sheet: %s (%d pages, %s)\n", pdfPath, pages, size)
			artifacts = append(artifacts, pdfPath)
		}
	}

	rep.Print(os.Stdout, "Batch Generation Report")

	if uploader != nil {
		runID := storage.NewRunID()
		up := uploader.UploadAll(ctx, runID, artifacts)
		up.Print(os.Stdout, "Upload Report")
		if !up.OK() {
			rep.AddFailure("upload", fmt.Sprintf("%d uploads failed", up.FailureCount))
		}
	}

	fmt.Printf("Elapsed: %s\n", cli.FormatDurationShort(time.Since(startTime)))
	os.Exit(rep.ExitCode())
}
