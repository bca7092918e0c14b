package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fpang/storyboard-gen/internal/animation"
	"github.com/fpang/storyboard-gen/internal/cli"
	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/logging"
	"github.com/fpang/storyboard-gen/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	promptsFlag     []string
	outputDirFlag   string
	outputNameFlag  string
	frameRateFlag   float64
	widthFlag       int
	heightFlag      int
	useAIFlag       bool
	enhanceFlag     bool
	presetFlag      string
	useExternalFlag bool
	editorPathFlag  string
	interpolateFlag int
	loopFlag        int
	uploadFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "gen-animation",
	Short: "Generate an animated GIF from a sequence of prompts",
	Long: `Generate numbered frames (frame_0001.png, ...) from an ordered list of
prompts and assemble them into one looping GIF.

--interpolate N inserts N-1 transition prompts between each pair, so N
prompts become (N-1)*interpolate+1 frames. With --enhance every frame is
enhanced into an "enhanced" subdirectory before assembly. Frames are checked
for size and decodability first; a bad frame stops the run and the frames
already written stay on disk.

Examples:
  gen-animation --prompts "A seed" "A sprout" "A tree"
  gen-animation --prompts "Sunrise" "Noon" "Sunset" --interpolate 3 --frame-rate 8
  gen-animation --prompts "Calm sea" "Storm" --enhance --enhancement-preset light --loop 2`,
	Args: cobra.ArbitraryArgs,
	Run:  runMain,
}

func init() {
	rootCmd.Flags().StringArrayVar(&promptsFlag, "prompts", nil, "Prompts in frame order; further positional arguments are also prompts")
	rootCmd.Flags().StringVar(&outputDirFlag, "output-dir", animation.DefaultOutputDir, "Directory for frames and the GIF")
	rootCmd.Flags().StringVar(&outputNameFlag, "output-name", animation.DefaultOutputName, "GIF file name")
	rootCmd.Flags().Float64Var(&frameRateFlag, "frame-rate", animation.DefaultFrameRate, "Frames per second")
	rootCmd.Flags().IntVar(&widthFlag, "width", animation.DefaultWidth, "Frame width in pixels")
	rootCmd.Flags().IntVar(&heightFlag, "height", animation.DefaultHeight, "Frame height in pixels")
	rootCmd.Flags().BoolVar(&useAIFlag, "use-ai", false, "Try the hosted inference service for each frame")
	rootCmd.Flags().BoolVar(&enhanceFlag, "enhance", false, "Enhance every frame before assembly")
	rootCmd.Flags().StringVar(&presetFlag, "enhancement-preset", enhance.DefaultPreset, "Enhancement preset: light, medium, aggressive")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-external-editor", false, "Enhance with the external editor when installed")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-gimp", false, "Alias for --use-external-editor")
	rootCmd.Flags().StringVar(&editorPathFlag, "editor-path", "", "External editor executable (default: auto-detect)")
	rootCmd.Flags().IntVar(&interpolateFlag, "interpolate", 1, "Frames per prompt pair (1 = no transitions)")
	rootCmd.Flags().IntVar(&loopFlag, "loop", 0, "Loop count (0 = infinite)")
	rootCmd.Flags().BoolVar(&uploadFlag, "upload", false, "Upload the GIF to STORYBOARD_S3_BUCKET")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	cfg := config.Load()
	cli.ConfigureMetrics(cfg, "gen-animation")
	startTime := time.Now()

	logging.NewStartupLogger("gen-animation").
		Version(version).
		Feature("ai", useAIFlag).
		Feature("enhance", enhanceFlag).
		Feature("externalEditor", useExternalFlag).
		Feature("s3Upload", uploadFlag).
		Feature("metrics", cfg.Metrics).
		Config("provider", cfg.Provider).
		Config("outputDir", outputDirFlag).
		Config("preset", presetFlag).
		Log()

	ctx := context.Background()

	var uploader *storage.Uploader
	if uploadFlag {
		u, err := cli.NewUploader(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Upload unavailable")
		}
		uploader = u
	}

	var enhanceOpts *enhance.Options
	if enhanceFlag {
		enhanceOpts = &enhance.Options{Preset: presetFlag, UseExternalEditor: useExternalFlag}
	}

	gen := cli.NewGenerator(ctx, cfg, useAIFlag)
	enh := cli.NewEnhancer(ctx, cfg, editorPathFlag, enhanceFlag && useExternalFlag)

	spec := animation.Spec{
		Prompts:     append(append([]string(nil), promptsFlag...), args...),
		FrameRate:   frameRateFlag,
		Width:       widthFlag,
		Height:      heightFlag,
		Loop:        loopFlag,
		Interpolate: interpolateFlag,
		OutputDir:   outputDirFlag,
		OutputName:  outputNameFlag,
		UseAI:       useAIFlag,
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("Storyboard Animation")
	fmt.Println("============================================")
	fmt.Printf("Prompts: %d\n", len(spec.Prompts))
	fmt.Printf("Frames: %d\n", len(animation.ExpandPrompts(spec.Prompts, spec.Interpolate)))
	fmt.Printf("Resolution: %dx%d\n", spec.Width, spec.Height)
	fmt.Printf("Frame rate: %v fps\n", spec.FrameRate)
	fmt.Printf("Output directory: %s\n", spec.OutputDir)
	fmt.Println("--------------------------------------------")

	res := animation.New(gen, enh).Generate(ctx, spec, enhanceOpts)
	if !res.Succeeded {
		fmt.Printf("\n✗ Animation failed (%s): %s\n", res.Code, res.Message)
		for _, issue := range res.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		if len(res.Frames) > 0 {
			fmt.Printf("Frames kept in %s/ (%d written)\n", spec.OutputDir, len(res.Frames))
		}
		os.Exit(1)
	}

	fmt.Println()
	res.GIF.Print(os.Stdout)
	fmt.Printf("Frames saved to: %s/\n", spec.OutputDir)

	exitCode := 0
	if uploader != nil {
		key, err := uploader.Upload(ctx, storage.NewRunID(), res.GIFPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to upload GIF")
			exitCode = 1
		} else {
			fmt.Printf("Uploaded: s3://%s/%s\n", uploader.Bucket(), key)
		}
	}

	fmt.Printf("Elapsed: %s\n", cli.FormatDurationShort(time.Since(startTime)))
	os.Exit(exitCode)
}
