package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fpang/storyboard-gen/internal/cli"
	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	promptFlag string
	outputFlag string
	useAIFlag  bool
	widthFlag  int
	heightFlag int
	jsonFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "gen-image",
	Short: "Generate one storyboard image from a text prompt",
	Long: `Generate one image from a text prompt.

With --use-ai the configured inference provider is tried first. When it is
unavailable, slow or returns something that is not an image, a storyboard
sketch with the prompt text is drawn instead. Either way the output is a PNG
of exactly --width x --height pixels.

Examples:
  gen-image --prompt "A lighthouse at dusk" --output_file shot.png
  gen-image --prompt "A market street" --output_file out/market.png --use-ai
  gen-image --prompt "Close-up of hands" --output_file hands.png --width 1280 --height 720`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&promptFlag, "prompt", "", "Text description of the image")
	rootCmd.Flags().StringVar(&outputFlag, "output_file", "", "Path of the PNG to write")
	rootCmd.Flags().StringVar(&outputFlag, "output-file", "", "Alias for --output_file")
	rootCmd.Flags().BoolVar(&useAIFlag, "use-ai", false, "Try the hosted inference service before falling back to a sketch")
	rootCmd.Flags().IntVar(&widthFlag, "width", generator.DefaultWidth, "Output width in pixels")
	rootCmd.Flags().IntVar(&heightFlag, "height", generator.DefaultHeight, "Output height in pixels")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
	_ = rootCmd.MarkFlagRequired("prompt")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	cfg := config.Load()
	cli.ConfigureMetrics(cfg, "gen-image")

	logging.NewStartupLogger("gen-image").
		Version(version).
		Feature("ai", useAIFlag).
		Feature("metrics", cfg.Metrics).
		Config("provider", cfg.Provider).
		Config("inferenceTimeout", cfg.InferenceTimeout.String()).
		Config("fontPath", cfg.FontPath).
		Log()

	if outputFlag == "" {
		log.Fatal().Msg("--output_file is required")
	}

	ctx := context.Background()
	gen := cli.NewGenerator(ctx, cfg, useAIFlag)
	res := gen.Generate(ctx, generator.Request{
		Prompt:     promptFlag,
		OutputPath: outputFlag,
		Width:      widthFlag,
		Height:     heightFlag,
		UseAI:      useAIFlag,
	})

	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else if res.OK() {
		fmt.Printf("✓ %s (%s)\n", res.OutputPath, res.ModeUsed)
		if res.FallbackReason != "" {
			fmt.Printf("  AI unavailable: %s\n", res.FallbackReason)
		}
	} else {
		fmt.Printf("✗ %s: %s\n", res.Code, res.Message)
	}

	if !res.OK() {
		os.Exit(1)
	}
}
