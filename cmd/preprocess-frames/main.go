package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fpang/storyboard-gen/internal/cli"
	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/frames"
	"github.com/fpang/storyboard-gen/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// maxIssuesShown limits the issues printed in validation mode.
const maxIssuesShown = 10

// CLI flags
var (
	outputDirFlag   string
	presetFlag      string
	patternFlag     string
	useExternalFlag bool
	editorPathFlag  string
	validateFlag    bool
	resolutionFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "preprocess-frames [directory]",
	Short: "Validate or enhance every frame in a directory",
	Long: `Enhance every file matching --pattern in a frame directory, in filename
order, writing results with the same names into the output directory
(default <directory>_enhanced). A frame that fails is reported and the rest
are still processed.

With --validate-only nothing is written: every frame is decoded and its
resolution compared with --expected-resolution, and with the resolution most
frames share.

Examples:
  preprocess-frames animations/
  preprocess-frames animations/ -o cleaned -p light
  preprocess-frames animations/ --validate-only --expected-resolution 512x512
  preprocess-frames  # Interactive mode - prompts for directory`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&outputDirFlag, "output-directory", "o", "", "Output directory (default <directory>_enhanced)")
	rootCmd.Flags().StringVarP(&presetFlag, "preset", "p", enhance.DefaultPreset, "Enhancement preset: light, medium, aggressive")
	rootCmd.Flags().StringVar(&patternFlag, "pattern", frames.DefaultPattern, "Glob selecting frame files")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-external-editor", false, "Enhance with the external editor when installed")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-gimp", false, "Alias for --use-external-editor")
	rootCmd.Flags().StringVar(&editorPathFlag, "editor-path", "", "External editor executable (default: auto-detect)")
	rootCmd.Flags().BoolVar(&validateFlag, "validate-only", false, "Only validate frames, do not enhance")
	rootCmd.Flags().StringVar(&resolutionFlag, "expected-resolution", "", "Resolution every frame must have, as WIDTHxHEIGHT")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	cfg := config.Load()
	cli.ConfigureMetrics(cfg, "preprocess-frames")

	logging.NewStartupLogger("preprocess-frames").
		Version(version).
		Feature("validateOnly", validateFlag).
		Feature("externalEditor", useExternalFlag).
		Feature("metrics", cfg.Metrics).
		Config("preset", presetFlag).
		Config("pattern", patternFlag).
		Config("expectedResolution", resolutionFlag).
		Log()

	var dirPath string
	if len(args) == 1 {
		dirPath = args[0]
	} else {
		dirPath = cli.PromptForDirectory(os.Stdin, os.Stdout)
	}
	dirPath, err := cli.ResolveDirectory(dirPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid frame directory")
	}

	if validateFlag {
		os.Exit(runValidate(dirPath))
	}
	os.Exit(runPreprocess(dirPath, cfg))
}

func runValidate(dirPath string) int {
	var expected *frames.Resolution
	if resolutionFlag != "" {
		r, err := frames.ParseResolution(resolutionFlag)
		if err != nil {
			log.Error().Err(err).Msg("Invalid --expected-resolution")
			return 1
		}
		expected = &r
	}

	v, err := frames.ValidateDirectory(dirPath, patternFlag, expected)
	if err != nil {
		log.Error().Err(err).Str("path", dirPath).Msg("Validation failed")
		return 1
	}

	fmt.Println()
	fmt.Println("=== Frame Validation Results ===")
	fmt.Printf("Total frames: %d\n", v.TotalFrames)
	resolutions := make([]string, 0, len(v.Resolutions))
	for r := range v.Resolutions {
		resolutions = append(resolutions, r)
	}
	sort.Strings(resolutions)
	fmt.Println("Resolutions:")
	for _, r := range resolutions {
		fmt.Printf("  %s: %d frames\n", r, v.Resolutions[r])
	}

	if v.OK() {
		fmt.Println("✓ All frames valid")
		return 0
	}

	fmt.Printf("Issues found: %d\n", len(v.Issues))
	for i, issue := range v.Issues {
		if i == maxIssuesShown {
			fmt.Printf("  ... and %d more\n", len(v.Issues)-maxIssuesShown)
			break
		}
		fmt.Printf("  ✗ %s\n", issue)
	}
	return 1
}

func runPreprocess(dirPath string, cfg config.Config) int {
	ctx := context.Background()
	enh := cli.NewEnhancer(ctx, cfg, editorPathFlag, useExternalFlag)

	rep, err := frames.Preprocess(ctx, enh, frames.PreprocessOptions{
		InputDir:  dirPath,
		OutputDir: outputDirFlag,
		Pattern:   patternFlag,
		Enhance: enhance.Options{
			Preset:            presetFlag,
			UseExternalEditor: useExternalFlag,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("path", dirPath).Msg("Preprocessing failed")
		return 1
	}

	rep.Print(os.Stdout, "Frame Preprocessing Report")
	fmt.Printf("Output directory: %s\n", rep.OutputDirectory)
	return rep.ExitCode()
}
