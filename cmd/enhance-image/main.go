package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fpang/storyboard-gen/internal/cli"
	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	outputFlag      string
	presetFlag      string
	useExternalFlag bool
	editorPathFlag  string
	jsonFlag        bool
)

var rootCmd = &cobra.Command{
	Use:   "enhance-image <input>",
	Short: "Clean up a generated image with an enhancement preset",
	Long: `Apply auto-levels, denoise, sharpen and contrast adjustments to one image.

Presets: ` + strings.Join(enhance.PresetNames(), ", ") + `. The default output is
<name>_enhanced.<ext> next to the input. With --use-external-editor the chain
runs in a batch-mode GIMP process when one is installed; if it is missing,
fails or times out the image is enhanced in-process instead.

Examples:
  enhance-image panel_001.png
  enhance-image shot.png -o shot_clean.png -p aggressive
  enhance-image shot.png --use-gimp --gimp-path /opt/gimp/bin/gimp --json`,
	Args: cobra.ExactArgs(1),
	Run:  runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default <name>_enhanced.<ext>)")
	rootCmd.Flags().StringVarP(&presetFlag, "preset", "p", enhance.DefaultPreset, "Enhancement preset")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-external-editor", false, "Run the chain in the external editor when installed")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-gimp", false, "Alias for --use-external-editor")
	rootCmd.Flags().StringVar(&editorPathFlag, "editor-path", "", "External editor executable (default: auto-detect)")
	rootCmd.Flags().StringVar(&editorPathFlag, "gimp-path", "", "Alias for --editor-path")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	cfg := config.Load()
	cli.ConfigureMetrics(cfg, "enhance-image")

	logging.NewStartupLogger("enhance-image").
		Version(version).
		Feature("externalEditor", useExternalFlag).
		Feature("metrics", cfg.Metrics).
		Config("preset", presetFlag).
		Config("editorPath", editorPathFlag).
		Config("editorTimeout", cfg.EditorTimeout.String()).
		Log()

	ctx := context.Background()
	enh := cli.NewEnhancer(ctx, cfg, editorPathFlag, useExternalFlag)
	res := enh.Enhance(ctx, args[0], outputFlag, enhance.Options{
		Preset:            presetFlag,
		UseExternalEditor: useExternalFlag,
	})

	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else if res.OK() {
		fmt.Printf("✓ %s (%s)\n", res.OutputPath, res.Backend)
		if res.Fallback != "" {
			fmt.Printf("  External editor not used: %s\n", res.Fallback)
		}
	} else {
		fmt.Printf("✗ %s: %s\n", res.Code, res.Message)
	}

	if !res.OK() {
		os.Exit(1)
	}
}
