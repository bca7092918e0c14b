package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpang/storyboard-gen/internal/cli"
	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/logging"
	"github.com/fpang/storyboard-gen/internal/mcpserver"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	useAIFlag       bool
	useExternalFlag bool
	editorPathFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "storyboard-mcp",
	Short: "Serve the storyboard tools over the Model Context Protocol",
	Long: `Run an MCP server on stdin/stdout exposing generate_image, enhance_image,
generate_animation and preprocess_frames. Logs go to stderr so they never mix
with protocol traffic.

--use-ai builds the inference client so that tool calls with use_ai set can
reach the hosted model; without it those calls fall back to sketches.

Examples:
  storyboard-mcp
  storyboard-mcp --use-ai --use-external-editor`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().BoolVar(&useAIFlag, "use-ai", false, "Build the inference client for use_ai tool calls")
	rootCmd.Flags().BoolVar(&useExternalFlag, "use-external-editor", false, "Allow enhance calls to use the external editor")
	rootCmd.Flags().StringVar(&editorPathFlag, "editor-path", "", "External editor executable (default: auto-detect)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	cfg := config.Load()
	cli.ConfigureMetrics(cfg, "storyboard-mcp")

	logging.NewStartupLogger("storyboard-mcp").
		Version(version).
		Feature("ai", useAIFlag).
		Feature("externalEditor", useExternalFlag).
		Feature("metrics", cfg.Metrics).
		Config("provider", cfg.Provider).
		Log()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := cli.NewGenerator(ctx, cfg, useAIFlag)
	enh := cli.NewEnhancer(ctx, cfg, editorPathFlag, useExternalFlag)

	if err := mcpserver.New(gen, enh, version).Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server stopped")
		os.Exit(1)
	}
}
