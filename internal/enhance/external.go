package enhance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// DefaultEditorCandidates are probed in order when no editor path is configured.
var DefaultEditorCandidates = []string{
	"/Applications/GIMP.app/Contents/MacOS/gimp",
	"/usr/local/bin/gimp",
	"/usr/bin/gimp",
	"gimp",
}

// editorProbeTimeout bounds each --version probe.
const editorProbeTimeout = 5 * time.Second

// waitDelay bounds how long Wait blocks for I/O after the process is killed.
const waitDelay = 2 * time.Second

// FindEditor returns the first candidate that answers --version successfully.
// With no candidates the default install locations are probed.
func FindEditor(ctx context.Context, candidates ...string) (string, bool) {
	if len(candidates) == 0 {
		candidates = DefaultEditorCandidates
	}

	for _, path := range candidates {
		if path == "" {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, editorProbeTimeout)
		cmd := exec.CommandContext(probeCtx, path, "--version")
		cmd.WaitDelay = waitDelay
		out, err := cmd.Output()
		cancel()
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Editor candidate not usable")
			continue
		}
		log.Debug().
			Str("path", path).
			Str("version", strings.TrimSpace(string(out))).
			Msg("External editor found")
		return path, true
	}
	return "", false
}

// ExternalEditor delegates the whole chain to a batch-mode GIMP run.
type ExternalEditor struct {
	path    string
	timeout time.Duration
}

// NewExternalEditor creates a backend for the editor at path. Every run is
// killed after timeout.
func NewExternalEditor(path string, timeout time.Duration) *ExternalEditor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExternalEditor{path: path, timeout: timeout}
}

// Name returns BackendExternal.
func (e *ExternalEditor) Name() string { return BackendExternal }

// Path returns the editor executable.
func (e *ExternalEditor) Path() string { return e.path }

// Apply runs the editor on inputPath. The editor writes to a temporary
// sibling of outputPath which is checked and then renamed into place.
func (e *ExternalEditor) Apply(ctx context.Context, inputPath, outputPath string, ops Operations) error {
	if err := imageio.EnsureParentDir(outputPath); err != nil {
		return status.Wrap(status.CodeWriteFailed, err, "failed to prepare output directory")
	}

	tmpOut := imageio.TempPath(outputPath)
	defer os.Remove(tmpOut)

	scriptFile, err := os.CreateTemp("", "storyboard-enhance-*.scm")
	if err != nil {
		return status.Wrap(status.CodeExternalToolFailed, err, "failed to create editor script")
	}
	scriptPath := scriptFile.Name()
	defer os.Remove(scriptPath)

	if _, err := scriptFile.WriteString(buildScript(inputPath, tmpOut, ops)); err != nil {
		scriptFile.Close()
		return status.Wrap(status.CodeExternalToolFailed, err, "failed to write editor script")
	}
	if err := scriptFile.Close(); err != nil {
		return status.Wrap(status.CodeExternalToolFailed, err, "failed to write editor script")
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.path,
		"-i",
		"-b", fmt.Sprintf("(load %s)", quoteScheme(scriptPath)),
		"-b", "(gimp-quit 0)",
	)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().
		Str("editor", e.path).
		Str("input", inputPath).
		Dur("timeout", e.timeout).
		Msg("Running external editor")

	startTime := time.Now()
	err = cmd.Run()
	duration := time.Since(startTime)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return status.New(status.CodeExternalToolFailed, "editor timed out after %s", e.timeout)
	}
	if err != nil {
		return status.Wrap(status.CodeExternalToolFailed, err,
			fmt.Sprintf("editor failed: %s", truncate(strings.TrimSpace(stderr.String()), 300)))
	}

	if _, _, err := imageio.Decode(tmpOut); err != nil {
		return status.Wrap(status.CodeExternalToolFailed, err, "editor produced no readable output")
	}

	if err := imageio.ReplaceFile(tmpOut, outputPath); err != nil {
		return status.Wrap(status.CodeWriteFailed, err, "failed to write enhanced image")
	}

	log.Debug().
		Str("output", outputPath).
		Dur("duration", duration).
		Msg("External editor completed")

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
