package cli

import (
	"os"
	"path/filepath"

	"github.com/fpang/storyboard-gen/internal/status"
)

// ResolveDirectory checks that the path exists and is a directory, then
// returns the absolute path.
func ResolveDirectory(dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", status.New(status.CodeInvalidInput, "directory not found: %s", dirPath)
		}
		return "", status.Wrap(status.CodeInvalidInput, err, "failed to access directory")
	}
	if !info.IsDir() {
		return "", status.New(status.CodeInvalidInput, "path is not a directory: %s", dirPath)
	}

	absPath, err := filepath.Abs(dirPath)
	if err == nil {
		dirPath = absPath
	}

	return dirPath, nil
}
