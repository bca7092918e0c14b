package imageio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// ListFiles returns the regular files directly inside dirPath whose names
// match the glob pattern, sorted lexically by filename. Subdirectories are
// not descended into. Symlinks to files are followed.
func ListFiles(dirPath, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if ok, _ := filepath.Match(pattern, name); !ok {
			continue
		}

		path := filepath.Join(dirPath, name)
		if e.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to stat symlink target, skipping")
				continue
			}
			if target.IsDir() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}

		files = append(files, path)
	}

	sort.Strings(files)

	log.Debug().
		Str("directory", dirPath).
		Str("pattern", pattern).
		Int("matches", len(files)).
		Msg("Directory listing complete")

	return files, nil
}

// ListImages is ListFiles restricted to decodable image extensions, so
// broad patterns such as "*" skip notes and sidecar files.
func ListImages(dirPath, pattern string) ([]string, error) {
	files, err := ListFiles(dirPath, pattern)
	if err != nil {
		return nil, err
	}

	images := files[:0]
	for _, f := range files {
		if !IsImage(filepath.Ext(f)) {
			log.Debug().Str("path", f).Msg("Skipping non-image file")
			continue
		}
		images = append(images, f)
	}
	return images, nil
}
