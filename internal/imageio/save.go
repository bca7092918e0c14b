package imageio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EnsureParentDir creates the directory that will hold path.
// A path with no directory component resolves to "." and is a no-op.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}

// TempPath returns a hidden, unique sibling path for atomic writes of path.
func TempPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
}

// SavePNG encodes img as a three-channel PNG at path. The image is written
// to a temporary sibling first and renamed into place, so a failed write
// never leaves a truncated file at path. Existing files are replaced.
func SavePNG(path string, img image.Image) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	rgb := ToRGB(img)
	tmpPath := TempPath(path)

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(f, rgb); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush PNG: %w", err)
	}

	if err := ReplaceFile(tmpPath, path); err != nil {
		return err
	}

	log.Debug().
		Str("path", path).
		Int("width", rgb.Bounds().Dx()).
		Int("height", rgb.Bounds().Dy()).
		Msg("PNG saved")

	return nil
}

// ReplaceFile renames src over dst, removing src if the rename fails.
func ReplaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		os.Remove(src)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(dst), err)
	}
	return nil
}
