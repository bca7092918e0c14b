package imageio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// Decode opens and decodes an image file, returning the image and its format name.
func Decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Image decoded")

	return img, format, nil
}

// DecodeBytes decodes an in-memory image such as an inference response body.
func DecodeBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image bytes: %w", err)
	}
	return img, format, nil
}

// Dimensions reads only the image header and returns width and height.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
