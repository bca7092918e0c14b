package sketch

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font sources, in fallback order.
const (
	FontSourceFile     = "file"
	FontSourceEmbedded = "goregular"
	FontSourceBuiltin  = "basicfont"
)

// loadFont resolves the font used for every render. A configured file that
// cannot be read or parsed falls back to the embedded Go Regular face, and a
// failure there falls back to the fixed 7x13 bitmap face.
func loadFont(path string) (*opentype.Font, string) {
	if path != "" {
		f, err := parseFontFile(path)
		if err == nil {
			return f, FontSourceFile
		}
		log.Warn().Err(err).Str("font_path", path).Msg("Failed to load configured font, using embedded font")
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse embedded font, using built-in bitmap font")
		return nil, FontSourceBuiltin
	}
	return f, FontSourceEmbedded
}

// parseFontFile accepts single fonts (.ttf, .otf) and collections (.ttc),
// taking the first face of a collection.
func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}

	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}

	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if coll.NumFonts() == 0 {
		return nil, fmt.Errorf("font collection is empty")
	}
	return coll.Font(0)
}

// newFace returns a face of the given pixel size, or the bitmap face when no
// outline font is available.
func newFace(f *opentype.Font, size float64) (font.Face, error) {
	if f == nil {
		return basicfont.Face7x13, nil
	}
	if size < 6 {
		size = 6
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
