// Package imageio provides raster decoding, normalization and atomic PNG
// output shared by the generator, enhancer and animation assembler.
//
// Every file produced by the storyboard tools goes through SavePNG, so all
// outputs are three-channel PNGs written with a temp-file-and-rename step.
package imageio

import (
	"fmt"
	"strings"
)

// SupportedImageExtensions maps decodable file extensions to MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// ArtifactExtensions maps non-raster artifacts produced by the tools to MIME types.
var ArtifactExtensions = map[string]string{
	".pdf":  "application/pdf",
	".json": "application/json",
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)

	if mimeType, ok := SupportedImageExtensions[ext]; ok {
		return mimeType, nil
	}

	if mimeType, ok := ArtifactExtensions[ext]; ok {
		return mimeType, nil
	}

	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// IsImage returns true if the file extension corresponds to a decodable image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}
