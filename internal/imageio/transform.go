package imageio

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// ToRGB flattens img onto an opaque white background. The result is fully
// opaque, so the PNG encoder writes it as three-channel truecolor.
func ToRGB(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Opaque() && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, stddraw.Src)
	stddraw.Draw(out, out.Bounds(), img, b.Min, stddraw.Over)
	return out
}

// Letterbox scales img to fit inside width x height while preserving its
// aspect ratio and centres it on a black canvas of exactly that size.
// An image that already has the requested size is returned flattened but unscaled.
func Letterbox(img image.Image, width, height int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return ToRGB(img)
	}

	fitW, fitH := calculateFitDimensions(b.Dx(), b.Dy(), width, height)

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	stddraw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, stddraw.Src)

	offX := (width - fitW) / 2
	offY := (height - fitH) / 2
	target := image.Rect(offX, offY, offX+fitW, offY+fitH)

	// Flatten first so transparent regions come out white, not black.
	draw.CatmullRom.Scale(out, target, ToRGB(img), image.Rect(0, 0, b.Dx(), b.Dy()), draw.Over, nil)

	log.Debug().
		Int("orig_width", b.Dx()).
		Int("orig_height", b.Dy()).
		Int("fit_width", fitW).
		Int("fit_height", fitH).
		Int("canvas_width", width).
		Int("canvas_height", height).
		Msg("Image letterboxed")

	return out
}

// calculateFitDimensions returns the largest size with the source aspect
// ratio that fits inside maxW x maxH. Both results are at least 1.
func calculateFitDimensions(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return maxW, maxH
	}

	// Compare srcW/srcH against maxW/maxH without floating point.
	if srcW*maxH >= srcH*maxW {
		h := srcH * maxW / srcW
		if h < 1 {
			h = 1
		}
		return maxW, h
	}

	w := srcW * maxH / srcH
	if w < 1 {
		w = 1
	}
	return w, maxH
}
