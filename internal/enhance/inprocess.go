package enhance

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// Backend names reported in results.
const (
	BackendInProcess = "in_process"
	BackendExternal  = "external_editor"
)

// Backend applies an operation bundle to the image at inputPath and writes
// the result to outputPath. Implementations must never leave a partial file
// at outputPath.
type Backend interface {
	Name() string
	Apply(ctx context.Context, inputPath, outputPath string, ops Operations) error
}

// InProcess runs the filter chain with raster primitives in this process.
// Despeckle is not available and is skipped.
type InProcess struct{}

// Name returns BackendInProcess.
func (InProcess) Name() string { return BackendInProcess }

// Apply decodes inputPath, processes it and writes a PNG to outputPath.
func (p InProcess) Apply(ctx context.Context, inputPath, outputPath string, ops Operations) error {
	img, _, err := imageio.Decode(inputPath)
	if err != nil {
		return status.Wrap(status.CodeMissingInput, err, "input image is unreadable")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := imageio.SavePNG(outputPath, p.Process(img, ops)); err != nil {
		return status.Wrap(status.CodeWriteFailed, err, "failed to write enhanced image")
	}
	return nil
}

// Process applies ops to img in the fixed order auto-levels, denoise,
// sharpen, brightness, contrast, saturation. Alpha is flattened onto white
// first. With IsNoop operations the pixels are returned unchanged.
func (InProcess) Process(img image.Image, ops Operations) image.Image {
	var out image.Image = imageio.ToRGB(img)
	if ops.IsNoop() {
		return out
	}

	if ops.AutoLevels {
		log.Debug().Msg("Applying auto levels")
		out = autoLevels(out)
	}

	for i := 0; i < ops.Denoise; i++ {
		log.Debug().Int("pass", i+1).Msg("Applying median denoise")
		out = median3x3(out)
	}

	if ops.Despeckle {
		log.Debug().Msg("Despeckle requires the external editor, skipping")
	}

	if ops.Sharpen > 0 {
		log.Debug().Float64("amount", ops.Sharpen).Msg("Applying sharpen")
		out = sharpen(out, ops.Sharpen)
	}

	if active(ops.Brightness) {
		log.Debug().Float64("factor", ops.Brightness).Msg("Applying brightness")
		out = scaleBrightness(out, ops.Brightness)
	}

	if active(ops.Contrast) {
		log.Debug().Float64("factor", ops.Contrast).Msg("Applying contrast")
		out = imaging.AdjustContrast(out, factorToPercent(ops.Contrast))
	}

	if active(ops.Saturation) {
		log.Debug().Float64("factor", ops.Saturation).Msg("Applying saturation")
		out = imaging.AdjustSaturation(out, factorToPercent(ops.Saturation))
	}

	return out
}

// autoLevels stretches each colour channel independently so its darkest
// value maps to 0 and its brightest to 255. Flat channels are left as is.
func autoLevels(img image.Image) image.Image {
	src := imaging.Clone(img)

	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}
	for i := 0; i < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := src.Pix[i+c]
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}

	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		for v := 0; v < 256; v++ {
			if hi[c] == lo[c] {
				lut[c][v] = uint8(v)
				continue
			}
			scale := 255.0 / float64(hi[c]-lo[c])
			lut[c][v] = clamp8((float64(v) - float64(lo[c])) * scale)
		}
	}

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[0][c.R], G: lut[1][c.G], B: lut[2][c.B], A: c.A}
	})
}

// scaleBrightness multiplies every channel by factor.
func scaleBrightness(img image.Image, factor float64) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(c.R) * factor),
			G: clamp8(float64(c.G) * factor),
			B: clamp8(float64(c.B) * factor),
			A: c.A,
		}
	})
}

// sharpen blends an unsharp-masked copy over the original with the given
// strength; 1.0 applies the full mask.
func sharpen(img image.Image, amount float64) image.Image {
	sharp := imaging.Sharpen(img, 1.0)
	if amount >= 1 {
		return sharp
	}
	return imaging.Overlay(img, sharp, image.Point{}, amount)
}

// factorToPercent maps a multiplicative factor to the -100..100 percentage
// range the imaging adjustments take.
func factorToPercent(f float64) float64 {
	return math.Max(-100, math.Min(100, (f-1)*100))
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
