package animation

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"math"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// paletteSampleWidth is the width each frame is reduced to before the shared
// palette is computed.
const paletteSampleWidth = 160

// GIFInfo summarises an assembled animation.
type GIFInfo struct {
	Path      string        `json:"path"`
	Frames    int           `json:"frames"`
	SizeBytes int64         `json:"size_bytes"`
	Delay     int           `json:"delay_cs"`
	Loop      int           `json:"loop"`
	Duration  time.Duration `json:"duration"`
}

// Print writes a human-readable summary to w.
func (i GIFInfo) Print(w io.Writer) {
	loop := "infinite"
	if i.Loop > 0 {
		loop = fmt.Sprintf("%d", i.Loop)
	}
	fmt.Fprintf(w, "GIF saved: %s\n", i.Path)
	fmt.Fprintf(w, "   File size: %.1f KB\n", float64(i.SizeBytes)/1024)
	fmt.Fprintf(w, "   Frames: %d\n", i.Frames)
	fmt.Fprintf(w, "   Duration per frame: %dms\n", i.Delay*10)
	fmt.Fprintf(w, "   Loop count: %s\n", loop)
	fmt.Fprintf(w, "   Animation duration: %.2fs\n", i.Duration.Seconds())
}

// DelayCentiseconds converts a frame rate to the GIF per-frame delay.
func DelayCentiseconds(frameRate float64) int {
	d := int(math.Round(1000 / frameRate / 10))
	if d < 1 {
		d = 1
	}
	return d
}

// AssembleGIF writes paths, in order, as one animated GIF at outputPath.
// All frames must share one size. Frames are mapped onto a single shared
// palette and every frame after the first only stores the rectangle that
// changed from its predecessor. loop 0 repeats forever.
func AssembleGIF(paths []string, outputPath string, frameRate float64, loop int) (GIFInfo, error) {
	if len(paths) == 0 {
		return GIFInfo{}, status.New(status.CodeInvalidInput, "no frames to assemble")
	}
	if frameRate <= 0 {
		return GIFInfo{}, status.New(status.CodeInvalidInput, "frame rate must be positive, got %v", frameRate)
	}
	if loop < 0 {
		return GIFInfo{}, status.New(status.CodeInvalidInput, "loop count must be >= 0, got %d", loop)
	}

	frames := make([]*image.RGBA, 0, len(paths))
	var bounds image.Rectangle
	for i, path := range paths {
		img, _, err := imageio.Decode(path)
		if err != nil {
			return GIFInfo{}, status.Wrap(status.CodeValidationFailed, err, "cannot decode frame")
		}
		rgb := imageio.ToRGB(img)
		if i == 0 {
			bounds = rgb.Bounds()
		} else if rgb.Bounds().Size() != bounds.Size() {
			return GIFInfo{}, status.New(status.CodeValidationFailed,
				"frame %s is %dx%d, want %dx%d", path, rgb.Bounds().Dx(), rgb.Bounds().Dy(), bounds.Dx(), bounds.Dy())
		}
		frames = append(frames, rgb)
	}

	palette := sharedPalette(frames)
	delay := DelayCentiseconds(frameRate)

	anim := &gif.GIF{
		LoopCount: loop,
		Config: image.Config{
			ColorModel: palette,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		},
	}

	mapper := newPaletteMapper(palette)
	var prev *image.Paletted
	for _, rgb := range frames {
		cur := mapper.convert(rgb)
		frame := cur
		if prev != nil {
			frame = cur.SubImage(changedRect(prev, cur)).(*image.Paletted)
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
		prev = cur
	}

	if err := writeGIF(outputPath, anim); err != nil {
		return GIFInfo{}, status.Wrap(status.CodeWriteFailed, err, "failed to write GIF")
	}

	info := GIFInfo{
		Path:     outputPath,
		Frames:   len(frames),
		Delay:    delay,
		Loop:     loop,
		Duration: time.Duration(len(frames)*delay) * 10 * time.Millisecond,
	}
	if st, err := os.Stat(outputPath); err == nil {
		info.SizeBytes = st.Size()
	}

	log.Info().
		Str("path", outputPath).
		Int("frames", info.Frames).
		Int("delay_cs", delay).
		Int("loop", loop).
		Int("palette_size", len(palette)).
		Int64("size_bytes", info.SizeBytes).
		Msg("GIF assembled")

	return info, nil
}

// sharedPalette computes one median-cut palette from a strip of downscaled
// copies of every frame.
func sharedPalette(frames []*image.RGBA) color.Palette {
	thumbs := make([]*image.NRGBA, 0, len(frames))
	stripW, stripH := 0, 0
	for _, f := range frames {
		var t *image.NRGBA
		if f.Bounds().Dx() > paletteSampleWidth {
			t = imaging.Resize(f, paletteSampleWidth, 0, imaging.Box)
		} else {
			t = imaging.Clone(f)
		}
		thumbs = append(thumbs, t)
		stripW = max(stripW, t.Bounds().Dx())
		stripH += t.Bounds().Dy()
	}

	strip := imaging.New(stripW, stripH, color.White)
	y := 0
	for _, t := range thumbs {
		strip = imaging.Paste(strip, t, image.Pt(0, y))
		y += t.Bounds().Dy()
	}

	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, 256), strip)
	if len(palette) == 0 {
		palette = color.Palette{color.Black, color.White}
	}
	return palette
}

// paletteMapper maps colours to their nearest palette index, caching lookups
// since frames repeat most colours.
type paletteMapper struct {
	palette color.Palette
	cache   map[color.RGBA]uint8
}

func newPaletteMapper(p color.Palette) *paletteMapper {
	return &paletteMapper{palette: p, cache: make(map[color.RGBA]uint8)}
}

func (m *paletteMapper) convert(src *image.RGBA) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), m.palette)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			idx, ok := m.cache[c]
			if !ok {
				idx = uint8(m.palette.Index(c))
				m.cache[c] = idx
			}
			dst.SetColorIndex(x, y, idx)
		}
	}
	return dst
}

// changedRect returns the bounding box of pixels that differ between a and
// b. Identical frames yield a single pixel so the frame still carries its delay.
func changedRect(a, b *image.Paletted) image.Rectangle {
	bounds := b.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.ColorIndexAt(x, y) == b.ColorIndexAt(x, y) {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+1, bounds.Min.Y+1)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

func writeGIF(path string, anim *gif.GIF) error {
	if err := imageio.EnsureParentDir(path); err != nil {
		return err
	}
	tmpPath := imageio.TempPath(path)
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := gif.EncodeAll(w, anim); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return imageio.ReplaceFile(tmpPath, path)
}
