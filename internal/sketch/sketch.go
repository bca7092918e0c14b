// Package sketch draws the network-free storyboard placeholder used when
// remote inference is disabled or unavailable.
//
// Layout is defined against a 1920x1080 reference canvas and scaled to the
// requested size, so every output has the same composition: a framed white
// sheet with a centred title, the word-wrapped prompt, light composition
// guides and a footer note.
package sketch

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Title is drawn at the top of every sketch.
const Title = "STORYBOARD DRAFT"

// FooterNote is drawn centred at the bottom of every sketch.
const FooterNote = "Generated Draft • Refine in an image editor"

const (
	refWidth  = 1920.0
	refHeight = 1080.0
)

var (
	borderColor = color.RGBA{0x33, 0x33, 0x33, 0xff}
	textColor   = color.RGBA{0x33, 0x33, 0x33, 0xff}
	guideColor  = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	noteColor   = color.RGBA{0x99, 0x99, 0x99, 0xff}
)

// Renderer draws placeholder sketches. It is safe for concurrent use; the
// parsed font is shared and faces are created per render.
type Renderer struct {
	font       *opentype.Font
	fontSource string
}

// NewRenderer resolves fontPath (may be empty) through the font fallback chain.
func NewRenderer(fontPath string) *Renderer {
	f, src := loadFont(fontPath)
	log.Debug().Str("font_source", src).Msg("Sketch renderer ready")
	return &Renderer{font: f, fontSource: src}
}

// FontSource reports which font in the fallback chain is in use.
func (r *Renderer) FontSource() string {
	return r.fontSource
}

// Render draws the placeholder for prompt at exactly width x height.
// The same inputs always produce identical pixels.
func (r *Renderer) Render(prompt string, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sx := float64(width) / refWidth
	sy := float64(height) / refHeight

	titleFace, textFace := r.faces(sy)
	defer titleFace.Close()
	defer textFace.Close()

	// Guides sit underneath the text.
	drawThirds(img, sx, sy)
	drawCentreGuides(img, sx, sy)
	drawBorder(img, sx, sy)

	// Title, centred near the top.
	titleY := int(40 * sy)
	drawCentred(img, titleFace, Title, titleY, color.Black)

	// Prompt, word-wrapped between the side margins.
	margin := int(math.Max(4, 100*sx))
	maxWidth := width - 2*margin
	lineStep := int(math.Max(float64(lineHeight(textFace)), 50*sy))
	y := int(150 * sy)
	bottom := height - int(120*sy)
	for _, line := range wrap(textFace, prompt, maxWidth) {
		if y+lineStep > bottom && y != int(150*sy) {
			break
		}
		drawText(img, textFace, line, margin, y, textColor)
		y += lineStep
	}

	drawCentred(img, textFace, FooterNote, height-int(60*sy), noteColor)

	return img
}

func (r *Renderer) faces(scale float64) (font.Face, font.Face) {
	title, err := newFace(r.font, 60*scale)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create title face, using body face")
		title, _ = newFace(nil, 0)
	}
	text, err := newFace(r.font, 36*scale)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create text face, using built-in bitmap font")
		text, _ = newFace(nil, 0)
	}
	return title, text
}

// wrap splits text into lines no wider than maxWidth pixels. A single word
// wider than maxWidth gets a line of its own.
func wrap(face font.Face, text string, maxWidth int) []string {
	var lines []string
	var current []string

	for _, word := range strings.Fields(text) {
		candidate := strings.Join(append(current, word), " ")
		if font.MeasureString(face, candidate).Ceil() <= maxWidth || len(current) == 0 {
			current = append(current, word)
			continue
		}
		lines = append(lines, strings.Join(current, " "))
		current = []string{word}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// drawText draws s with its top edge at y.
func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func drawCentred(dst *image.RGBA, face font.Face, s string, y int, c color.Color) {
	w := font.MeasureString(face, s).Ceil()
	x := (dst.Bounds().Dx() - w) / 2
	if x < 0 {
		x = 0
	}
	drawText(dst, face, s, x, y, c)
}

func drawBorder(dst *image.RGBA, sx, sy float64) {
	w, h := float32(dst.Bounds().Dx()), float32(dst.Bounds().Dy())
	inset := float32(math.Max(1, 10*math.Min(sx, sy)))
	stroke := float32(math.Max(1, 3*math.Min(sx, sy)))

	z := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
	rectPath(z, inset, inset, w-inset, h-inset)
	// Inner rectangle wound the other way cuts out the interior.
	reverseRectPath(z, inset+stroke, inset+stroke, w-inset-stroke, h-inset-stroke)
	z.Draw(dst, dst.Bounds(), image.NewUniform(borderColor), image.Point{})
}

func drawThirds(dst *image.RGBA, sx, sy float64) {
	w, h := float32(dst.Bounds().Dx()), float32(dst.Bounds().Dy())
	stroke := float32(math.Max(1, math.Min(sx, sy)))

	z := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
	for i := 1; i <= 2; i++ {
		x := float32(int(w) * i / 3)
		y := float32(int(h) * i / 3)
		rectPath(z, x, 0, x+stroke, h)
		rectPath(z, 0, y, w, y+stroke)
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(guideColor), image.Point{})
}

func drawCentreGuides(dst *image.RGBA, sx, sy float64) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	cx, cy := float32(w/2), float32(h/2)
	thin := float32(math.Max(1, math.Min(sx, sy)))
	thick := float32(math.Max(1, 2*math.Min(sx, sy)))

	z := vector.NewRasterizer(w, h)

	// Ellipse outline.
	rx, ry := float32(200*sx), float32(150*sy)
	ellipsePath(z, cx, cy, rx, ry, false)
	ellipsePath(z, cx, cy, rx-thick, ry-thick, true)

	// Cross.
	hx, vy := float32(250*sx), float32(200*sy)
	rectPath(z, cx-hx, cy, cx+hx, cy+thin)
	rectPath(z, cx, cy-vy, cx+thin, cy+vy)

	z.Draw(dst, dst.Bounds(), image.NewUniform(guideColor), image.Point{})
}

func rectPath(z *vector.Rasterizer, x0, y0, x1, y1 float32) {
	z.MoveTo(x0, y0)
	z.LineTo(x1, y0)
	z.LineTo(x1, y1)
	z.LineTo(x0, y1)
	z.ClosePath()
}

func reverseRectPath(z *vector.Rasterizer, x0, y0, x1, y1 float32) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	z.MoveTo(x0, y0)
	z.LineTo(x0, y1)
	z.LineTo(x1, y1)
	z.LineTo(x1, y0)
	z.ClosePath()
}

const ellipseSegments = 128

func ellipsePath(z *vector.Rasterizer, cx, cy, rx, ry float32, reverse bool) {
	if rx <= 0 || ry <= 0 {
		return
	}
	for i := 0; i <= ellipseSegments; i++ {
		theta := 2 * math.Pi * float64(i) / ellipseSegments
		if reverse {
			theta = -theta
		}
		x := cx + rx*float32(math.Cos(theta))
		y := cy + ry*float32(math.Sin(theta))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}
