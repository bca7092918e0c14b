// Package storyboard lays generated panels out on printable sheets.
package storyboard

import (
	"fmt"
	"path/filepath"

	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
)

// Page geometry in millimetres for landscape A4.
const (
	pageW      = 297.0
	pageH      = 210.0
	margin     = 10.0
	titleH     = 12.0
	gutter     = 6.0
	captionH   = 11.0
	captionPt  = 9.0
	lineH      = 4.5
	cols       = 2
	rows       = 2
	perPage    = cols * rows
	maxCaption = 2
)

// Panel is one image and the text printed beneath it.
type Panel struct {
	ImagePath string `json:"image_path"`
	Caption   string `json:"caption"`
}

// WritePDF writes panels to path as a 2x2 grid per landscape A4 page and
// returns the page count. A panel whose image cannot be read is drawn as an
// empty frame so numbering stays aligned with the prompts.
func WritePDF(path, title string, panels []Panel) (int, error) {
	if len(panels) == 0 {
		return 0, fmt.Errorf("no panels to write")
	}
	if err := imageio.EnsureParentDir(path); err != nil {
		return 0, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("storyboard-gen", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	cellW := (pageW - 2*margin - gutter*(cols-1)) / cols
	cellH := (pageH - 2*margin - titleH - gutter*(rows-1)) / rows
	imgH := cellH - captionH

	pages := 0
	for i, panel := range panels {
		slot := i % perPage
		if slot == 0 {
			pdf.AddPage()
			pages++
			pdf.SetFont("Helvetica", "B", 14)
			pdf.SetTextColor(51, 51, 51)
			pdf.SetXY(margin, margin)
			pdf.CellFormat(pageW-2*margin, titleH-4, tr(fmt.Sprintf("%s  (page %d)", title, pages)), "", 0, "L", false, 0, "")
		}

		x := margin + float64(slot%cols)*(cellW+gutter)
		y := margin + titleH + float64(slot/cols)*(cellH+gutter)

		pdf.SetDrawColor(51, 51, 51)
		pdf.SetLineWidth(0.4)
		pdf.Rect(x, y, cellW, imgH, "D")

		if w, h, err := imageio.Dimensions(panel.ImagePath); err == nil && w > 0 && h > 0 {
			dw, dh := fit(float64(w), float64(h), cellW-2, imgH-2)
			pdf.ImageOptions(panel.ImagePath,
				x+(cellW-dw)/2, y+(imgH-dh)/2, dw, dh,
				false, gofpdf.ImageOptions{ImageType: imageType(panel.ImagePath)}, 0, "")
		} else {
			log.Warn().Err(err).Str("image_path", panel.ImagePath).Msg("Panel image unavailable, leaving frame empty")
		}

		pdf.SetFont("Helvetica", "", captionPt)
		pdf.SetTextColor(80, 80, 80)
		lines := pdf.SplitText(tr(fmt.Sprintf("%d. %s", i+1, panel.Caption)), cellW)
		if len(lines) > maxCaption {
			lines = lines[:maxCaption]
			lines[maxCaption-1] += "..."
		}
		for n, line := range lines {
			pdf.SetXY(x, y+imgH+1+float64(n)*lineH)
			pdf.CellFormat(cellW, lineH, line, "", 0, "L", false, 0, "")
		}

		if err := pdf.Error(); err != nil {
			return 0, fmt.Errorf("failed to lay out panel %d: %w", i+1, err)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return 0, fmt.Errorf("failed to write PDF: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("panels", len(panels)).
		Int("pages", pages).
		Msg("Storyboard sheet written")

	return pages, nil
}

// fit scales w x h to the largest size inside maxW x maxH.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

func imageType(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return "PNG"
	}
}
