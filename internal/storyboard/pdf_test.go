package storyboard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/storyboard-gen/internal/imageio"
)

func writePanel(t *testing.T, dir string, i int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(i * 40), 120, uint8(x * 3), 255})
		}
	}
	p := filepath.Join(dir, fmt.Sprintf("panel_%03d.png", i))
	if err := imageio.SavePNG(p, img); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		panels    int
		wantPages int
	}{
		{1, 1},
		{4, 1},
		{5, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_panels", tt.panels), func(t *testing.T) {
			dir := t.TempDir()
			var panels []Panel
			for i := 1; i <= tt.panels; i++ {
				panels = append(panels, Panel{ImagePath: writePanel(t, dir, i), Caption: fmt.Sprintf("A wide shot of scene %d", i)})
			}
			out := filepath.Join(dir, "sheets", "storyboard.pdf")
			pages, err := WritePDF(out, "Storyboard", panels)
			if err != nil {
				t.Fatalf("WritePDF: %v", err)
			}
			if pages != tt.wantPages {
				t.Errorf("pages = %d, want %d", pages, tt.wantPages)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF-")) {
				t.Errorf("output is not a PDF")
			}
			if !bytes.Contains(data, []byte(fmt.Sprintf("/Count %d", tt.wantPages))) {
				t.Errorf("page tree does not declare %d pages", tt.wantPages)
			}
		})
	}
}

func TestWritePDF_MissingImageLeavesEmptyFrame(t *testing.T) {
	dir := t.TempDir()
	panels := []Panel{
		{ImagePath: writePanel(t, dir, 1), Caption: "ok"},
		{ImagePath: filepath.Join(dir, "gone.png"), Caption: "missing"},
	}
	if _, err := WritePDF(filepath.Join(dir, "s.pdf"), "Storyboard", panels); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
}

func TestWritePDF_NoPanels(t *testing.T) {
	if _, err := WritePDF(filepath.Join(t.TempDir(), "s.pdf"), "x", nil); err == nil {
		t.Error("expected error for empty panel list")
	}
}

func TestFit(t *testing.T) {
	w, h := fit(1920, 1080, 100, 100)
	if w != 100 || h != 56.25 {
		t.Errorf("fit = %vx%v, want 100x56.25", w, h)
	}
	w, h = fit(100, 200, 100, 100)
	if w != 50 || h != 100 {
		t.Errorf("fit = %vx%v, want 50x100", w, h)
	}
}
