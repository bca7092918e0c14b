package animation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpang/storyboard-gen/internal/enhance"
	"github.com/fpang/storyboard-gen/internal/frames"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/sketch"
	"github.com/fpang/storyboard-gen/internal/status"
)

func newAnimator() *Animator {
	return New(generator.New(nil, sketch.NewRenderer("")), enhance.NewEnhancer(nil))
}

func decodeGIF(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open gif: %v", err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	return g
}

func TestExpandPrompts(t *testing.T) {
	tests := []struct {
		name        string
		prompts     []string
		interpolate int
		want        int
	}{
		{"no interpolation", []string{"a", "b", "c"}, 1, 3},
		{"zero treated as none", []string{"a", "b"}, 0, 2},
		{"three per pair", []string{"a", "b", "c"}, 3, 7},
		{"two prompts four", []string{"a", "b"}, 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandPrompts(tt.prompts, tt.interpolate)
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d: %v", len(got), tt.want, got)
			}
			if got[0] != tt.prompts[0] || got[len(got)-1] != tt.prompts[len(tt.prompts)-1] {
				t.Errorf("endpoints not preserved: %v", got)
			}
		})
	}

	got := ExpandPrompts([]string{"sunrise", "noon"}, 3)
	want := "Transition from (sunrise) to (noon), stage 1/3"
	if got[1] != want {
		t.Errorf("got[1] = %q, want %q", got[1], want)
	}
}

func TestGenerate_FrameCounts(t *testing.T) {
	tests := []struct {
		interpolate int
		wantFrames  int
	}{
		{1, 3},
		{3, 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("interpolate_%d", tt.interpolate), func(t *testing.T) {
			dir := t.TempDir()
			res := newAnimator().Generate(context.Background(), Spec{
				Prompts:     []string{"a cat", "a dog", "a bird"},
				Width:       64,
				Height:      48,
				Interpolate: tt.interpolate,
				OutputDir:   dir,
			}, nil)
			if !res.Succeeded {
				t.Fatalf("Generate failed: %s %s", res.Code, res.Message)
			}
			if len(res.Frames) != tt.wantFrames {
				t.Fatalf("frames = %d, want %d", len(res.Frames), tt.wantFrames)
			}
			for i, p := range res.Frames {
				if filepath.Base(p) != FrameFilename(i+1) {
					t.Errorf("frame %d name = %s", i, filepath.Base(p))
				}
			}
			g := decodeGIF(t, res.GIFPath)
			if len(g.Image) != tt.wantFrames {
				t.Errorf("gif frames = %d, want %d", len(g.Image), tt.wantFrames)
			}
			if g.Config.Width != 64 || g.Config.Height != 48 {
				t.Errorf("gif size = %dx%d, want 64x48", g.Config.Width, g.Config.Height)
			}
		})
	}
}

func TestGenerate_DefaultScenario(t *testing.T) {
	dir := t.TempDir()
	res := newAnimator().Generate(context.Background(), Spec{
		Prompts:   []string{"sunrise", "noon", "sunset"},
		FrameRate: 10,
		OutputDir: dir,
	}, nil)
	if !res.Succeeded {
		t.Fatalf("Generate failed: %s %s", res.Code, res.Message)
	}
	if res.GIFPath != filepath.Join(dir, DefaultOutputName) {
		t.Errorf("GIFPath = %s", res.GIFPath)
	}
	for _, p := range res.Frames {
		w, h, err := imageio.Dimensions(p)
		if err != nil || w != 512 || h != 512 {
			t.Errorf("%s: %dx%d err=%v, want 512x512", p, w, h, err)
		}
	}
	g := decodeGIF(t, res.GIFPath)
	for i, d := range g.Delay {
		if d != 10 {
			t.Errorf("delay[%d] = %d, want 10", i, d)
		}
	}
	if g.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", g.LoopCount)
	}
	if res.GIF == nil || res.GIF.Frames != 3 || res.GIF.SizeBytes == 0 {
		t.Errorf("GIF info = %+v", res.GIF)
	}
}

func TestGenerate_TwoPromptsAt10FPS(t *testing.T) {
	dir := t.TempDir()
	res := newAnimator().Generate(context.Background(), Spec{
		Prompts:   []string{"a closed door", "an open door"},
		FrameRate: 10,
		Width:     512,
		Height:    512,
		Loop:      0,
		OutputDir: dir,
	}, nil)
	if !res.Succeeded {
		t.Fatalf("Generate failed: %s %s", res.Code, res.Message)
	}
	if len(res.Frames) != 2 {
		t.Fatalf("frames = %v, want 2", res.Frames)
	}

	for i, p := range res.Frames {
		if filepath.Base(p) != FrameFilename(i+1) {
			t.Errorf("frame %d named %s", i+1, filepath.Base(p))
		}
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		// IHDR bit depth and colour type: 8-bit truecolour without alpha.
		if len(data) < 26 || data[24] != 8 || data[25] != 2 {
			t.Errorf("%s is not an 8-bit RGB PNG", p)
		}
		w, h, err := imageio.Dimensions(p)
		if err != nil || w != 512 || h != 512 {
			t.Errorf("%s: %dx%d err=%v, want 512x512", p, w, h, err)
		}
	}

	g := decodeGIF(t, res.GIFPath)
	if len(g.Image) != 2 {
		t.Errorf("gif frames = %d, want 2", len(g.Image))
	}
	for i, d := range g.Delay {
		if d*10 != 100 {
			t.Errorf("delay[%d] = %dms, want 100ms", i, d*10)
		}
	}
	if g.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0 (infinite)", g.LoopCount)
	}
}

func TestGenerate_InvalidSpecWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"one prompt", Spec{Prompts: []string{"only"}}},
		{"empty prompt", Spec{Prompts: []string{"a", "  "}}},
		{"negative interpolate", Spec{Prompts: []string{"a", "b"}, Interpolate: -1}},
		{"negative frame rate", Spec{Prompts: []string{"a", "b"}, FrameRate: -5}},
		{"negative width", Spec{Prompts: []string{"a", "b"}, Width: -1}},
		{"negative loop", Spec{Prompts: []string{"a", "b"}, Loop: -1}},
		{"nested output name", Spec{Prompts: []string{"a", "b"}, OutputName: "x/anim.gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "anim")
			tt.spec.OutputDir = dir
			res := newAnimator().Generate(context.Background(), tt.spec, nil)
			if res.Succeeded || res.Code != status.CodeInvalidInput {
				t.Fatalf("res = %+v, want invalid_input", res)
			}
			if _, err := os.Stat(dir); !os.IsNotExist(err) {
				t.Errorf("output directory was created")
			}
		})
	}
}

func TestGenerate_InvalidPreset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "anim")
	res := newAnimator().Generate(context.Background(), Spec{
		Prompts:   []string{"a", "b"},
		OutputDir: dir,
	}, &enhance.Options{Preset: "extreme"})
	if res.Code != status.CodeInvalidPreset {
		t.Fatalf("code = %s, want invalid_preset", res.Code)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("output directory was created")
	}
}

func TestGenerate_WithEnhancement(t *testing.T) {
	dir := t.TempDir()
	res := newAnimator().Generate(context.Background(), Spec{
		Prompts:   []string{"a", "b"},
		Width:     40,
		Height:    30,
		OutputDir: dir,
	}, &enhance.Options{Preset: enhance.PresetLight})
	if !res.Succeeded {
		t.Fatalf("Generate failed: %s %s", res.Code, res.Message)
	}
	for _, p := range res.Frames {
		enhanced := filepath.Join(dir, EnhancedDirName, filepath.Base(p))
		if _, err := os.Stat(enhanced); err != nil {
			t.Errorf("missing enhanced frame %s: %v", enhanced, err)
		}
	}
}

// wrongSizeGenerator writes the second frame at the wrong size.
type wrongSizeGenerator struct {
	calls int
}

func (g *wrongSizeGenerator) Generate(_ context.Context, req generator.Request) generator.Result {
	g.calls++
	w, h := req.Width, req.Height
	if g.calls == 2 {
		w, h = w/2, h/2
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := imageio.SavePNG(req.OutputPath, img); err != nil {
		return generator.Result{Status: generator.StatusError, Code: status.CodeWriteFailed, Message: err.Error()}
	}
	return generator.Result{Status: generator.StatusOK, Code: status.CodeSuccess, OutputPath: req.OutputPath}
}

func TestGenerate_ValidationFailureKeepsFrames(t *testing.T) {
	dir := t.TempDir()
	res := New(&wrongSizeGenerator{}, nil).Generate(context.Background(), Spec{
		Prompts:   []string{"a", "b", "c"},
		Width:     20,
		Height:    20,
		OutputDir: dir,
	}, nil)
	if res.Succeeded || res.Code != status.CodeValidationFailed {
		t.Fatalf("res = %+v, want validation_failed", res)
	}
	if len(res.Frames) != 3 {
		t.Errorf("frames = %d, want 3 kept on disk", len(res.Frames))
	}
	if len(res.Issues) != 1 || res.Issues[0].Kind != frames.IssueWrongResolution || res.Issues[0].Frame != FrameFilename(2) {
		t.Errorf("issues = %+v", res.Issues)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultOutputName)); !os.IsNotExist(err) {
		t.Errorf("GIF written despite validation failure")
	}
	for _, p := range res.Frames {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("frame %s removed: %v", p, err)
		}
	}
}

func TestAssembleGIF_CropsUnchangedRegions(t *testing.T) {
	dir := t.TempDir()
	base := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			base.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	next := image.NewRGBA(base.Bounds())
	copy(next.Pix, base.Pix)
	for y := 10; y < 14; y++ {
		for x := 5; x < 9; x++ {
			next.Set(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	p1 := filepath.Join(dir, "1.png")
	p2 := filepath.Join(dir, "2.png")
	p3 := filepath.Join(dir, "3.png")
	for path, img := range map[string]image.Image{p1: base, p2: next, p3: next} {
		if err := imageio.SavePNG(path, img); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(dir, "out.gif")
	info, err := AssembleGIF([]string{p1, p2, p3}, out, 4, 2)
	if err != nil {
		t.Fatalf("AssembleGIF: %v", err)
	}
	if info.Delay != 25 || info.Loop != 2 || info.Frames != 3 {
		t.Errorf("info = %+v", info)
	}

	g := decodeGIF(t, out)
	if g.Image[0].Bounds() != image.Rect(0, 0, 32, 32) {
		t.Errorf("first frame bounds = %v", g.Image[0].Bounds())
	}
	if g.Image[1].Bounds() != image.Rect(5, 10, 9, 14) {
		t.Errorf("changed frame bounds = %v, want (5,10)-(9,14)", g.Image[1].Bounds())
	}
	if g.Image[2].Bounds().Dx() != 1 || g.Image[2].Bounds().Dy() != 1 {
		t.Errorf("identical frame bounds = %v, want 1x1", g.Image[2].Bounds())
	}
	if g.LoopCount != 2 {
		t.Errorf("LoopCount = %d, want 2", g.LoopCount)
	}
}

func TestAssembleGIF_Errors(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	if err := imageio.SavePNG(a, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	if err := imageio.SavePNG(b, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.gif")

	if _, err := AssembleGIF(nil, out, 10, 0); status.CodeOf(err) != status.CodeInvalidInput {
		t.Errorf("no frames: %v", err)
	}
	if _, err := AssembleGIF([]string{a}, out, 0, 0); status.CodeOf(err) != status.CodeInvalidInput {
		t.Errorf("zero fps: %v", err)
	}
	if _, err := AssembleGIF([]string{a, b}, out, 10, 0); status.CodeOf(err) != status.CodeValidationFailed {
		t.Errorf("mixed sizes: %v", err)
	}
}

func TestDelayCentiseconds(t *testing.T) {
	tests := map[float64]int{10: 10, 24: 4, 30: 3, 1: 100, 4: 25, 500: 1}
	for fps, want := range tests {
		if got := DelayCentiseconds(fps); got != want {
			t.Errorf("DelayCentiseconds(%v) = %d, want %d", fps, got, want)
		}
	}
}

func TestGIFInfoPrint(t *testing.T) {
	var buf bytes.Buffer
	GIFInfo{Path: "a.gif", Frames: 3, SizeBytes: 2048, Delay: 10}.Print(&buf)
	out := buf.String()
	for _, want := range []string{"a.gif", "2.0 KB", "Frames: 3", "100ms", "infinite"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
