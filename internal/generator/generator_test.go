package generator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/inference"
	"github.com/fpang/storyboard-gen/internal/metrics"
	"github.com/fpang/storyboard-gen/internal/sketch"
	"github.com/fpang/storyboard-gen/internal/status"
)

// fakeClient returns canned bytes or an error and counts calls.
type fakeClient struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeClient) Generate(ctx context.Context, req inference.Request) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func (f *fakeClient) Name() string { return "fake" }

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func assertImage(t *testing.T, path string, w, h int) {
	t.Helper()
	gotW, gotH, err := imageio.Dimensions(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if gotW != w || gotH != h {
		t.Errorf("%s is %dx%d, want %dx%d", filepath.Base(path), gotW, gotH, w, h)
	}
}

var renderer = sketch.NewRenderer("")

func TestChooseMode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	tests := []struct {
		name    string
		useAI   bool
		outcome RemoteOutcome
		want    Mode
	}{
		{"ai disabled", false, RemoteOutcome{Attempted: true, Image: img}, Local},
		{"not attempted", true, RemoteOutcome{}, Local},
		{"remote error", true, RemoteOutcome{Attempted: true, Err: errors.New("503")}, Local},
		{"no image", true, RemoteOutcome{Attempted: true}, Local},
		{"remote success", true, RemoteOutcome{Attempted: true, Image: img}, Remote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseMode(tt.useAI, tt.outcome); got != tt.want {
				t.Errorf("ChooseMode = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGenerate_Sketch(t *testing.T) {
	client := &fakeClient{}
	g := New(client, renderer)

	sizes := []struct{ w, h int }{{1920, 1080}, {512, 512}, {320, 200}}
	for _, s := range sizes {
		path := filepath.Join(t.TempDir(), "out.png")
		res := g.Generate(context.Background(), Request{Prompt: "A red cube", OutputPath: path, Width: s.w, Height: s.h})
		if !res.OK() || res.ModeUsed != Local || res.Code != status.CodeSuccess {
			t.Fatalf("unexpected result: %+v", res)
		}
		assertImage(t, path, s.w, s.h)
	}
	if client.calls != 0 {
		t.Errorf("inference called %d times with AI disabled", client.calls)
	}
}

func TestGenerate_DefaultSize(t *testing.T) {
	g := New(nil, renderer)
	path := filepath.Join(t.TempDir(), "default.png")

	res := g.Generate(context.Background(), Request{Prompt: "defaults", OutputPath: path})
	if !res.OK() {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertImage(t, path, DefaultWidth, DefaultHeight)
}

func TestGenerate_RemoteLetterboxed(t *testing.T) {
	client := &fakeClient{data: pngBytes(t, 64, 32, color.RGBA{R: 200, A: 255})}
	g := New(client, renderer)
	path := filepath.Join(t.TempDir(), "sub", "ai.png")

	res := g.Generate(context.Background(), Request{Prompt: "A blue sphere", OutputPath: path, Width: 100, Height: 100, UseAI: true})
	if !res.OK() || res.ModeUsed != Remote {
		t.Fatalf("unexpected result: %+v", res)
	}
	if client.calls != 1 {
		t.Errorf("expected exactly one inference call, got %d", client.calls)
	}
	assertImage(t, path, 100, 100)
}

func TestGenerate_FallbackToSketch(t *testing.T) {
	tests := []struct {
		name   string
		client inference.Client
	}{
		{"upstream error", &fakeClient{err: &inference.APIError{Provider: "fake", StatusCode: 503}}},
		{"undecodable bytes", &fakeClient{data: []byte("<html>rate limited</html>")}},
		{"no client", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.client, renderer)
			path := filepath.Join(t.TempDir(), "fallback.png")

			res := g.Generate(context.Background(), Request{Prompt: "A forest", OutputPath: path, Width: 256, Height: 144, UseAI: true})
			if res.Status != StatusOK {
				t.Fatalf("fallback must not surface an error: %+v", res)
			}
			if res.ModeUsed != Local {
				t.Errorf("mode = %s, want sketch", res.ModeUsed)
			}
			if res.FallbackReason == "" {
				t.Error("expected a fallback reason")
			}
			assertImage(t, path, 256, 144)
		})
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	g := New(nil, renderer)
	dir := t.TempDir()

	tests := []struct {
		name string
		req  Request
	}{
		{"empty prompt", Request{Prompt: "  ", OutputPath: filepath.Join(dir, "a.png")}},
		{"empty output", Request{Prompt: "x"}},
		{"negative size", Request{Prompt: "x", OutputPath: filepath.Join(dir, "b.png"), Width: -1, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Generate(context.Background(), tt.req)
			if res.Status != StatusError || res.Code != status.CodeInvalidInput {
				t.Errorf("unexpected result: %+v", res)
			}
			if res.OutputPath != "" {
				t.Errorf("error result should carry no output path, got %s", res.OutputPath)
			}
		})
	}
}

func TestGenerate_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(nil, renderer)
	res := g.Generate(context.Background(), Request{Prompt: "x", OutputPath: filepath.Join(blocker, "out.png"), Width: 32, Height: 32})
	if res.Status != StatusError || res.Code != status.CodeWriteFailed {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunBatch_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	reqs := []Request{
		{Prompt: "first", OutputPath: filepath.Join(dir, "1.png"), Width: 64, Height: 64},
		{Prompt: "second", OutputPath: filepath.Join(blocker, "2.png"), Width: 64, Height: 64},
		{Prompt: "", OutputPath: filepath.Join(dir, "3.png"), Width: 64, Height: 64},
		{Prompt: "fourth", OutputPath: filepath.Join(dir, "4.png"), Width: 64, Height: 64},
	}

	rep := New(nil, renderer).RunBatch(context.Background(), reqs)
	if rep.SuccessCount != 2 || rep.FailureCount != 2 {
		t.Fatalf("counts = %d/%d, want 2/2", rep.SuccessCount, rep.FailureCount)
	}
	if rep.Succeeded[0] != reqs[0].OutputPath || rep.Succeeded[1] != reqs[3].OutputPath {
		t.Errorf("succeeded = %v", rep.Succeeded)
	}
	if rep.Failed[0].Path != reqs[1].OutputPath || rep.Failed[1].Path != reqs[2].OutputPath {
		t.Errorf("failed = %+v", rep.Failed)
	}
	if rep.ExitCode() != 1 {
		t.Errorf("ExitCode = %d, want 1", rep.ExitCode())
	}
}

func TestPanelRequests(t *testing.T) {
	reqs := PanelRequests([]string{"a", "b", "c"}, "out", 640, 360, true)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	want := []string{"panel_001.png", "panel_002.png", "panel_003.png"}
	for i, r := range reqs {
		if r.OutputPath != filepath.Join("out", want[i]) {
			t.Errorf("reqs[%d].OutputPath = %s", i, r.OutputPath)
		}
		if r.Width != 640 || r.Height != 360 || !r.UseAI {
			t.Errorf("reqs[%d] = %+v", i, r)
		}
	}
}

func TestGenerate_RecordsFallbackMetrics(t *testing.T) {
	var buf bytes.Buffer
	metrics.Configure(true, "gen-image", &buf)
	defer metrics.Configure(false, "", os.Stderr)

	out := filepath.Join(t.TempDir(), "m.png")
	g := New(&fakeClient{err: errors.New("service down")}, renderer)
	if res := g.Generate(context.Background(), Request{Prompt: "p", OutputPath: out, Width: 16, Height: 16, UseAI: true}); !res.OK() {
		t.Fatalf("Generate: %+v", res)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &doc); err != nil {
		t.Fatalf("metric line is not JSON: %v (%q)", err, buf.String())
	}
	if doc["outputPath"] != out || doc["fallbackReason"] == nil {
		t.Errorf("properties missing: %v", doc)
	}
	if doc[metrics.SketchFallbacks] != float64(1) || doc["Tool"] != "gen-image" {
		t.Errorf("metrics = %v", doc)
	}
}
