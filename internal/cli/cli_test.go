package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/fpang/storyboard-gen/internal/generator"
	"github.com/fpang/storyboard-gen/internal/status"
)

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveDirectory(dir)
	if err != nil {
		t.Fatalf("ResolveDirectory: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("got %q, want absolute path", got)
	}

	file := filepath.Join(dir, "f.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{file, filepath.Join(dir, "missing")} {
		if _, err := ResolveDirectory(p); status.CodeOf(err) != status.CodeInvalidInput {
			t.Errorf("ResolveDirectory(%q) err = %v, want invalid_input", p, err)
		}
	}
}

func TestPromptForDirectory(t *testing.T) {
	cwd, _ := os.Getwd()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"typed path", "/tmp/frames\n", "/tmp/frames"},
		{"no newline", "frames", "frames"},
		{"empty line", "\n", cwd},
		{"eof", "", cwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			got := PromptForDirectory(strings.NewReader(tt.input), &out)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !strings.Contains(out.String(), "Frame directory") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestReadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.txt")
	content := "# opening\nA forest at dawn\n\n  A river crossing  \n#skip\nA campfire\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPrompts(path)
	if err != nil {
		t.Fatalf("ReadPrompts: %v", err)
	}
	want := []string{"A forest at dawn", "A river crossing", "A campfire"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := ReadPrompts(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{75 * time.Second, "1:15"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.d); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		3 * 1024 * 1024: "3.0 MB",
	}
	for n, want := range tests {
		if got := FormatBytes(n); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestNewGenerator_ImagenWithoutKeyFallsBackToSketch(t *testing.T) {
	cfg := config.Config{Provider: config.ProviderImagen}
	g := NewGenerator(context.Background(), cfg, true)

	out := filepath.Join(t.TempDir(), "a.png")
	res := g.Generate(context.Background(), generator.Request{Prompt: "a", OutputPath: out, Width: 32, Height: 32, UseAI: true})
	if !res.OK() || res.ModeUsed != generator.Local {
		t.Errorf("res = %+v, want sketch fallback", res)
	}
}

func TestNewEnhancer(t *testing.T) {
	ctx := context.Background()
	if e := NewEnhancer(ctx, config.Config{}, "", false); e.HasExternal() {
		t.Error("external backend configured without being requested")
	}
	if e := NewEnhancer(ctx, config.Config{}, filepath.Join(t.TempDir(), "no-editor"), true); e.HasExternal() {
		t.Error("missing editor should leave enhancer in-process only")
	}

	if runtime.GOOS == "windows" {
		t.Skip("fake editor is a shell script")
	}
	editor := filepath.Join(t.TempDir(), "editor")
	if err := os.WriteFile(editor, []byte("#!/bin/sh\necho 'fake 1.0'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if e := NewEnhancer(ctx, config.Config{EditorPath: editor}, "", true); !e.HasExternal() {
		t.Error("configured editor should be used")
	}
}

func TestNewUploader_RequiresBucket(t *testing.T) {
	_, err := NewUploader(context.Background(), config.Config{})
	if status.CodeOf(err) != status.CodeInvalidInput {
		t.Errorf("err = %v, want invalid_input", err)
	}
}
