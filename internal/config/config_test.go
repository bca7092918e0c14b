package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"STORYBOARD_INFERENCE_PROVIDER", "STORYBOARD_INFERENCE_URL", "STORYBOARD_INFERENCE_TIMEOUT",
		"STORYBOARD_EDITOR_TIMEOUT", "STORYBOARD_METRICS", "STORYBOARD_S3_PREFIX", "STORYBOARD_INFERENCE_MODEL",
	} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	if cfg.Provider != ProviderPollinations {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderPollinations)
	}
	if cfg.InferenceTimeout != DefaultInferenceTimeout {
		t.Errorf("InferenceTimeout = %v", cfg.InferenceTimeout)
	}
	if cfg.EditorTimeout != DefaultEditorTimeout {
		t.Errorf("EditorTimeout = %v", cfg.EditorTimeout)
	}
	if cfg.Metrics {
		t.Error("Metrics should default to false")
	}
	if cfg.S3Prefix != "storyboards" {
		t.Errorf("S3Prefix = %q", cfg.S3Prefix)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORYBOARD_INFERENCE_PROVIDER", "HuggingFace")
	t.Setenv("STORYBOARD_INFERENCE_TIMEOUT", "15s")
	t.Setenv("STORYBOARD_EDITOR_TIMEOUT", "2m")
	t.Setenv("STORYBOARD_METRICS", "true")
	t.Setenv("STORYBOARD_FONT_PATH", "/fonts/Inter.ttf")

	cfg := FromEnv()
	if cfg.Provider != ProviderHuggingFace {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.InferenceTimeout != 15*time.Second {
		t.Errorf("InferenceTimeout = %v", cfg.InferenceTimeout)
	}
	if cfg.EditorTimeout != 2*time.Minute {
		t.Errorf("EditorTimeout = %v", cfg.EditorTimeout)
	}
	if !cfg.Metrics {
		t.Error("Metrics should be enabled")
	}
	if cfg.FontPath != "/fonts/Inter.ttf" {
		t.Errorf("FontPath = %q", cfg.FontPath)
	}
}

func TestFromEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORYBOARD_INFERENCE_PROVIDER", "dall-e")
	t.Setenv("STORYBOARD_INFERENCE_TIMEOUT", "soon")
	t.Setenv("STORYBOARD_EDITOR_TIMEOUT", "-5s")
	t.Setenv("STORYBOARD_METRICS", "maybe")

	cfg := FromEnv()
	if cfg.Provider != DefaultProvider {
		t.Errorf("Provider = %q, want default", cfg.Provider)
	}
	if cfg.InferenceTimeout != DefaultInferenceTimeout {
		t.Errorf("InferenceTimeout = %v, want default", cfg.InferenceTimeout)
	}
	if cfg.EditorTimeout != DefaultEditorTimeout {
		t.Errorf("EditorTimeout = %v, want default", cfg.EditorTimeout)
	}
	if cfg.Metrics {
		t.Error("Metrics should fall back to false")
	}
}

func TestImagenDefaultModel(t *testing.T) {
	t.Setenv("STORYBOARD_INFERENCE_PROVIDER", "imagen")
	t.Setenv("STORYBOARD_INFERENCE_MODEL", "")

	cfg := FromEnv()
	if cfg.InferenceModel != DefaultImagenModel {
		t.Errorf("InferenceModel = %q, want %q", cfg.InferenceModel, DefaultImagenModel)
	}
}
