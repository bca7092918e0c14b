// Package config resolves runtime configuration from an optional .env file
// and environment variables. CLI flags override the values returned here.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Inference provider names.
const (
	ProviderPollinations = "pollinations"
	ProviderHuggingFace  = "huggingface"
	ProviderImagen       = "imagen"
)

// Defaults applied when the environment leaves a value unset.
const (
	DefaultProvider         = ProviderPollinations
	DefaultInferenceTimeout = 60 * time.Second
	DefaultEditorTimeout    = 60 * time.Second
	DefaultImagenModel      = "imagen-4.0-generate-001"
)

// Config holds every setting the storyboard tools read from the environment.
type Config struct {
	// Inference
	Provider         string
	InferenceURL     string
	InferenceToken   string // optional bearer token, never logged
	InferenceModel   string
	InferenceTimeout time.Duration
	GeminiAPIKey     string // imagen provider only, never logged

	// External editor
	EditorPath    string
	EditorTimeout time.Duration

	// Sketch rendering
	FontPath string

	// Observability
	Metrics bool

	// Optional artifact upload
	S3Bucket string
	S3Prefix string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() Config {
	cfg := Config{
		Provider:         strings.ToLower(getEnv("STORYBOARD_INFERENCE_PROVIDER", DefaultProvider)),
		InferenceURL:     getEnv("STORYBOARD_INFERENCE_URL", ""),
		InferenceToken:   getEnv("STORYBOARD_INFERENCE_TOKEN", ""),
		InferenceModel:   getEnv("STORYBOARD_INFERENCE_MODEL", ""),
		InferenceTimeout: getDuration("STORYBOARD_INFERENCE_TIMEOUT", DefaultInferenceTimeout),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EditorPath:       getEnv("STORYBOARD_EDITOR_PATH", ""),
		EditorTimeout:    getDuration("STORYBOARD_EDITOR_TIMEOUT", DefaultEditorTimeout),
		FontPath:         getEnv("STORYBOARD_FONT_PATH", ""),
		Metrics:          getBool("STORYBOARD_METRICS", false),
		S3Bucket:         getEnv("STORYBOARD_S3_BUCKET", ""),
		S3Prefix:         getEnv("STORYBOARD_S3_PREFIX", "storyboards"),
	}

	switch cfg.Provider {
	case ProviderPollinations, ProviderHuggingFace, ProviderImagen:
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("Unknown inference provider, using default")
		cfg.Provider = DefaultProvider
	}

	if cfg.Provider == ProviderImagen && cfg.InferenceModel == "" {
		cfg.InferenceModel = DefaultImagenModel
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid duration, using default")
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid boolean, using default")
		return def
	}
	return b
}
