// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// ModelDir is the directory holding persisted model artifacts when the
	// file-backed store is used.
	ModelDir string

	// ModelBucket, when set, switches artifact persistence to GCS under this
	// bucket. ModelDir then only matters as the object prefix.
	ModelBucket string

	// UploadDir is where OCR uploads are persisted before being sent to the
	// vision model.
	UploadDir string

	// GeminiAPIKey authenticates the generative model backend. When empty the
	// OCR and advice endpoints report the model as unavailable.
	GeminiAPIKey string

	// TextModels and VisionModels are ranked candidate model names; the first
	// one returning non-empty text wins.
	TextModels   []string
	VisionModels []string

	// SequenceLength is the number of monthly rows the sequence predictor
	// needs as input.
	SequenceLength int
}

// Defaults used when the corresponding environment variable is unset.
var (
	defaultTextModels   = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}
	defaultVisionModels = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}
)

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	// godotenv does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("ML_SERVICE_PORT", "8000"),
		ModelDir:       getEnv("MODEL_PATH", "models"),
		ModelBucket:    os.Getenv("MODEL_BUCKET"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		TextModels:     getEnvList("GEMINI_TEXT_MODELS", defaultTextModels),
		VisionModels:   getEnvList("GEMINI_VISION_MODELS", defaultVisionModels),
		SequenceLength: 12,
	}

	if v := os.Getenv("SEQUENCE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: invalid SEQUENCE_LENGTH %q", v)
		}
		cfg.SequenceLength = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
