package config

import (
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ML_SERVICE_PORT", "MODEL_PATH", "MODEL_BUCKET", "UPLOAD_DIR",
		"GEMINI_API_KEY", "GEMINI_TEXT_MODELS", "GEMINI_VISION_MODELS", "SEQUENCE_LENGTH",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.ModelDir != "models" {
		t.Errorf("ModelDir = %q, want models", cfg.ModelDir)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("UploadDir = %q, want uploads", cfg.UploadDir)
	}
	if cfg.SequenceLength != 12 {
		t.Errorf("SequenceLength = %d, want 12", cfg.SequenceLength)
	}
	if len(cfg.TextModels) == 0 || len(cfg.VisionModels) == 0 {
		t.Error("expected default model candidate lists to be non-empty")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ML_SERVICE_PORT", "9090")
	t.Setenv("MODEL_PATH", "/var/lib/finsight")
	t.Setenv("GEMINI_TEXT_MODELS", "gemini-2.5-pro, gemini-2.5-flash")
	t.Setenv("SEQUENCE_LENGTH", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.ModelDir != "/var/lib/finsight" {
		t.Errorf("ModelDir = %q, want /var/lib/finsight", cfg.ModelDir)
	}
	want := []string{"gemini-2.5-pro", "gemini-2.5-flash"}
	if !reflect.DeepEqual(cfg.TextModels, want) {
		t.Errorf("TextModels = %v, want %v", cfg.TextModels, want)
	}
	if cfg.SequenceLength != 6 {
		t.Errorf("SequenceLength = %d, want 6", cfg.SequenceLength)
	}
}

func TestLoad_InvalidSequenceLength(t *testing.T) {
	t.Setenv("SEQUENCE_LENGTH", "zero")

	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric SEQUENCE_LENGTH")
	}
}
