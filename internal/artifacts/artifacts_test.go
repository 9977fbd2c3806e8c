package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/anomaly-classifier/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad_Missing(t *testing.T) {
	observed, logs := observer.New(zapcore.WarnLevel)
	dir := t.TempDir()

	set := Load(config.ModelConfig{
		Path:       filepath.Join(dir, "model.pkl"),
		ScalerPath: filepath.Join(dir, "scaler.pkl"),
	}, zap.New(observed))

	if set.Model.Loaded || set.Scaler.Loaded {
		t.Errorf("nothing should be loaded: %+v", set)
	}
	if n := logs.FilterMessage("Model files not found, proceeding with rule-based classification only").Len(); n != 1 {
		t.Errorf("fallback warning: got %d, want 1", n)
	}
}

func TestLoad_Present(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.pkl")
	scaler := filepath.Join(dir, "scaler.pkl")
	if err := os.WriteFile(model, []byte("model-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(scaler, []byte("sc"), 0o644); err != nil {
		t.Fatal(err)
	}

	set := Load(config.ModelConfig{Path: model, ScalerPath: scaler}, zaptest.NewLogger(t))

	if !set.Model.Loaded || set.Model.Size != len("model-bytes") {
		t.Errorf("model: got %+v", set.Model)
	}
	if !set.Scaler.Loaded || set.Scaler.Size != 2 {
		t.Errorf("scaler: got %+v", set.Scaler)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	set := Load(config.ModelConfig{}, zaptest.NewLogger(t))
	if set.Model.Loaded || set.Scaler.Loaded {
		t.Errorf("empty paths should load nothing: %+v", set)
	}
}
