// Package artifacts loads the optional model and scaler files at startup.
// They are kept for reporting only and never take part in classification.
package artifacts

import (
	"errors"
	"io/fs"
	"os"

	"github.com/mikey/anomaly-classifier/internal/config"
	"go.uber.org/zap"
)

// Artifact is one file read at startup
type Artifact struct {
	Path   string
	Size   int
	Loaded bool
}

// Set holds the model and scaler artifacts
type Set struct {
	Model  Artifact
	Scaler Artifact
}

// Load reads both artifacts once. Missing or unreadable files are logged and
// leave the corresponding artifact unloaded; Load never fails.
func Load(cfg config.ModelConfig, logger *zap.Logger) *Set {
	set := &Set{
		Model:  load(cfg.Path, "model", logger),
		Scaler: load(cfg.ScalerPath, "scaler", logger),
	}

	if !set.Model.Loaded || !set.Scaler.Loaded {
		logger.Warn("Model files not found, proceeding with rule-based classification only",
			zap.Bool("model_loaded", set.Model.Loaded),
			zap.Bool("scaler_loaded", set.Scaler.Loaded))
	}

	return set
}

func load(path, kind string, logger *zap.Logger) Artifact {
	a := Artifact{Path: path}
	if path == "" {
		return a
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Artifact file not found", zap.String("kind", kind), zap.String("path", path))
		} else {
			logger.Error("Failed to read artifact file", zap.String("kind", kind), zap.String("path", path), zap.Error(err))
		}
		return a
	}

	a.Size = len(data)
	a.Loaded = true
	logger.Info("Loaded artifact", zap.String("kind", kind), zap.String("path", path), zap.Int("bytes", a.Size))
	return a
}
