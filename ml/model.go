package ml

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// TrainedModel couples the classifier with the scaler it was fit alongside.
// The pair is persisted and replaced as one artifact.
type TrainedModel struct {
	Classifier *LogisticRegression
	Scaler     *StandardScaler
}

// SaveModel writes the artifact atomically: encode to a temp file in the
// target directory, then rename over any previous artifact.
func SaveModel(path string, model *TrainedModel) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(model); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace model artifact: %w", err)
	}
	return nil
}

// LoadModel reads a persisted artifact. A missing, corrupt or structurally
// wrong artifact is an error the caller treats as "no model loaded".
func LoadModel(path string) (*TrainedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var model TrainedModel
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if model.Classifier == nil || model.Scaler == nil ||
		len(model.Classifier.Weights) != FeatureCount ||
		len(model.Scaler.Mean) != FeatureCount {
		return nil, fmt.Errorf("model artifact %s has unexpected shape", path)
	}
	return &model, nil
}
