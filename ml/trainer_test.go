package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/amaanshakeel0998/capsule-medication-tracker/config"
	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
)

func testMLConfig(t *testing.T) config.MLConfig {
	t.Helper()
	return config.MLConfig{
		ModelPath:            filepath.Join(t.TempDir(), "model.gob"),
		TrainingMinRecords:   10,
		HighRiskThreshold:    0.6,
		DelayToleranceMin:    60,
		TrainingWindowDays:   60,
		PredictionWindowDays: 30,
	}
}

// trainingHistory builds n daily records, most recent first, missing every
// fourth dose.
func trainingHistory(n int) []models.DoseRecord {
	history := make([]models.DoseRecord, 0, n)
	for i := 0; i < n; i++ {
		status := models.DoseTaken
		if i%4 == 3 {
			status = models.DoseMissed
		}
		day := fmt.Sprintf("2024-02-%02d 08:00", n-i)
		history = append(history, rec(day, status, 0))
	}
	return history
}

func TestTrainInsufficientHistory(t *testing.T) {
	cfg := testMLConfig(t)
	trainer := NewTrainer(cfg)

	_, err := trainer.Train(trainingHistory(5))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
	if _, statErr := os.Stat(cfg.ModelPath); !os.IsNotExist(statErr) {
		t.Error("no artifact should be written on failed training")
	}
}

func TestTrainInsufficientExamples(t *testing.T) {
	// 12 records pass the history minimum but only 12-3=9 examples survive
	// the past-context requirement.
	trainer := NewTrainer(testMLConfig(t))

	_, err := trainer.Train(trainingHistory(12))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData for too few examples", err)
	}
}

func TestTrainFailureLeavesArtifactUntouched(t *testing.T) {
	cfg := testMLConfig(t)
	previous := []byte("previous artifact")
	if err := os.WriteFile(cfg.ModelPath, previous, 0o644); err != nil {
		t.Fatal(err)
	}

	trainer := NewTrainer(cfg)
	if _, err := trainer.Train(trainingHistory(5)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}

	got, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(previous) {
		t.Error("failed training must not touch the persisted artifact")
	}
}

func TestTrainPersistsAndRoundTrips(t *testing.T) {
	cfg := testMLConfig(t)
	trainer := NewTrainer(cfg)

	model, err := trainer.Train(trainingHistory(20))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if len(model.Classifier.Weights) != FeatureCount {
		t.Fatalf("weights length = %d, want %d", len(model.Classifier.Weights), FeatureCount)
	}

	loaded, err := LoadModel(cfg.ModelPath)
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}

	features := []float64{8, 2, 0.25, 15, 4}
	want := model.Classifier.PredictProba(model.Scaler.TransformVector(features))
	got := loaded.Classifier.PredictProba(loaded.Scaler.TransformVector(features))
	if got != want {
		t.Errorf("round-trip probability = %v, want %v", got, want)
	}
}

func TestLoadModelRejectsCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadModel(path); err == nil {
		t.Fatal("corrupt artifact should not load")
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.gob")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing artifact err = %v, want fs not-exist", err)
	}
}
