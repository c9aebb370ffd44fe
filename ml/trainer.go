package ml

import (
	"fmt"

	"github.com/amaanshakeel0998/capsule-medication-tracker/config"
	"github.com/amaanshakeel0998/capsule-medication-tracker/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// minPastContext is the number of strictly-older events an event needs
// before it yields a training example.
const minPastContext = 3

var (
	trainingRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capsule_training_runs_total",
		Help: "Total number of model training attempts.",
	})
	trainingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capsule_training_failures_total",
		Help: "Total number of failed model training attempts.",
	})
)

// Trainer assembles a labeled training set from dose history and fits a
// scaler plus logistic classifier. Every run is a full retrain.
type Trainer struct {
	minRecords int
	modelPath  string
}

func NewTrainer(cfg config.MLConfig) *Trainer {
	return &Trainer{
		minRecords: cfg.TrainingMinRecords,
		modelPath:  cfg.ModelPath,
	}
}

// Train fits a fresh model on the supplied history (most recent first,
// matching storage order) and atomically replaces the persisted artifact.
// It returns ErrInsufficientData when the history or the generated example
// set is below the configured minimum; a previously persisted artifact is
// left untouched in that case.
func (t *Trainer) Train(history []models.DoseRecord) (*TrainedModel, error) {
	trainingRuns.Inc()

	if len(history) < t.minRecords {
		trainingFailures.Inc()
		return nil, fmt.Errorf("%w: %d history records, need %d",
			ErrInsufficientData, len(history), t.minRecords)
	}

	var features [][]float64
	var labels []float64
	for i, rec := range history {
		// Everything after position i is strictly older than the event.
		past := history[i+1:]
		if len(past) < minPastContext {
			continue
		}
		vec, err := ExtractFeatures(past, rec.ScheduledTime)
		if err != nil {
			trainingFailures.Inc()
			return nil, err
		}
		features = append(features, vec)
		label := 0.0
		if rec.Status == models.DoseMissed {
			label = 1.0
		}
		labels = append(labels, label)
	}

	if len(features) < t.minRecords {
		trainingFailures.Inc()
		return nil, fmt.Errorf("%w: %d training examples, need %d",
			ErrInsufficientData, len(features), t.minRecords)
	}

	x := mat.NewDense(len(features), FeatureCount, nil)
	for i, vec := range features {
		x.SetRow(i, vec)
	}

	scaler := &StandardScaler{}
	scaler.Fit(x)

	classifier := &LogisticRegression{}
	classifier.Fit(scaler.Transform(x), labels)

	model := &TrainedModel{Classifier: classifier, Scaler: scaler}
	if err := SaveModel(t.modelPath, model); err != nil {
		trainingFailures.Inc()
		return nil, fmt.Errorf("persist model: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"examples": len(features),
		"path":     t.modelPath,
	}).Info("model trained")
	return model, nil
}
