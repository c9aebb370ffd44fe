package ml

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/amaanshakeel0998/capsule-medication-tracker/config"
	"github.com/amaanshakeel0998/capsule-medication-tracker/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// Risk levels derived from the miss-probability estimate.
const (
	RiskUnknown = "unknown"
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
)

const (
	// minPredictionHistory is the number of medication-specific events a
	// prediction needs; below it the result is unknown without training.
	minPredictionHistory = 5

	mediumRiskThreshold = 0.3
)

var (
	predictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capsule_predictions_total",
		Help: "Total number of dose risk predictions requested.",
	})
	predictionsUnknown = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capsule_predictions_unknown_total",
		Help: "Total number of predictions that returned unknown risk.",
	})
	modelLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capsule_model_loaded",
		Help: "Whether a trained model is currently loaded (0 or 1).",
	})
)

// HistoryProvider is the read contract the prediction pipeline needs from
// storage.
type HistoryProvider interface {
	GetDoseHistory(days int) ([]models.DoseRecord, error)
	GetTodaysSchedule() ([]models.ScheduledDose, error)
}

// RiskAssessment is the structured, never-failing prediction result.
type RiskAssessment struct {
	Probability float64 `json:"probability"`
	RiskLevel   string  `json:"risk_level"`
	Message     string  `json:"message"`
}

// SchedulePrediction pairs one of today's schedule entries with its risk.
type SchedulePrediction struct {
	MedicationName string         `json:"medication_name"`
	ScheduledTime  string         `json:"scheduled_time"`
	Prediction     RiskAssessment `json:"prediction"`
}

// Predictor owns the trained-model slot. Load, inline training and the
// on-disk artifact replacement all happen under one mutex, so concurrent
// requests observing an empty slot train at most once.
type Predictor struct {
	store   HistoryProvider
	trainer *Trainer
	cfg     config.MLConfig

	mu    sync.Mutex
	model *TrainedModel
}

// NewPredictor loads a persisted artifact if one exists. A missing or
// corrupt artifact leaves the predictor unloaded; it never fails startup.
func NewPredictor(store HistoryProvider, cfg config.MLConfig) *Predictor {
	p := &Predictor{
		store:   store,
		trainer: NewTrainer(cfg),
		cfg:     cfg,
	}

	model, err := LoadModel(cfg.ModelPath)
	switch {
	case err == nil:
		p.model = model
		modelLoaded.Set(1)
		logrus.WithField("path", cfg.ModelPath).Info("trained model loaded")
	case errors.Is(err, os.ErrNotExist):
		modelLoaded.Set(0)
	default:
		modelLoaded.Set(0)
		logrus.WithError(err).Warn("stored model unusable, starting unloaded")
	}
	return p
}

// TrainNow retrains from the full training window and replaces the loaded
// model and the persisted artifact.
func (p *Predictor) TrainNow() error {
	history, err := p.store.GetDoseHistory(p.cfg.TrainingWindowDays)
	if err != nil {
		return fmt.Errorf("training history: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trainLocked(history)
}

// trainLocked requires p.mu to be held.
func (p *Predictor) trainLocked(history []models.DoseRecord) error {
	model, err := p.trainer.Train(history)
	if err != nil {
		return err
	}
	p.model = model
	modelLoaded.Set(1)
	return nil
}

// Predict estimates the probability that the dose scheduled at
// scheduledTime for the given medication will be missed. Failures are never
// surfaced as errors, only as an unknown-risk assessment.
func (p *Predictor) Predict(medicationID uint, scheduledTime string) RiskAssessment {
	predictionsTotal.Inc()

	all, err := p.store.GetDoseHistory(p.cfg.PredictionWindowDays)
	if err != nil {
		logrus.WithError(err).Error("prediction history query failed")
		return p.unknown("History unavailable")
	}
	history := filterByMedication(all, medicationID)
	if len(history) < minPredictionHistory {
		return p.unknown("Not enough data to predict")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		trainHistory, err := p.store.GetDoseHistory(p.cfg.TrainingWindowDays)
		if err == nil {
			err = p.trainLocked(trainHistory)
		}
		if err != nil {
			if !errors.Is(err, ErrInsufficientData) {
				logrus.WithError(err).Error("inline training failed")
			}
			return p.unknown("Insufficient data to train model")
		}
	}

	features, err := ExtractFeatures(history, scheduledTime)
	if err != nil {
		logrus.WithError(err).Warn("feature extraction failed")
		return p.unknown("Invalid dose time")
	}

	probability := p.model.Classifier.PredictProba(p.model.Scaler.TransformVector(features))
	return p.classify(probability)
}

// PredictForSchedule predicts every entry in today's schedule. An inline
// training triggered by one entry is visible to the entries after it.
func (p *Predictor) PredictForSchedule() ([]SchedulePrediction, error) {
	schedule, err := p.store.GetTodaysSchedule()
	if err != nil {
		return nil, fmt.Errorf("todays schedule: %w", err)
	}

	predictions := make([]SchedulePrediction, 0, len(schedule))
	for _, dose := range schedule {
		predictions = append(predictions, SchedulePrediction{
			MedicationName: dose.Name,
			ScheduledTime:  dose.ScheduledTime,
			Prediction:     p.Predict(dose.MedicationID, dose.ScheduledTime),
		})
	}
	return predictions, nil
}

func (p *Predictor) unknown(message string) RiskAssessment {
	predictionsUnknown.Inc()
	return RiskAssessment{Probability: 0.0, RiskLevel: RiskUnknown, Message: message}
}

func (p *Predictor) classify(probability float64) RiskAssessment {
	pct := int(probability * 100)

	var level, message string
	switch {
	case probability > p.cfg.HighRiskThreshold:
		level = RiskHigh
		message = fmt.Sprintf("High risk of missing dose (%d%% probability)", pct)
	case probability > mediumRiskThreshold:
		level = RiskMedium
		message = fmt.Sprintf("Medium risk (%d%% probability)", pct)
	default:
		level = RiskLow
		message = fmt.Sprintf("Low risk (%d%% probability)", pct)
	}

	return RiskAssessment{
		Probability: math.Round(probability*1000) / 1000,
		RiskLevel:   level,
		Message:     message,
	}
}
