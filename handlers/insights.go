package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/amaanshakeel0998/capsule-medication-tracker/ml"

	"github.com/gin-gonic/gin"
)

// InsightsHandler exposes the prediction pipeline and the adherence
// analyzer over HTTP.
type InsightsHandler struct {
	predictor *ml.Predictor
	analyzer  *ml.Analyzer
}

func NewInsightsHandler(predictor *ml.Predictor, analyzer *ml.Analyzer) *InsightsHandler {
	return &InsightsHandler{predictor: predictor, analyzer: analyzer}
}

// GetPredictions returns a risk assessment for every dose on today's
// schedule.
func (h *InsightsHandler) GetPredictions(c *gin.Context) {
	predictions, err := h.predictor.PredictForSchedule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": predictions})
}

type PredictDoseRequest struct {
	MedicationID  uint   `json:"medication_id" binding:"required"`
	ScheduledTime string `json:"scheduled_time" binding:"required"`
}

// PredictDose returns the risk assessment for one specific dose.
func (h *InsightsHandler) PredictDose(c *gin.Context) {
	var req PredictDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	assessment := h.predictor.Predict(req.MedicationID, req.ScheduledTime)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": assessment})
}

func (h *InsightsHandler) AnalyzeAdherence(c *gin.Context) {
	summary, err := h.analyzer.AnalyzeAdherenceRate(parseDays(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

func (h *InsightsHandler) DetectPatterns(c *gin.Context) {
	var medicationID uint
	if idStr := c.Query("medication_id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medication_id"})
			return
		}
		medicationID = uint(id)
	}

	patterns, err := h.analyzer.DetectPatterns(medicationID)
	if err != nil {
		if errors.Is(err, ml.ErrInvalidTimestamp) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "message": "history contains an invalid timestamp"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"patterns": patterns}})
}

func (h *InsightsHandler) GetInsights(c *gin.Context) {
	insights, err := h.analyzer.GenerateInsights()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": insights})
}

// TrainModel triggers a full retrain. Insufficient history is reported as a
// non-failure per the pipeline's propagation policy.
func (h *InsightsHandler) TrainModel(c *gin.Context) {
	err := h.predictor.TrainNow()
	if errors.Is(err, ml.ErrInsufficientData) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Not enough data to train model"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "training failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Model trained successfully"})
}

// GetRiskFactors reports heuristic risk signals for one medication.
func (h *InsightsHandler) GetRiskFactors(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medication id"})
		return
	}

	factors, err := h.analyzer.AnalyzeRiskFactors(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": factors})
}
