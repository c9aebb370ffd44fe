package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
	"github.com/amaanshakeel0998/capsule-medication-tracker/services"

	"github.com/gin-gonic/gin"
)

const (
	cacheKeySchedule   = "capsule:todays-schedule"
	cacheKeyStatistics = "capsule:statistics"
)

type DosesHandler struct {
	store *services.HistoryStore
	cache *services.CacheService
}

func NewDosesHandler(store *services.HistoryStore, cache *services.CacheService) *DosesHandler {
	return &DosesHandler{store: store, cache: cache}
}

type RecordDoseRequest struct {
	MedicationID  uint   `json:"medication_id" binding:"required"`
	ScheduledTime string `json:"scheduled_time" binding:"required"`
	ActualTime    string `json:"actual_time"`
	Status        string `json:"status" binding:"required,oneof=taken missed delayed"`
}

func (h *DosesHandler) RecordDose(c *gin.Context) {
	var req RecordDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	err := h.store.RecordDose(req.MedicationID, req.ScheduledTime, req.ActualTime,
		models.DoseStatus(req.Status))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to record dose"})
		return
	}
	go h.cache.Delete(context.Background(), cacheKeyStatistics)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Dose recorded successfully"})
}

func (h *DosesHandler) GetDoseHistory(c *gin.Context) {
	history, err := h.store.GetDoseHistory(parseDays(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

func (h *DosesHandler) GetTodaysSchedule(c *gin.Context) {
	var cached struct {
		Data []models.ScheduledDose `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), cacheKeySchedule, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": cached.Data})
		return
	}

	schedule, err := h.store.GetTodaysSchedule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	go h.cache.Set(context.Background(), cacheKeySchedule,
		gin.H{"data": schedule}, 30*time.Second)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": schedule})
}

func (h *DosesHandler) GetStatistics(c *gin.Context) {
	var cached models.Statistics
	if err := h.cache.Get(c.Request.Context(), cacheKeyStatistics, &cached); err == nil && cached.TotalDosesThisWeek > 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": cached})
		return
	}

	stats, err := h.store.GetStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	go h.cache.Set(context.Background(), cacheKeyStatistics, stats, 30*time.Second)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}
