package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
	"github.com/amaanshakeel0998/capsule-medication-tracker/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MedicationsHandler struct {
	store *services.HistoryStore
	cache *services.CacheService
}

func NewMedicationsHandler(store *services.HistoryStore, cache *services.CacheService) *MedicationsHandler {
	return &MedicationsHandler{store: store, cache: cache}
}

type MedicationRequest struct {
	Name      string   `json:"name" binding:"required"`
	Dosage    string   `json:"dosage" binding:"required"`
	Schedules []string `json:"schedules" binding:"required,min=1,dive,required"`
}

type MedicationResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Schedules []string  `json:"schedules"`
	CreatedAt time.Time `json:"created_at"`
}

func toMedicationResponse(med models.Medication) MedicationResponse {
	times := make([]string, 0, len(med.Schedules))
	for _, s := range med.Schedules {
		times = append(times, s.TimeOfDay)
	}
	return MedicationResponse{
		ID:        med.ID,
		Name:      med.Name,
		Dosage:    med.Dosage,
		Schedules: times,
		CreatedAt: med.CreatedAt,
	}
}

func (h *MedicationsHandler) List(c *gin.Context) {
	meds, err := h.store.ListMedications()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}

	resp := make([]MedicationResponse, 0, len(meds))
	for _, med := range meds {
		resp = append(resp, toMedicationResponse(med))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (h *MedicationsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medication id"})
		return
	}

	med, err := h.store.GetMedication(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Medication not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toMedicationResponse(*med)})
}

func (h *MedicationsHandler) Create(c *gin.Context) {
	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	id, err := h.store.AddMedication(req.Name, req.Dosage, req.Schedules)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to add medication"})
		return
	}
	h.invalidateScheduleCache()

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Medication added successfully",
		"medication_id": id,
	})
}

func (h *MedicationsHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medication id"})
		return
	}

	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	err := h.store.UpdateMedication(id, req.Name, req.Dosage, req.Schedules)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Medication not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to update medication"})
		return
	}
	h.invalidateScheduleCache()

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medication updated successfully"})
}

func (h *MedicationsHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medication id"})
		return
	}

	if _, err := h.store.GetMedication(id); errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Medication not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "database query failed"})
		return
	}

	if err := h.store.DeleteMedication(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to delete medication"})
		return
	}
	h.invalidateScheduleCache()

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medication deleted successfully"})
}

func (h *MedicationsHandler) invalidateScheduleCache() {
	go h.cache.Delete(context.Background(), cacheKeySchedule, cacheKeyStatistics)
}
