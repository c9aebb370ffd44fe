package services

import (
	"fmt"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HistoryStore owns medications, schedules and the dose history. It is the
// only writer of dose_history rows.
type HistoryStore struct {
	db           *gorm.DB
	toleranceMin int
}

func NewHistoryStore(db *gorm.DB, delayToleranceMin int) *HistoryStore {
	return &HistoryStore{db: db, toleranceMin: delayToleranceMin}
}

func (s *HistoryStore) AddMedication(name, dosage string, times []string) (uint, error) {
	med := models.Medication{Name: name, Dosage: dosage}
	for _, t := range times {
		med.Schedules = append(med.Schedules, models.Schedule{TimeOfDay: t})
	}
	if err := s.db.Create(&med).Error; err != nil {
		return 0, fmt.Errorf("create medication: %w", err)
	}
	return med.ID, nil
}

func (s *HistoryStore) GetMedication(id uint) (*models.Medication, error) {
	var med models.Medication
	if err := s.db.Preload("Schedules").First(&med, id).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *HistoryStore) ListMedications() ([]models.Medication, error) {
	var meds []models.Medication
	if err := s.db.Preload("Schedules").Order("id").Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return meds, nil
}

// UpdateMedication replaces the medication's name, dosage and full schedule.
func (s *HistoryStore) UpdateMedication(id uint, name, dosage string, times []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Medication{}).Where("id = ?", id).
			Updates(map[string]interface{}{"name": name, "dosage": dosage})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("medication_id = ?", id).Delete(&models.Schedule{}).Error; err != nil {
			return err
		}
		for _, t := range times {
			if err := tx.Create(&models.Schedule{MedicationID: id, TimeOfDay: t}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMedication removes the medication, its schedule and its dose history.
func (s *HistoryStore) DeleteMedication(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medication_id = ?", id).Delete(&models.Schedule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("medication_id = ?", id).Delete(&models.DoseEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Medication{}, id).Error
	})
}

// RecordDose stores one dose outcome. A dose submitted as taken is
// reclassified as delayed when it was taken more than the configured
// tolerance after its scheduled time.
func (s *HistoryStore) RecordDose(medicationID uint, scheduledTime, actualTime string, status models.DoseStatus) error {
	status, delay := classifyDose(status, scheduledTime, actualTime, s.toleranceMin)

	event := models.DoseEvent{
		MedicationID:  medicationID,
		ScheduledTime: scheduledTime,
		ActualTime:    actualTime,
		Status:        status,
		DelayMinutes:  delay,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return fmt.Errorf("record dose: %w", err)
	}
	return nil
}

// classifyDose computes the delay for a taken dose and reclassifies it as
// delayed when the delay exceeds the tolerance. An unparseable timestamp is
// an explicit fallback: the submitted status is kept and the delay stays 0.
func classifyDose(status models.DoseStatus, scheduledTime, actualTime string, toleranceMin int) (models.DoseStatus, int) {
	if status != models.DoseTaken || actualTime == "" {
		return status, 0
	}

	scheduled, err := time.Parse(models.TimeLayout, scheduledTime)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"scheduled_time": scheduledTime,
		}).Warn("unparseable scheduled time, keeping submitted status")
		return status, 0
	}
	actual, err := time.Parse(models.TimeLayout, actualTime)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"actual_time": actualTime,
		}).Warn("unparseable actual time, keeping submitted status")
		return status, 0
	}

	delay := int(actual.Sub(scheduled).Minutes())
	if delay > toleranceMin {
		return models.DoseDelayed, delay
	}
	return models.DoseTaken, delay
}

// HasDoseEvent reports whether an outcome was already recorded for the
// given medication and schedule slot.
func (s *HistoryStore) HasDoseEvent(medicationID uint, scheduledTime string) (bool, error) {
	var count int64
	err := s.db.Model(&models.DoseEvent{}).
		Where("medication_id = ? AND scheduled_time = ?", medicationID, scheduledTime).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("dose event lookup: %w", err)
	}
	return count > 0, nil
}

// GetDoseHistory returns dose events joined with their medication for the
// last N days, most recent first. The lower bound is date-only, matching the
// stored minute-precision timestamp strings.
func (s *HistoryStore) GetDoseHistory(days int) ([]models.DoseRecord, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	var records []models.DoseRecord
	err := s.db.Table("dose_history dh").
		Select("dh.id, dh.medication_id, dh.scheduled_time, dh.actual_time, dh.status, dh.delay_minutes, m.name, m.dosage").
		Joins("JOIN medications m ON dh.medication_id = m.id").
		Where("dh.scheduled_time >= ?", startDate).
		Order("dh.scheduled_time DESC").
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("dose history query: %w", err)
	}
	return records, nil
}

// GetTodaysSchedule stamps every schedule slot with today's date.
func (s *HistoryStore) GetTodaysSchedule() ([]models.ScheduledDose, error) {
	var rows []struct {
		MedicationID uint
		Name         string
		Dosage       string
		TimeOfDay    string
	}
	err := s.db.Table("schedules s").
		Select("s.medication_id, m.name, m.dosage, s.time_of_day").
		Joins("JOIN medications m ON s.medication_id = m.id").
		Order("s.time_of_day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("schedule query: %w", err)
	}

	today := time.Now().Format("2006-01-02")
	schedule := make([]models.ScheduledDose, 0, len(rows))
	for _, r := range rows {
		schedule = append(schedule, models.ScheduledDose{
			MedicationID:  r.MedicationID,
			Name:          r.Name,
			Dosage:        r.Dosage,
			ScheduledTime: fmt.Sprintf("%s %s", today, r.TimeOfDay),
		})
	}
	return schedule, nil
}

// GetStatistics aggregates the dashboard counters for the trailing week.
func (s *HistoryStore) GetStatistics() (*models.Statistics, error) {
	var totalMeds int64
	if err := s.db.Model(&models.Medication{}).Count(&totalMeds).Error; err != nil {
		return nil, fmt.Errorf("medication count: %w", err)
	}

	weekStart := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	var counts []struct {
		Status models.DoseStatus
		Count  int
	}
	err := s.db.Model(&models.DoseEvent{}).
		Select("status, COUNT(*) as count").
		Where("scheduled_time >= ?", weekStart).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("weekly stats query: %w", err)
	}

	stats := &models.Statistics{TotalMedications: int(totalMeds)}
	for _, c := range counts {
		switch c.Status {
		case models.DoseTaken:
			stats.TakenThisWeek = c.Count
		case models.DoseMissed:
			stats.MissedThisWeek = c.Count
		case models.DoseDelayed:
			stats.DelayedThisWeek = c.Count
		}
	}
	stats.TotalDosesThisWeek = stats.TakenThisWeek + stats.MissedThisWeek + stats.DelayedThisWeek
	return stats, nil
}
