package ml

import (
	"fmt"
	"sort"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
)

// FeatureCount is the fixed length of every feature vector. The component
// order is identical at train and inference time:
// [hour_of_day, day_of_week, recent_miss_rate, recent_avg_delay, streak].
const FeatureCount = 5

const recentWindowDays = 7

// ExtractFeatures builds the feature vector for a dose scheduled at
// targetTime given the supplied history. It has no side effects and returns
// ErrInvalidTimestamp when targetTime or any scheduled time in the history
// does not parse.
func ExtractFeatures(history []models.DoseRecord, targetTime string) ([]float64, error) {
	target, err := time.Parse(models.TimeLayout, targetTime)
	if err != nil {
		return nil, fmt.Errorf("%w: target time %q", ErrInvalidTimestamp, targetTime)
	}

	hour := float64(target.Hour())
	// time.Weekday counts from Sunday; the model was fit with Monday=0.
	dayOfWeek := float64((int(target.Weekday()) + 6) % 7)

	// Recent window: only the lower bound is checked, so events scheduled
	// at or after the target also count as recent. Persisted models were
	// fit with this window, so it must match at inference time.
	windowStart := target.AddDate(0, 0, -recentWindowDays)
	var recentTotal, recentMissed int
	var delaySum float64
	var delayCount int
	for _, rec := range history {
		scheduled, err := time.Parse(models.TimeLayout, rec.ScheduledTime)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduled time %q", ErrInvalidTimestamp, rec.ScheduledTime)
		}
		if !scheduled.After(windowStart) {
			continue
		}
		recentTotal++
		switch rec.Status {
		case models.DoseMissed:
			recentMissed++
		case models.DoseDelayed:
			delaySum += float64(rec.DelayMinutes)
			delayCount++
		}
	}

	missRate := 0.0
	if recentTotal > 0 {
		missRate = float64(recentMissed) / float64(recentTotal)
	}
	avgDelay := 0.0
	if delayCount > 0 {
		avgDelay = delaySum / float64(delayCount)
	}

	return []float64{hour, dayOfWeek, missRate, avgDelay, currentStreak(history)}, nil
}

// currentStreak counts consecutive taken/delayed events starting from the
// most recent, stopping at the first missed event or the end of history.
func currentStreak(history []models.DoseRecord) float64 {
	sorted := make([]models.DoseRecord, len(history))
	copy(sorted, history)
	// Lexicographic order of the timestamp strings is chronological.
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ScheduledTime > sorted[j].ScheduledTime
	})

	streak := 0
	for _, rec := range sorted {
		if rec.Status != models.DoseTaken && rec.Status != models.DoseDelayed {
			break
		}
		streak++
	}
	return float64(streak)
}

func filterByMedication(history []models.DoseRecord, medicationID uint) []models.DoseRecord {
	filtered := make([]models.DoseRecord, 0, len(history))
	for _, rec := range history {
		if rec.MedicationID == medicationID {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
