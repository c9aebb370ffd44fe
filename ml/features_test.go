package ml

import (
	"errors"
	"math"
	"testing"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
)

func rec(scheduled string, status models.DoseStatus, delay int) models.DoseRecord {
	return models.DoseRecord{
		MedicationID:  1,
		ScheduledTime: scheduled,
		Status:        status,
		DelayMinutes:  delay,
	}
}

func TestExtractFeaturesScenario(t *testing.T) {
	// Seven daily events, most recent first, with a single miss four days in.
	history := []models.DoseRecord{
		rec("2024-01-08 08:00", models.DoseTaken, 0),
		rec("2024-01-07 08:00", models.DoseTaken, 0),
		rec("2024-01-06 08:00", models.DoseTaken, 0),
		rec("2024-01-05 08:00", models.DoseMissed, 0),
		rec("2024-01-04 08:00", models.DoseTaken, 0),
		rec("2024-01-03 08:00", models.DoseTaken, 0),
		rec("2024-01-02 08:00", models.DoseTaken, 0),
	}

	features, err := ExtractFeatures(history, "2024-01-08 09:00")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if len(features) != FeatureCount {
		t.Fatalf("feature vector length = %d, want %d", len(features), FeatureCount)
	}

	if features[0] != 9 {
		t.Errorf("hour_of_day = %v, want 9", features[0])
	}
	// 2024-01-08 is a Monday.
	if features[1] != 0 {
		t.Errorf("day_of_week = %v, want 0 (Monday)", features[1])
	}
	if want := 1.0 / 7.0; math.Abs(features[2]-want) > 1e-9 {
		t.Errorf("recent_miss_rate = %v, want %v", features[2], want)
	}
	if features[3] != 0 {
		t.Errorf("recent_avg_delay = %v, want 0 (no delayed events)", features[3])
	}
	if features[4] != 3 {
		t.Errorf("current_streak = %v, want 3 (stops at the miss)", features[4])
	}
}

func TestExtractFeaturesAvgDelay(t *testing.T) {
	history := []models.DoseRecord{
		rec("2024-01-08 08:00", models.DoseDelayed, 90),
		rec("2024-01-07 08:00", models.DoseDelayed, 30),
		rec("2024-01-06 08:00", models.DoseTaken, 0),
	}

	features, err := ExtractFeatures(history, "2024-01-08 09:00")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if features[3] != 60 {
		t.Errorf("recent_avg_delay = %v, want 60 (mean over delayed only)", features[3])
	}
	if features[4] != 3 {
		t.Errorf("current_streak = %v, want 3 (delayed counts toward streak)", features[4])
	}
}

func TestExtractFeaturesEmptyWindow(t *testing.T) {
	history := []models.DoseRecord{
		rec("2023-11-01 08:00", models.DoseMissed, 0),
	}

	features, err := ExtractFeatures(history, "2024-01-08 09:00")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if features[2] != 0 {
		t.Errorf("recent_miss_rate = %v, want 0 for empty window", features[2])
	}
	if features[4] != 0 {
		t.Errorf("current_streak = %v, want 0 (most recent event is missed)", features[4])
	}
}

func TestExtractFeaturesLookaheadLeak(t *testing.T) {
	// Only the window's lower bound is checked, so an event scheduled after
	// the target still counts as recent.
	history := []models.DoseRecord{
		rec("2024-01-09 08:00", models.DoseMissed, 0),
		rec("2024-01-07 08:00", models.DoseTaken, 0),
	}

	features, err := ExtractFeatures(history, "2024-01-08 09:00")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if want := 0.5; features[2] != want {
		t.Errorf("recent_miss_rate = %v, want %v (future event included)", features[2], want)
	}
}

func TestCurrentStreakGrowsAndResets(t *testing.T) {
	history := []models.DoseRecord{
		rec("2024-01-05 08:00", models.DoseTaken, 0),
		rec("2024-01-04 08:00", models.DoseMissed, 0),
	}
	if got := currentStreak(history); got != 1 {
		t.Fatalf("streak = %v, want 1", got)
	}

	// Prepending more consecutive non-missed events only grows the streak.
	for i, day := range []string{"2024-01-06 08:00", "2024-01-07 08:00", "2024-01-08 08:00"} {
		history = append([]models.DoseRecord{rec(day, models.DoseDelayed, 70)}, history...)
		if got, want := currentStreak(history), float64(i+2); got != want {
			t.Errorf("streak after %d prepends = %v, want %v", i+1, got, want)
		}
	}

	// A miss at the most recent position resets the streak to 0.
	history = append([]models.DoseRecord{rec("2024-01-09 08:00", models.DoseMissed, 0)}, history...)
	if got := currentStreak(history); got != 0 {
		t.Errorf("streak = %v, want 0 after most recent miss", got)
	}
}

func TestExtractFeaturesInvalidTimestamp(t *testing.T) {
	if _, err := ExtractFeatures(nil, "not a time"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("invalid target error = %v, want ErrInvalidTimestamp", err)
	}

	history := []models.DoseRecord{rec("2024-13-40 99:99", models.DoseTaken, 0)}
	if _, err := ExtractFeatures(history, "2024-01-08 09:00"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("invalid history error = %v, want ErrInvalidTimestamp", err)
	}
}
