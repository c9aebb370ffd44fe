package ml

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
)

// predictorHistory builds n daily records for one medication, most recent
// first, missing every fourth dose.
func predictorHistory(n int, medID uint) []models.DoseRecord {
	history := make([]models.DoseRecord, 0, n)
	for i := 0; i < n; i++ {
		status := models.DoseTaken
		if i%4 == 3 {
			status = models.DoseMissed
		}
		history = append(history, recAgo(i+1, "08:00", medID, status, 0))
	}
	return history
}

func tomorrowAt(hhmm string) string {
	return fmt.Sprintf("%s %s", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), hhmm)
}

func TestPredictInsufficientMedicationHistory(t *testing.T) {
	store := &fakeStore{history: predictorHistory(3, 1)}
	predictor := NewPredictor(store, testMLConfig(t))

	got := predictor.Predict(1, tomorrowAt("08:00"))
	if got.RiskLevel != RiskUnknown {
		t.Errorf("risk level = %q, want unknown", got.RiskLevel)
	}
	if got.Probability != 0.0 {
		t.Errorf("probability = %v, want 0.0", got.Probability)
	}
	if predictor.model != nil {
		t.Error("no training should be attempted below the history minimum")
	}
}

func TestPredictOtherMedicationHistoryIgnored(t *testing.T) {
	// Plenty of history, but none for the requested medication.
	store := &fakeStore{history: predictorHistory(20, 2)}
	predictor := NewPredictor(store, testMLConfig(t))

	got := predictor.Predict(1, tomorrowAt("08:00"))
	if got.RiskLevel != RiskUnknown {
		t.Errorf("risk level = %q, want unknown", got.RiskLevel)
	}
}

func TestPredictTrainsInline(t *testing.T) {
	cfg := testMLConfig(t)
	store := &fakeStore{history: predictorHistory(20, 1)}
	predictor := NewPredictor(store, cfg)
	if predictor.model != nil {
		t.Fatal("predictor should start unloaded without an artifact")
	}

	got := predictor.Predict(1, tomorrowAt("08:00"))
	if got.RiskLevel == RiskUnknown {
		t.Fatalf("assessment = %+v, want a concrete risk level", got)
	}
	if got.Probability < 0 || got.Probability > 1 {
		t.Errorf("probability = %v, want within [0,1]", got.Probability)
	}
	if !strings.Contains(got.Message, "%") {
		t.Errorf("message %q should embed the percentage", got.Message)
	}
	if predictor.model == nil {
		t.Error("inline training should leave the model loaded")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		t.Errorf("inline training should persist the artifact: %v", err)
	}
}

func TestPredictInlineTrainingInsufficient(t *testing.T) {
	// Enough medication history to predict, too little overall to train.
	store := &fakeStore{history: predictorHistory(6, 1)}
	predictor := NewPredictor(store, testMLConfig(t))

	got := predictor.Predict(1, tomorrowAt("08:00"))
	if got.RiskLevel != RiskUnknown {
		t.Errorf("risk level = %q, want unknown", got.RiskLevel)
	}
	if got.Message != "Insufficient data to train model" {
		t.Errorf("message = %q", got.Message)
	}
	if predictor.model != nil {
		t.Error("model should stay unloaded after failed inline training")
	}
}

func TestPredictPersistedModelDeterminism(t *testing.T) {
	cfg := testMLConfig(t)
	store := &fakeStore{history: predictorHistory(20, 1)}

	first := NewPredictor(store, cfg)
	if err := first.TrainNow(); err != nil {
		t.Fatalf("TrainNow failed: %v", err)
	}
	target := tomorrowAt("08:00")
	want := first.Predict(1, target)

	second := NewPredictor(store, cfg)
	if second.model == nil {
		t.Fatal("second predictor should load the persisted artifact")
	}
	got := second.Predict(1, target)
	if got.Probability != want.Probability {
		t.Errorf("reloaded model probability = %v, want %v", got.Probability, want.Probability)
	}
	if got.RiskLevel != want.RiskLevel {
		t.Errorf("reloaded model risk = %q, want %q", got.RiskLevel, want.RiskLevel)
	}
}

func TestNewPredictorIgnoresCorruptArtifact(t *testing.T) {
	cfg := testMLConfig(t)
	if err := os.WriteFile(cfg.ModelPath, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	predictor := NewPredictor(&fakeStore{}, cfg)
	if predictor.model != nil {
		t.Error("corrupt artifact must degrade to unloaded, not crash")
	}
}

func TestPredictForSchedule(t *testing.T) {
	cfg := testMLConfig(t)
	store := &fakeStore{
		history: predictorHistory(20, 1),
		schedule: []models.ScheduledDose{
			{MedicationID: 1, Name: "Aspirin", Dosage: "100mg", ScheduledTime: tomorrowAt("08:00")},
			{MedicationID: 1, Name: "Aspirin", Dosage: "100mg", ScheduledTime: tomorrowAt("20:00")},
		},
	}
	predictor := NewPredictor(store, cfg)

	predictions, err := predictor.PredictForSchedule()
	if err != nil {
		t.Fatalf("PredictForSchedule failed: %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("got %d predictions, want 2", len(predictions))
	}
	for _, p := range predictions {
		if p.MedicationName != "Aspirin" {
			t.Errorf("medication name = %q", p.MedicationName)
		}
		if p.Prediction.RiskLevel == RiskUnknown {
			t.Errorf("prediction for %s = %+v, want concrete risk", p.ScheduledTime, p.Prediction)
		}
	}
}

func TestClassifyThresholds(t *testing.T) {
	predictor := NewPredictor(&fakeStore{}, testMLConfig(t))

	cases := []struct {
		probability float64
		wantLevel   string
	}{
		{0.75, RiskHigh},
		{0.61, RiskHigh},
		{0.6, RiskMedium}, // high threshold is exclusive
		{0.45, RiskMedium},
		{0.3, RiskLow}, // medium threshold is exclusive
		{0.05, RiskLow},
	}
	for _, tc := range cases {
		got := predictor.classify(tc.probability)
		if got.RiskLevel != tc.wantLevel {
			t.Errorf("classify(%v) level = %q, want %q", tc.probability, got.RiskLevel, tc.wantLevel)
		}
	}

	got := predictor.classify(0.4567)
	if got.Probability != 0.457 {
		t.Errorf("probability = %v, want rounded to 3 decimals", got.Probability)
	}
	if got.Message != "Medium risk (45% probability)" {
		t.Errorf("message = %q", got.Message)
	}
}
