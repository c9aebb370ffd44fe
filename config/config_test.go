package config

import (
	"testing"
)

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "capsule",
		Password: "secret",
		Name:     "capsule",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=capsule password=secret dbname=capsule sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Redis.Port != 6379 || cfg.Redis.DB != 0 {
		t.Errorf("redis defaults = port %d db %d", cfg.Redis.Port, cfg.Redis.DB)
	}
	if cfg.JWT.ExpiryHours != 24 {
		t.Errorf("jwt expiry = %d, want 24", cfg.JWT.ExpiryHours)
	}
	if cfg.ML.ModelPath != "data/missed_dose_model.gob" {
		t.Errorf("model path = %q", cfg.ML.ModelPath)
	}
	if cfg.ML.TrainingMinRecords != 10 {
		t.Errorf("training min records = %d, want 10", cfg.ML.TrainingMinRecords)
	}
	if cfg.ML.HighRiskThreshold != 0.6 {
		t.Errorf("high risk threshold = %v, want 0.6", cfg.ML.HighRiskThreshold)
	}
	if cfg.ML.DelayToleranceMin != 60 {
		t.Errorf("delay tolerance = %d, want 60", cfg.ML.DelayToleranceMin)
	}
	if cfg.ML.TrainingWindowDays != 60 || cfg.ML.PredictionWindowDays != 30 {
		t.Errorf("windows = %d/%d, want 60/30",
			cfg.ML.TrainingWindowDays, cfg.ML.PredictionWindowDays)
	}
	if cfg.Reminder.IntervalSec != 60 || cfg.Reminder.EarlyReminderMin != 15 {
		t.Errorf("reminder defaults = %d/%d, want 60/15",
			cfg.Reminder.IntervalSec, cfg.Reminder.EarlyReminderMin)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_USER", "override")
	t.Setenv("HIGH_RISK_THRESHOLD", "0.75")
	t.Setenv("EARLY_REMINDER_MIN", "30")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.User != "override" {
		t.Errorf("db user = %q, want override", cfg.Database.User)
	}
	if cfg.ML.HighRiskThreshold != 0.75 {
		t.Errorf("high risk threshold = %v, want 0.75", cfg.ML.HighRiskThreshold)
	}
	if cfg.Reminder.EarlyReminderMin != 30 {
		t.Errorf("early reminder = %d, want 30", cfg.Reminder.EarlyReminderMin)
	}
}

func TestLoadConfigRejectsBadInt(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig accepted a non-numeric SERVER_PORT")
	}
}
