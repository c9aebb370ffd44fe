package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	JWT      JWTConfig
	ML       MLConfig
	Reminder ReminderConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// MLConfig holds the knobs for the missed-dose prediction pipeline.
type MLConfig struct {
	ModelPath            string
	TrainingMinRecords   int
	HighRiskThreshold    float64
	DelayToleranceMin    int
	TrainingWindowDays   int
	PredictionWindowDays int
}

type ReminderConfig struct {
	IntervalSec      int
	EarlyReminderMin int
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	trainingMin, err := getIntEnv("TRAINING_MIN_RECORDS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid TRAINING_MIN_RECORDS: %w", err)
	}

	highRisk, err := getFloatEnv("HIGH_RISK_THRESHOLD", 0.6)
	if err != nil {
		return nil, fmt.Errorf("invalid HIGH_RISK_THRESHOLD: %w", err)
	}

	delayTolerance, err := getIntEnv("DELAY_TOLERANCE_MIN", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid DELAY_TOLERANCE_MIN: %w", err)
	}

	trainingWindow, err := getIntEnv("TRAINING_WINDOW_DAYS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid TRAINING_WINDOW_DAYS: %w", err)
	}

	predictionWindow, err := getIntEnv("PREDICTION_WINDOW_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTION_WINDOW_DAYS: %w", err)
	}

	reminderInterval, err := getIntEnv("REMINDER_INTERVAL_SEC", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_INTERVAL_SEC: %w", err)
	}

	earlyReminder, err := getIntEnv("EARLY_REMINDER_MIN", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid EARLY_REMINDER_MIN: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "capsule"),
			Password: getEnv("DB_PASSWORD", "capsule_dev_password"),
			Name:     getEnv("DB_NAME", "capsule"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpiryHours: jwtExpiry,
		},
		ML: MLConfig{
			ModelPath:            getEnv("MODEL_PATH", "data/missed_dose_model.gob"),
			TrainingMinRecords:   trainingMin,
			HighRiskThreshold:    highRisk,
			DelayToleranceMin:    delayTolerance,
			TrainingWindowDays:   trainingWindow,
			PredictionWindowDays: predictionWindow,
		},
		Reminder: ReminderConfig{
			IntervalSec:      reminderInterval,
			EarlyReminderMin: earlyReminder,
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
