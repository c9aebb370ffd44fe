package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/config"
	"github.com/amaanshakeel0998/capsule-medication-tracker/handlers"
	"github.com/amaanshakeel0998/capsule-medication-tracker/middleware"
	"github.com/amaanshakeel0998/capsule-medication-tracker/ml"
	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
	"github.com/amaanshakeel0998/capsule-medication-tracker/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	godotenv.Load()
	setupLogging()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Medication{},
		&models.Schedule{},
		&models.DoseEvent{},
	)
	if err != nil {
		logrus.Fatalf("failed to migrate schema: %v", err)
	}

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		logrus.WithError(err).Warn("redis unavailable, running without cache and reminders")
	}
	defer cache.Close()

	store := services.NewHistoryStore(db, cfg.ML.DelayToleranceMin)
	authService := services.NewAuthService(cfg.JWT)
	predictor := ml.NewPredictor(store, cfg.ML)
	analyzer := ml.NewAnalyzer(store)

	reminders := services.NewReminderService(store, cache, cfg.Reminder)
	go reminders.Run(ctx)

	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))
	router.Use(middleware.RequestID())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Capsule Medication Tracker API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(db, authService)
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	router.GET("/ws/reminders", handlers.RemindersWebSocket(cache, authService))

	medsHandler := handlers.NewMedicationsHandler(store, cache)
	dosesHandler := handlers.NewDosesHandler(store, cache)
	insightsHandler := handlers.NewInsightsHandler(predictor, analyzer)

	api := router.Group("/api", middleware.RequireAuth(authService))
	{
		api.GET("/medications", medsHandler.List)
		api.POST("/medications", medsHandler.Create)
		api.GET("/medications/:id", medsHandler.Get)
		api.PUT("/medications/:id", medsHandler.Update)
		api.DELETE("/medications/:id", medsHandler.Delete)

		api.POST("/record-dose", dosesHandler.RecordDose)
		api.GET("/dose-history", dosesHandler.GetDoseHistory)
		api.GET("/todays-schedule", dosesHandler.GetTodaysSchedule)
		api.GET("/statistics", dosesHandler.GetStatistics)

		api.GET("/ai/predictions", insightsHandler.GetPredictions)
		api.POST("/ai/predict-dose", insightsHandler.PredictDose)
		api.GET("/ai/analyze-adherence", insightsHandler.AnalyzeAdherence)
		api.GET("/ai/detect-patterns", insightsHandler.DetectPatterns)
		api.GET("/ai/insights", insightsHandler.GetInsights)
		api.POST("/ai/train-model", insightsHandler.TrainModel)
		api.GET("/ai/risk-factors/:id", insightsHandler.GetRiskFactors)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.Infof("starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown failed")
	}
}

func setupLogging() {
	if strings.EqualFold(os.Getenv("ENVIRONMENT"), "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
