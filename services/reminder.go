package services

import (
	"context"
	"fmt"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/config"
	"github.com/amaanshakeel0998/capsule-medication-tracker/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// ReminderChannel is the redis pub/sub channel reminder events are
// published to and the websocket handler relays from.
const ReminderChannel = "capsule:reminders"

var (
	remindersPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capsule_reminders_published_total",
		Help: "Total number of dose reminders published.",
	})
	reminderCycleFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capsule_reminder_cycle_failures_total",
		Help: "Total number of reminder cycles that failed.",
	})
)

// Reminder is the message published for an upcoming unrecorded dose.
type Reminder struct {
	MedicationID  uint   `json:"medication_id"`
	Name          string `json:"name"`
	Dosage        string `json:"dosage"`
	ScheduledTime string `json:"scheduled_time"`
	MinutesUntil  int    `json:"minutes_until"`
}

// ReminderService periodically scans today's schedule and publishes a
// reminder for every dose due within the early-reminder window that has no
// recorded outcome yet. Each slot is reminded at most once per day.
type ReminderService struct {
	store       *HistoryStore
	cache       *CacheService
	interval    time.Duration
	earlyWindow time.Duration

	sentDay string
	sent    map[string]struct{}
}

func NewReminderService(store *HistoryStore, cache *CacheService, cfg config.ReminderConfig) *ReminderService {
	return &ReminderService{
		store:       store,
		cache:       cache,
		interval:    time.Duration(cfg.IntervalSec) * time.Second,
		earlyWindow: time.Duration(cfg.EarlyReminderMin) * time.Minute,
		sent:        make(map[string]struct{}),
	}
}

// Run blocks until ctx is cancelled. The first cycle runs immediately.
func (s *ReminderService) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"interval":     s.interval,
		"early_window": s.earlyWindow,
	}).Info("reminder service running")

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCycle(ctx)
		case <-ctx.Done():
			logrus.Info("reminder service shutting down")
			return
		}
	}
}

func (s *ReminderService) runCycle(ctx context.Context) {
	now := time.Now()

	day := now.Format("2006-01-02")
	if day != s.sentDay {
		s.sentDay = day
		s.sent = make(map[string]struct{})
	}

	schedule, err := s.store.GetTodaysSchedule()
	if err != nil {
		reminderCycleFailed.Inc()
		logrus.WithError(err).Error("reminder cycle: schedule query failed")
		return
	}

	for _, dose := range DueDoses(schedule, now, s.earlyWindow) {
		key := fmt.Sprintf("%d|%s", dose.MedicationID, dose.ScheduledTime)
		if _, done := s.sent[key]; done {
			continue
		}

		recorded, err := s.store.HasDoseEvent(dose.MedicationID, dose.ScheduledTime)
		if err != nil {
			reminderCycleFailed.Inc()
			logrus.WithError(err).Error("reminder cycle: history lookup failed")
			continue
		}
		if recorded {
			s.sent[key] = struct{}{}
			continue
		}

		scheduled, _ := time.ParseInLocation(models.TimeLayout, dose.ScheduledTime, now.Location())
		reminder := Reminder{
			MedicationID:  dose.MedicationID,
			Name:          dose.Name,
			Dosage:        dose.Dosage,
			ScheduledTime: dose.ScheduledTime,
			MinutesUntil:  int(scheduled.Sub(now).Minutes()),
		}
		if err := s.cache.Publish(ctx, ReminderChannel, reminder); err != nil {
			logrus.WithError(err).Error("reminder publish failed")
			continue
		}
		s.sent[key] = struct{}{}
		remindersPublished.Inc()
	}
}

// DueDoses returns the schedule entries falling inside [now, now+window].
// Entries with unparseable times are skipped.
func DueDoses(schedule []models.ScheduledDose, now time.Time, window time.Duration) []models.ScheduledDose {
	var due []models.ScheduledDose
	for _, dose := range schedule {
		scheduled, err := time.ParseInLocation(models.TimeLayout, dose.ScheduledTime, now.Location())
		if err != nil {
			continue
		}
		if scheduled.Before(now) || scheduled.After(now.Add(window)) {
			continue
		}
		due = append(due, dose)
	}
	return due
}
