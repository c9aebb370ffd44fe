package models

import "time"

// TimeLayout is the minute-precision timestamp format used on the wire and
// in dose_history. Lexicographic order of these strings matches
// chronological order, which the store relies on for range queries.
const TimeLayout = "2006-01-02 15:04"

type DoseStatus string

const (
	DoseTaken   DoseStatus = "taken"
	DoseMissed  DoseStatus = "missed"
	DoseDelayed DoseStatus = "delayed"
)

// DoseEvent records the outcome of one scheduled dose. Events are immutable
// once written and only removed by cascading medication deletion.
type DoseEvent struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MedicationID  uint       `gorm:"not null;index" json:"medication_id"`
	ScheduledTime string     `gorm:"column:scheduled_time;not null;index" json:"scheduled_time"`
	ActualTime    string     `gorm:"column:actual_time" json:"actual_time,omitempty"`
	Status        DoseStatus `gorm:"not null" json:"status"`
	DelayMinutes  int        `gorm:"default:0" json:"delay_minutes"`
	RecordedAt    time.Time  `gorm:"autoCreateTime" json:"recorded_at"`
}

func (DoseEvent) TableName() string { return "dose_history" }

// DoseRecord is a DoseEvent joined with its medication, as returned by the
// history store (most-recent-first).
type DoseRecord struct {
	ID            uint       `json:"id"`
	MedicationID  uint       `json:"medication_id"`
	ScheduledTime string     `json:"scheduled_time"`
	ActualTime    string     `json:"actual_time,omitempty"`
	Status        DoseStatus `json:"status"`
	DelayMinutes  int        `json:"delay_minutes"`
	Name          string     `json:"name"`
	Dosage        string     `json:"dosage"`
}

// ScheduledDose is one entry of today's schedule.
type ScheduledDose struct {
	MedicationID  uint   `json:"medication_id"`
	Name          string `json:"name"`
	Dosage        string `json:"dosage"`
	ScheduledTime string `json:"scheduled_time"`
}

// Statistics backs the dashboard summary endpoint.
type Statistics struct {
	TotalMedications   int `json:"total_medications"`
	TakenThisWeek      int `json:"taken_this_week"`
	MissedThisWeek     int `json:"missed_this_week"`
	DelayedThisWeek    int `json:"delayed_this_week"`
	TotalDosesThisWeek int `json:"total_doses_this_week"`
}
