package models

import "time"

type Medication struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Dosage    string     `gorm:"not null" json:"dosage"`
	CreatedAt time.Time  `json:"created_at"`
	Schedules []Schedule `gorm:"constraint:OnDelete:CASCADE" json:"schedules,omitempty"`
}

func (Medication) TableName() string { return "medications" }

// Schedule is one daily dose slot for a medication, e.g. "08:00".
type Schedule struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	MedicationID uint   `gorm:"not null;index" json:"medication_id"`
	TimeOfDay    string `gorm:"column:time_of_day;not null" json:"time_of_day"`
}

func (Schedule) TableName() string { return "schedules" }
