package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Reminder is a one-shot notification due at ReminderTime.
// Completed only ever moves from false to true.
type Reminder struct {
	ID           surrealmodels.RecordID `json:"id"`
	UserID       string                 `json:"user_id"`
	UserName     string                 `json:"user_name"`
	Channel      string                 `json:"channel"`
	ReminderText string                 `json:"reminder_text"`
	ReminderTime time.Time              `json:"reminder_time"`
	Completed    bool                   `json:"completed"`
	CreatedAt    time.Time              `json:"created_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// ReminderInput holds the fields for creating a reminder.
type ReminderInput struct {
	UserID       string
	UserName     string
	Channel      string
	ReminderText string
	ReminderTime time.Time
}

// Reminder time units accepted by the create_reminder tool.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
)

// UnitDuration returns the length of one time unit, or false for unknown units.
func UnitDuration(unit string) (time.Duration, bool) {
	switch unit {
	case UnitMinutes:
		return time.Minute, true
	case UnitHours:
		return time.Hour, true
	case UnitDays:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// DueAt converts a relative "in N units" request to an absolute instant.
func DueAt(now time.Time, value float64, unit string) (time.Time, bool) {
	d, ok := UnitDuration(unit)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(time.Duration(value * float64(d))), true
}
