package domain

import "time"

// Task represents a reminder item with an optional circular trigger zone
type Task struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description,omitempty"`
	DueDate         time.Time `json:"due_date"` // carries the calendar day
	DueTime         time.Time `json:"due_time"` // carries the time of day
	Completed       bool      `json:"completed" gorm:"default:false"`
	ReminderEnabled bool      `json:"reminder_enabled" gorm:"default:false"`
	Location        *string   `json:"location,omitempty"` // address label
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	GeofenceRadius  float64   `json:"geofence_radius" gorm:"default:200"` // meters
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasZone reports whether the task carries a complete trigger zone
func (t *Task) HasZone() bool {
	return t.Latitude != nil && t.Longitude != nil && t.Location != nil
}

// DueAt returns the task's absolute fire instant: the due date's calendar day
// combined with the due time's hour and minute, seconds truncated to zero.
func (t *Task) DueAt() time.Time {
	return CombineDateAndTime(t.DueDate, t.DueTime)
}

// CombineDateAndTime merges two instants, taking the calendar day from date
// and the hour:minute from timeOfDay. Seconds and below are zeroed.
func CombineDateAndTime(date, timeOfDay time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0,
		date.Location(),
	)
}
