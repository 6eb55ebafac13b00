package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Availability is one weekday entry of a therapist's weekly template.
// DayIndex follows time.Weekday: 0 is Sunday through 6 Saturday.
type Availability struct {
	gorm.Model
	TherapistID      uint           `json:"therapist_id" gorm:"uniqueIndex:idx_availability_therapist_day,priority:1"`
	DayIndex         int            `json:"day_index" gorm:"uniqueIndex:idx_availability_therapist_day,priority:2"`
	IsClosed         bool           `json:"is_closed"`
	Slots            pq.StringArray `json:"slots" gorm:"type:text[]"` // ordered slot labels, e.g. "10:00"
	AppointmentLimit int            `json:"appointment_limit"`
}
