package availability

import (
	"errors"
	"time"

	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// Resolver answers which slot labels are still open for a therapist on a
// given calendar day, by subtracting booked slots from the weekly template.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveOpenSlots returns the open slot labels for the therapist on the
// calendar day containing date, preserving template order. A weekday with no
// template entry, or one marked closed, yields an empty result. The day
// window is server-local time (see utils.DayBounds).
func (r *Resolver) ResolveOpenSlots(therapistID uint, date time.Time) ([]string, error) {
	if date.IsZero() {
		return nil, utils.BadRequest("date is required")
	}

	var profile models.TherapistProfile
	if err := r.db.Where("user_id = ?", therapistID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("therapist profile not found")
		}
		return nil, err
	}

	var entry models.Availability
	err := r.db.Where("therapist_id = ? AND day_index = ?", therapistID, int(date.Weekday())).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	if entry.IsClosed {
		return []string{}, nil
	}

	booked, err := BookedSlots(r.db, therapistID, date)
	if err != nil {
		return nil, err
	}

	open := make([]string, 0, len(entry.Slots))
	for _, slot := range entry.Slots {
		if !booked[slot] {
			open = append(open, slot)
		}
	}
	return open, nil
}

// BookedSlots returns the slot labels held by non-terminal appointments for
// the therapist on the calendar day containing date.
func BookedSlots(db *gorm.DB, therapistID uint, date time.Time) (map[string]bool, error) {
	start, end := utils.DayBounds(date)

	var slots []string
	err := db.Model(&models.Appointment{}).
		Where("therapist_id = ? AND date BETWEEN ? AND ? AND status NOT IN ?",
			therapistID, start, end, models.TerminalStatuses).
		Pluck("slot", &slots).Error
	if err != nil {
		return nil, err
	}

	booked := make(map[string]bool, len(slots))
	for _, slot := range slots {
		booked[slot] = true
	}
	return booked, nil
}
