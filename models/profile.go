package models

import (
	"gorm.io/gorm"
)

// TherapistProfile carries the therapist-side data the booking engine reads:
// the weekly availability template (separate table, keyed by the therapist's
// user id) and the accepted-session counter used for "most consumed" ranking.
type TherapistProfile struct {
	gorm.Model
	UserID         uint           `json:"user_id" gorm:"uniqueIndex"`
	User           User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Specialty      string         `json:"specialty"`
	About          string         `json:"about"`
	AvatarURL      string         `json:"avatar_url"`
	SessionFee     int64          `json:"session_fee"` // minor units per session
	ConsumeCount   uint           `json:"consume_count"`
	Availabilities []Availability `json:"availabilities,omitempty" gorm:"foreignKey:TherapistID;references:UserID"`
}
