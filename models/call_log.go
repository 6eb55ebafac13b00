package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CallOngoing  = "ongoing"
	CallEnded    = "ended"
	CallDeclined = "declined"
)

type CallLog struct {
	gorm.Model
	ConversationID uint       `json:"conversation_id" gorm:"index"`
	AppointmentID  uint       `json:"appointment_id" gorm:"index"`
	SenderID       uint       `json:"sender_id"`
	ReceiverID     uint       `json:"receiver_id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	DurationSecs   int64      `json:"duration_secs"`
	Type           string     `json:"type"` // audio or video
	Status         string     `json:"status" gorm:"default:ongoing"`
}
