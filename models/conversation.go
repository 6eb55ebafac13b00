package models

import (
	"gorm.io/gorm"
)

// Conversation is the communication channel bound to an approved appointment.
type Conversation struct {
	gorm.Model
	AppointmentID uint `json:"appointment_id" gorm:"uniqueIndex"`
	TherapistID   uint `json:"therapist_id"`
	PatientID     uint `json:"patient_id"`
}
